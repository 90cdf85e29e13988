// Package runtime drives constructed element instances: one worker
// goroutine per task, stepping Instance.Next and routing staged output
// messages onto the wired Channels.
package runtime

import (
	"github.com/elementio/elementio/pkg/dchan"
	"github.com/elementio/elementio/pkg/element"
)

// Node is one task's wiring: a constructed Instance plus the fan-in
// feeding each recv port and the fan-out channels fed by each send
// port. The graph builder (internal/graph) populates this after
// instantiating every task and creating one Channel per edge.
type Node struct {
	TaskID      string
	ElementName string
	Instance    element.Instance

	// RecvFanIn[port] is nil if the element has no recv port there
	// wired (a pure source), otherwise the fan-in over every upstream
	// edge feeding it.
	RecvFanIn []*dchan.FanIn

	// SendEdges[port] lists every downstream Channel fed by that send
	// port, in no particular order. A port with no outgoing edges has
	// an empty (nil) slice — a next() call may still stage
	// a result there, it is simply discarded, per this runtime's
	// design: a wired send port with zero listeners is accepted at
	// graph-build time for symmetry with ports that legitimately fan
	// out to zero consumers during partial shutdown.
	SendEdges [][]*dchan.Channel
}
