// Package graph implements the graph builder & type checker:
// parses the task list, binds elements, wires channels, and validates
// message-type compatibility port-by-port before any worker spawns.
package graph

import (
	"fmt"
	"sort"

	"github.com/elementio/elementio/internal/config"
	"github.com/elementio/elementio/internal/errs"
	"github.com/elementio/elementio/internal/runtime"
	"github.com/elementio/elementio/pkg/dchan"
	"github.com/elementio/elementio/pkg/element"
	"github.com/elementio/elementio/pkg/metadata"
)

// ChannelCapacity is used for every wired edge: a bounded FIFO with a
// small default capacity.
const ChannelCapacity = dchan.DefaultCapacity

// Graph is the fully wired, instantiated result of Build: one Node per
// task plus the sealed metadata registry every task-bound Pipeline
// handle reads from.
type Graph struct {
	Nodes    []*runtime.Node
	Metadata *metadata.Registry
}

// Build validates and instantiates doc.Tasks, in declaration order. On
// any failure it frees every instance already constructed, in reverse
// order, and returns a single descriptive error.
func Build(doc *config.Document) (*Graph, error) {
	tasksByID := make(map[int]config.TaskConfig, len(doc.Tasks))
	for _, t := range doc.Tasks {
		tasksByID[t.ID] = t
	}

	descriptors := make(map[int]element.Descriptor, len(doc.Tasks))
	for _, t := range doc.Tasks {
		d, err := element.Get(t.Element)
		if err != nil {
			return nil, fmt.Errorf("%w: task %d: %w", errs.ErrConfig, t.ID, err)
		}
		descriptors[t.ID] = d
	}

	if err := validatePortCounts(doc.Tasks, descriptors); err != nil {
		return nil, err
	}
	if err := typeCheck(doc.Tasks, descriptors); err != nil {
		return nil, err
	}

	reg := metadata.NewRegistry()
	for _, d := range descriptors {
		for _, name := range d.MetadataIDs {
			reg.Declare(name)
		}
	}
	reg.Seal()

	channels, err := wireChannels(doc.Tasks)
	if err != nil {
		return nil, err
	}

	nodes, instErr := instantiate(doc.Tasks, descriptors, channels)
	if instErr != nil {
		return nil, instErr
	}

	return &Graph{Nodes: nodes, Metadata: reg}, nil
}

// validatePortCounts checks that every from[i] index is within the
// task's declared recv port count, and every (upstream, port) pair in
// it names a real task and a real send port of that task. A task with
// recv_ports > 0 and no From entries is a config error.
func validatePortCounts(tasks []config.TaskConfig, descriptors map[int]element.Descriptor) error {
	byID := make(map[int]config.TaskConfig, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	for _, t := range tasks {
		d := descriptors[t.ID]
		if d.RecvCount() > 0 && len(t.From) == 0 {
			return fmt.Errorf("%w: task %d (%s): has %d recv port(s) but no from entries", errs.ErrConfig, t.ID, t.Element, d.RecvCount())
		}
		if len(t.From) > d.RecvCount() {
			return fmt.Errorf("%w: task %d (%s): from has %d entries but element declares %d recv port(s)", errs.ErrConfig, t.ID, t.Element, len(t.From), d.RecvCount())
		}
		for recvPort, wiring := range t.From {
			if len(wiring) == 0 {
				return fmt.Errorf("%w: task %d (%s): recv port %d has no edges", errs.ErrConfig, t.ID, t.Element, recvPort)
			}
			for _, edge := range wiring {
				up, ok := byID[edge.UpstreamID]
				if !ok {
					return fmt.Errorf("%w: task %d (%s): recv port %d: unknown upstream task %d", errs.ErrConfig, t.ID, t.Element, recvPort, edge.UpstreamID)
				}
				upDesc := descriptors[up.ID]
				if edge.UpstreamPort < 0 || edge.UpstreamPort >= upDesc.SendCount() {
					return fmt.Errorf("%w: task %d (%s): recv port %d: upstream task %d (%s) has no send port %d", errs.ErrConfig, t.ID, t.Element, recvPort, up.ID, up.Element, edge.UpstreamPort)
				}
			}
		}
	}
	return nil
}

// typeCheck validates, for every edge, that the producer's declared
// send types and the consumer's declared recv types intersect, or
// either side is a wildcard.
func typeCheck(tasks []config.TaskConfig, descriptors map[int]element.Descriptor) error {
	byID := make(map[int]config.TaskConfig, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	for _, t := range tasks {
		d := descriptors[t.ID]
		for recvPort, wiring := range t.From {
			downSpec := d.RecvPorts[recvPort]
			for _, edge := range wiring {
				up := byID[edge.UpstreamID]
				upDesc := descriptors[up.ID]
				upSpec := upDesc.SendPorts[edge.UpstreamPort]
				if !upSpec.Accepts(downSpec) {
					return fmt.Errorf("%w: edge %d.%d -> %d.%d: send types %v do not intersect recv types %v",
						errs.ErrTypeMismatch, up.ID, edge.UpstreamPort, t.ID, recvPort, upSpec.Types, downSpec.Types)
				}
			}
		}
	}
	return nil
}

// edgeKey identifies one wired Channel by its exact (upstream task,
// upstream port, downstream task, downstream port) tuple.
type edgeKey struct {
	upID, upPort, downID, downPort int
}

// wireChannels creates one Channel per incoming edge.
func wireChannels(tasks []config.TaskConfig) (map[edgeKey]*dchan.Channel, error) {
	channels := make(map[edgeKey]*dchan.Channel)
	for _, t := range tasks {
		for recvPort, wiring := range t.From {
			for _, edge := range wiring {
				key := edgeKey{edge.UpstreamID, edge.UpstreamPort, t.ID, recvPort}
				channels[key] = dchan.New(ChannelCapacity)
			}
		}
	}
	return channels, nil
}

// instantiate calls each element's New with its config text, in task
// declaration order, building each Node's wiring from the channels
// already created. On any New failure it frees every instance already
// constructed, in reverse order.
func instantiate(tasks []config.TaskConfig, descriptors map[int]element.Descriptor, channels map[edgeKey]*dchan.Channel) ([]*runtime.Node, error) {
	nodes := make([]*runtime.Node, 0, len(tasks))
	instances := make([]element.Instance, 0, len(tasks))

	rollback := func() {
		for i := len(instances) - 1; i >= 0; i-- {
			instances[i].Free()
		}
	}

	for _, t := range tasks {
		d := descriptors[t.ID]
		inst, err := d.New(t.Conf)
		if err != nil || inst == nil {
			rollback()
			return nil, fmt.Errorf("%w: task %d (%s): %v", errs.ErrElementInit, t.ID, t.Element, err)
		}
		instances = append(instances, inst)

		node := &runtime.Node{
			TaskID:      fmt.Sprintf("%d", t.ID),
			ElementName: t.Element,
			Instance:    inst,
			SendEdges:   make([][]*dchan.Channel, d.SendCount()),
			RecvFanIn:   make([]*dchan.FanIn, d.RecvCount()),
		}
		nodes = append(nodes, node)
	}

	// Second pass: now that every node exists, fill in RecvFanIn (needs
	// the upstream Channel, already created) and SendEdges (needs to
	// know every downstream Channel fed by this task's send ports).
	nodeByID := make(map[int]*runtime.Node, len(nodes))
	for i, t := range tasks {
		nodeByID[t.ID] = nodes[i]
	}

	for _, t := range tasks {
		node := nodeByID[t.ID]
		for recvPort, wiring := range t.From {
			sorted := append([]config.Edge(nil), wiring...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].UpstreamPort < sorted[j].UpstreamPort })

			chans := make([]*dchan.Channel, len(sorted))
			ports := make([]int, len(sorted))
			for i, edge := range sorted {
				key := edgeKey{edge.UpstreamID, edge.UpstreamPort, t.ID, recvPort}
				chans[i] = channels[key]
				ports[i] = edge.UpstreamPort
			}
			node.RecvFanIn[recvPort] = dchan.NewFanIn(chans, ports)
		}
	}

	for key, ch := range channels {
		up := nodeByID[key.upID]
		up.SendEdges[key.upPort] = append(up.SendEdges[key.upPort], ch)
	}

	return nodes, nil
}
