package runtime

import (
	"fmt"

	"github.com/elementio/elementio/internal/metricsobs"
	"github.com/elementio/elementio/pkg/element"
	"github.com/elementio/elementio/pkg/message"
)

// pipelineHandle implements element.Pipeline for exactly one
// Instance.Next call. It enforces at-most-one-output-per-port
// by tracking which ports were touched this step, then flush moves
// whatever was staged onto the wired Channels.
type pipelineHandle struct {
	node     *Node
	closer   *Closer
	metadata map[string]uint32

	touched []bool
	staged  []message.Message // valid only where touched[i] && bufs[i]==nil
	bufs    []*message.MsgBuf // valid only where touched[i] && bufs[i]!=nil

	errMsg string

	// sentCounts[port] is how many messages flush actually handed to at
	// least one downstream Channel this step; read by the worker after
	// flush for the elementio_messages_total metric.
	sentCounts []int
}

func newPipelineHandle(node *Node, closer *Closer, metadata map[string]uint32) *pipelineHandle {
	n := len(node.SendEdges)
	return &pipelineHandle{
		node:     node,
		closer:   closer,
		metadata: metadata,
		touched:    make([]bool, n),
		staged:     make([]message.Message, n),
		bufs:       make([]*message.MsgBuf, n),
		sentCounts: make([]int, n),
	}
}

func (p *pipelineHandle) SetResultMsg(port int, msg message.Message) bool {
	if port < 0 || port >= len(p.touched) || p.touched[port] {
		msg.Free()
		return false
	}
	p.touched[port] = true
	p.staged[port] = msg
	return true
}

func (p *pipelineHandle) MsgBuf(port int) *message.MsgBuf {
	if port < 0 || port >= len(p.touched) || p.touched[port] {
		return nil
	}
	p.touched[port] = true
	buf := message.NewMsgBuf(port)
	p.bufs[port] = buf
	return buf
}

func (p *pipelineHandle) SetErrorMsg(msg string) { p.errMsg = msg }
func (p *pipelineHandle) ErrorMsg() string        { return p.errMsg }

func (p *pipelineHandle) IsClosing() bool   { return p.closer.Closed() }
func (p *pipelineHandle) RequestClose()     { p.closer.Close() }

func (p *pipelineHandle) GetMetadataID(name string) uint32 {
	return p.metadata[name]
}

// flush sends whatever this step staged on each touched port to every
// downstream Channel fed by that port, cloning for all but the last
// recipient so message ownership ends up exactly once per destination.
// Ports with zero destinations simply free the message.
func (p *pipelineHandle) flush() bool {
	for port, touched := range p.touched {
		if !touched {
			continue
		}
		msg := p.staged[port]
		if buf := p.bufs[port]; buf != nil {
			msg = buf.Take(nil)
		}

		edges := p.node.SendEdges[port]
		if len(edges) == 0 {
			msg.Free()
			metricsobs.MessagesDroppedTotal.WithLabelValues(p.node.TaskID, fmt.Sprintf("%d", port), "no_listener").Inc()
			continue
		}
		p.sentCounts[port]++
		for i, ch := range edges {
			out := msg
			if i < len(edges)-1 {
				out = msg.Clone()
			}
			if !ch.Send(out, p.closer.C()) {
				// Send already freed out; release the handle kept for
				// the edges that will now never be sent to.
				if i < len(edges)-1 {
					msg.Free()
				}
				metricsobs.MessagesDroppedTotal.WithLabelValues(p.node.TaskID, fmt.Sprintf("%d", port), "shutdown").Inc()
				return false
			}
		}
	}
	return true
}

var _ element.Pipeline = (*pipelineHandle)(nil)
