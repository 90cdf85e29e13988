package runtime

import "github.com/elementio/elementio/pkg/message"

// receiverImpl implements element.Receiver over a Node's recv-port
// fan-ins.
type receiverImpl struct {
	node   *Node
	closer *Closer
}

func (r *receiverImpl) Recv(port int) (message.Message, bool) {
	if port < 0 || port >= len(r.node.RecvFanIn) || r.node.RecvFanIn[port] == nil {
		return message.Message{}, false
	}
	msg, _, ok := r.node.RecvFanIn[port].Recv(r.closer.C())
	return msg, ok
}

func (r *receiverImpl) RecvAny(port int) (message.Message, int, bool) {
	if port < 0 || port >= len(r.node.RecvFanIn) || r.node.RecvFanIn[port] == nil {
		return message.Message{}, 0, false
	}
	return r.node.RecvFanIn[port].Recv(r.closer.C())
}
