// Package countersink implements a sink element that counts received
// messages and exits cleanly on upstream Close (spec end-to-end
// scenario 2: graceful close via element).
package countersink

import (
	"log/slog"
	"sync/atomic"

	"github.com/elementio/elementio/pkg/element"
)

// Name is this element's registered name.
const Name = "counter-sink"

type instance struct {
	id       string
	received atomic.Int64
}

// Descriptor returns this element's registration.
func Descriptor() element.Descriptor {
	return element.Descriptor{
		Name:        Name,
		Description: "counts received messages, logging the total on Close",
		RecvPorts:   []element.PortSpec{{}},
		New:         newInstance,
	}
}

func newInstance(conf string) (element.Instance, error) {
	return &instance{id: conf}, nil
}

func (i *instance) Next(_ element.Pipeline, recv element.Receiver) element.Signal {
	msg, ok := recv.Recv(0)
	if !ok {
		slog.Info("counter-sink closing", "id", i.id, "received", i.received.Load())
		return element.Close
	}
	msg.Free()
	i.received.Add(1)
	return element.Produced
}

func (i *instance) Free() {}

// Received returns the number of messages counted so far; exposed for
// tests that need to observe the element's own state directly.
func (i *instance) Received() int64 { return i.received.Load() }
