// Package element defines the operator contract: construction,
// next, finalize, free, and the typed port declarations the graph
// builder type-checks against.
package element

import "github.com/elementio/elementio/pkg/message"

// PortSpec declares the acceptable message-type strings for one port.
// An empty Types list is a wildcard — it matches any type on the other
// side of an edge.
type PortSpec struct {
	Types []string
}

// Accepts reports whether a (producer port, consumer port) pair may be
// wired together: their declared type sets intersect, or either side is
// a wildcard.
func (p PortSpec) Accepts(other PortSpec) bool {
	if len(p.Types) == 0 || len(other.Types) == 0 {
		return true
	}
	for _, a := range p.Types {
		for _, b := range other.Types {
			if a == b {
				return true
			}
		}
	}
	return false
}

// Signal is what Instance.Next reports about one step.
type Signal int

const (
	// Produced means the element staged zero or more outputs via the
	// Pipeline handle; the runner harvests and forwards them.
	Produced Signal = iota
	// Close means the element signals graceful end; the runner begins
	// graph-wide shutdown.
	Close
	// Err means the step failed fatally; the error message is
	// retrieved from the Pipeline handle.
	Err
)

// Pipeline is the per-next capability object handed to Instance.Next
//. A port may be touched via either
// SetResultMsg or MsgBuf within one call, never both.
type Pipeline interface {
	// SetResultMsg stages msg as the single result for port. Returns
	// false if port was already touched this step (via either method).
	SetResultMsg(port int, msg message.Message) bool
	// MsgBuf returns the accumulation buffer for port. Returns nil if
	// port was already touched this step.
	MsgBuf(port int) *message.MsgBuf
	// SetErrorMsg records the message retrieved after an Err signal.
	SetErrorMsg(msg string)
	// ErrorMsg returns whatever SetErrorMsg last recorded.
	ErrorMsg() string
	// IsClosing reports the graph-wide closing flag.
	IsClosing() bool
	// RequestClose sets the graph-wide closing flag.
	RequestClose()
	// GetMetadataID resolves a metadata id string; always works since
	// the Pipeline is task-bound.
	GetMetadataID(name string) uint32
}

// Receiver is the inbound half of the per-next capability set: pulling
// messages from recv ports.
type Receiver interface {
	// Recv blocks on the channel(s) feeding port until a message
	// arrives or they are closed/cancelled. ok is false on
	// closure/cancellation.
	Recv(port int) (msg message.Message, ok bool)
	// RecvAny waits on every channel feeding port (fan-in), returning
	// the first ready message and the upstream source port it arrived
	// from.
	RecvAny(port int) (msg message.Message, sourcePort int, ok bool)
}

// Instance is a constructed element ready to be stepped. Next must be
// safe to call repeatedly for the same instance but is never called
// concurrently with itself.
type Instance interface {
	Next(pipe Pipeline, recv Receiver) Signal
	Free()
}

// Finalizer is an operator-supplied shutdown hook, run after the
// owning task's worker loop has returned, in reverse registration
// order across tasks.
type Finalizer interface {
	Finalize() error
}

// FinalizerCreator is optionally implemented by an Instance to capture
// a closure over resources released only after message I/O has
// stopped.
type FinalizerCreator interface {
	CreateFinalizer() Finalizer
}

// Descriptor is immutable after registration: everything the graph
// builder and plugin loader need to know about an element type without
// constructing one.
type Descriptor struct {
	Name          string
	Description   string
	ConfigDoc     string
	RecvPorts     []PortSpec
	SendPorts     []PortSpec
	MetadataIDs   []string
	New           func(config string) (Instance, error)
}

// RecvCount and SendCount are declared port counts, used by the graph
// builder before any instance exists.
func (d Descriptor) RecvCount() int { return len(d.RecvPorts) }
func (d Descriptor) SendCount() int { return len(d.SendPorts) }
