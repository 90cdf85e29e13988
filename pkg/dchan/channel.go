// Package dchan implements the bounded single-producer/single-consumer
// FIFO channel that carries Messages between two ports, plus fair
// arbitration across several such channels feeding one recv port.
package dchan

import (
	"sync"

	"github.com/elementio/elementio/pkg/message"
)

// DefaultCapacity is used when a Channel is constructed with capacity<=0.
const DefaultCapacity = 8

// Channel is a bounded FIFO between exactly one send port and one recv
// port. Send blocks when full, Recv blocks when empty; both wake up
// promptly once the supplied closing signal fires, dropping (freeing)
// any message that was half-published.
type Channel struct {
	ch chan message.Message

	closeOnce sync.Once
	closed    chan struct{} // closed by Close(); distinct from the caller's "closing" signal

	// stashed holds a value reflect.Select already dequeued on behalf of
	// FanIn's blocking wait. Only the single consumer goroutine touches
	// it (SPSC), so no lock is needed.
	stashed   message.Message
	hasStash bool
}

// New returns a Channel with the given capacity (DefaultCapacity if<=0).
func New(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel{
		ch:     make(chan message.Message, capacity),
		closed: make(chan struct{}),
	}
}

// Send blocks until the message is enqueued, the channel is closed, or
// closing fires. Returns false (and frees msg) if the send was
// abandoned; true if the message was handed off.
func (c *Channel) Send(msg message.Message, closing <-chan struct{}) bool {
	select {
	case c.ch <- msg:
		return true
	case <-c.closed:
		msg.Free()
		return false
	case <-closing:
		msg.Free()
		return false
	}
}

// Recv blocks until a message is available, the channel is closed and
// drained, or closing fires. ok is false in the latter two cases, and
// the result does not tell them apart; the runtime treats both as
// "stop receiving".
func (c *Channel) Recv(closing <-chan struct{}) (msg message.Message, ok bool) {
	if c.hasStash {
		m := c.stashed
		c.stashed = message.Message{}
		c.hasStash = false
		return m, true
	}

	// Peek non-blocking first: Go's select does not prioritize a ready
	// data case over a ready cancellation case, so entering the dual
	// select below while c.ch already has buffered data risks randomly
	// reporting "cancelled" and silently dropping real messages. Only
	// fall into the cancellable wait once the channel is genuinely
	// observed empty.
	if m, got := tryRecv(c.ch); got {
		return m, true
	}

	select {
	case m, open := <-c.ch:
		if !open {
			return message.Message{}, false
		}
		return m, true
	case <-closing:
		// closing raced with real data; give the channel one last
		// non-blocking chance before reporting cancellation.
		if m, open := tryRecv(c.ch); open {
			return m, true
		}
		return message.Message{}, false
	}
}

// tryRecv is a non-blocking read that distinguishes "nothing buffered"
// from "closed and drained" the same way a direct receive would; ok is
// true only when a real message was returned.
func tryRecv(ch chan message.Message) (msg message.Message, ok bool) {
	select {
	case m, open := <-ch:
		if !open {
			return message.Message{}, false
		}
		return m, true
	default:
		return message.Message{}, false
	}
}

// TryRecv is a non-blocking Recv used by fan-in polling.
func (c *Channel) TryRecv() (msg message.Message, ok bool) {
	if c.hasStash {
		m := c.stashed
		c.stashed = message.Message{}
		c.hasStash = false
		return m, true
	}
	select {
	case m, open := <-c.ch:
		if !open {
			return message.Message{}, false
		}
		return m, true
	default:
		return message.Message{}, false
	}
}

// stash saves a value FanIn's blocking wait already dequeued from this
// channel so the next TryRecv/Recv returns it instead of reading again.
func (c *Channel) stash(m message.Message) {
	c.stashed = m
	c.hasStash = true
}

// Close marks the channel closed. Pending items may still be received
// until drained; idempotent.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		close(c.ch)
	})
}

// Len reports the number of messages currently buffered, for tests and
// diagnostics.
func (c *Channel) Len() int {
	return len(c.ch)
}
