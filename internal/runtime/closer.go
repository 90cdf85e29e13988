package runtime

import "sync"

// Closer is the graph-wide "closing" signal shared by every worker and
// every Channel's Send/Recv select. Close is
// idempotent and safe to call from any worker goroutine.
type Closer struct {
	once sync.Once
	ch   chan struct{}
}

// NewCloser returns an open Closer.
func NewCloser() *Closer {
	return &Closer{ch: make(chan struct{})}
}

// C returns the channel that closes when Close is called, for use as
// the "closing" argument to Channel.Send/Recv and FanIn.Recv.
func (c *Closer) C() <-chan struct{} {
	return c.ch
}

// Close marks the graph as closing. Idempotent.
func (c *Closer) Close() {
	c.once.Do(func() { close(c.ch) })
}

// Closed reports whether Close has been called.
func (c *Closer) Closed() bool {
	select {
	case <-c.ch:
		return true
	default:
		return false
	}
}
