package dchan

import (
	"reflect"

	"github.com/elementio/elementio/pkg/message"
)

// edge pairs an upstream source port with the Channel carrying its
// messages into one downstream recv port.
type edge struct {
	sourcePort int
	ch         *Channel
}

// FanIn realizes a downstream port with multiple incoming edges as one
// Channel per upstream, polling across them with round-robin
// arbitration and tie-break by lowest source port index. No edge is
// starved indefinitely so long as it keeps producing.
type FanIn struct {
	edges []edge
	next  int // index into edges to try first on the next Recv

	selectCases []reflect.SelectCase // unused; blockUntilReady builds its cases per call
}

// NewFanIn builds a FanIn over channels, ordered by ascending
// sourcePort — callers should pass edges already sorted that way so
// "lowest port index" tie-break falls out of list order.
func NewFanIn(channels []*Channel, sourcePorts []int) *FanIn {
	f := &FanIn{edges: make([]edge, len(channels))}
	for i, ch := range channels {
		f.edges[i] = edge{sourcePort: sourcePorts[i], ch: ch}
	}
	return f
}

// Recv returns the next message available from any upstream channel,
// the source port it arrived on, and true — or (_, _, false) once
// closing fires or every upstream channel is closed and drained.
func (f *FanIn) Recv(closing <-chan struct{}) (msg message.Message, sourcePort int, ok bool) {
	n := len(f.edges)
	if n == 0 {
		<-closing
		return message.Message{}, 0, false
	}

	for {
		// Round-robin scan starting at f.next: deterministic fairness
		// regardless of which channel happens to wake the blocking
		// select below.
		allClosed := true
		for i := 0; i < n; i++ {
			idx := (f.next + i) % n
			e := f.edges[idx]
			if m, got := e.ch.TryRecv(); got {
				f.next = (idx + 1) % n
				return m, e.sourcePort, true
			}
			select {
			case <-e.ch.closed:
			default:
				allClosed = false
			}
		}
		if allClosed {
			return message.Message{}, 0, false
		}

		if !f.blockUntilReady(closing) {
			// closing may have raced with real data becoming ready on
			// some edge (reflect.Select does not prioritize a data case
			// over a cancellation case); do one final round-robin scan
			// before reporting cancellation so no buffered message is
			// silently dropped.
			for i := 0; i < n; i++ {
				idx := (f.next + i) % n
				e := f.edges[idx]
				if m, got := e.ch.TryRecv(); got {
					f.next = (idx + 1) % n
					return m, e.sourcePort, true
				}
			}
			return message.Message{}, 0, false
		}
	}
}

// SourcePortsForTest exposes the wired source-port order for tests that
// verify the fan-in tie-break invariant; not used by production code.
func (f *FanIn) SourcePortsForTest() []int {
	ports := make([]int, len(f.edges))
	for i, e := range f.edges {
		ports[i] = e.sourcePort
	}
	return ports
}

// blockUntilReady waits until at least one edge channel is likely to
// have data, or closing fires. It does not itself dequeue anything;
// Recv re-scans in round-robin order afterwards.
func (f *FanIn) blockUntilReady(closing <-chan struct{}) bool {
	cases := make([]reflect.SelectCase, 0, len(f.edges)+1)
	for _, e := range f.edges {
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(e.ch.ch),
		})
	}
	cases = append(cases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(closing),
	})

	chosen, recv, recvOK := reflect.Select(cases)
	if chosen == len(cases)-1 {
		return false // closing fired
	}
	if recvOK {
		// Push the received value back so the round-robin rescan in
		// Recv is the single place that dequeues. reflect.Select
		// already consumed it, so stash it on the edge instead.
		f.edges[chosen].ch.stash(recv.Interface().(message.Message))
	}
	return true
}
