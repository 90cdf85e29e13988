package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/elementio/elementio/internal/errs"
	"github.com/elementio/elementio/internal/metricsobs"
	"github.com/elementio/elementio/pkg/element"
)

// Worker drives one Node's Instance.Next loop until it signals Close
// or Err, or the graph-wide Closer fires.
type Worker struct {
	node     *Node
	closer   *Closer
	metadata map[string]uint32
	receiver *receiverImpl
}

// NewWorker returns a Worker for node, sharing closer with every other
// task's worker in the same graph run.
func NewWorker(node *Node, closer *Closer, metadata map[string]uint32) *Worker {
	return &Worker{
		node:     node,
		closer:   closer,
		metadata: metadata,
		receiver: &receiverImpl{node: node, closer: closer},
	}
}

// Run steps the instance until termination. Returns nil on a clean
// Close signal or graph-wide shutdown, or a wrapped errs.ErrElementRuntime
// on an Err signal.
//
// On every exit path this task's own outbound Channels are closed
// before returning, so a downstream Recv that is waiting on them wakes
// up. A Close or Err signal also fires the graph-wide Closer, and every
// worker sharing it returns at its next loop check; messages still
// buffered in its inbound Channels at that point are not processed.
//
// Run does not finalize or free the instance: finalizers must run in
// reverse task-registration order across the whole graph, which only
// the supervisor can sequence once every worker has returned.
func (w *Worker) Run() error {
	defer w.closeOwnEdges()

	for {
		if w.closer.Closed() {
			return nil
		}

		pipe := newPipelineHandle(w.node, w.closer, w.metadata)
		start := time.Now()
		sig := w.node.Instance.Next(pipe, w.receiver)
		metricsobs.NextDurationSeconds.WithLabelValues(w.node.TaskID, w.node.ElementName).Observe(time.Since(start).Seconds())

		if !pipe.flush() {
			return nil
		}
		for port, n := range pipe.sentCounts {
			if n > 0 {
				metricsobs.MessagesTotal.WithLabelValues(w.node.TaskID, fmt.Sprintf("%d", port)).Add(float64(n))
			}
		}

		switch sig {
		case element.Produced:
			continue
		case element.Close:
			slog.Debug("task closed", "task_id", w.node.TaskID)
			metricsobs.TaskStatus.WithLabelValues(w.node.TaskID, w.node.ElementName).Set(metricsobs.TaskStatusClosed)
			w.closer.Close()
			return nil
		case element.Err:
			w.closer.Close()
			metricsobs.TaskStatus.WithLabelValues(w.node.TaskID, w.node.ElementName).Set(metricsobs.TaskStatusErrored)
			slog.Error("task runtime error", "task_id", w.node.TaskID, "error", pipe.ErrorMsg())
			return fmt.Errorf("%w: task %s: %s", errs.ErrElementRuntime, w.node.TaskID, pipe.ErrorMsg())
		default:
			w.closer.Close()
			metricsobs.TaskStatus.WithLabelValues(w.node.TaskID, w.node.ElementName).Set(metricsobs.TaskStatusErrored)
			return fmt.Errorf("%w: task %s: unknown signal %d", errs.ErrElementRuntime, w.node.TaskID, sig)
		}
	}
}

// closeOwnEdges closes every Channel this task sends on, letting
// downstream tasks drain pending buffered messages and then observe
// closure on their own schedule.
func (w *Worker) closeOwnEdges() {
	for _, edges := range w.node.SendEdges {
		for _, ch := range edges {
			ch.Close()
		}
	}
}
