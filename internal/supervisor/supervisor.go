// Package supervisor drives a whole built graph to completion: it
// spawns one runtime.Worker per task, installs the SIGINT/SIGTERM
// handler that requests a graceful shutdown, and — once every worker
// has returned — runs finalizers and frees instances in reverse
// task-registration order.
package supervisor

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	uuid "github.com/satori/go.uuid"

	"github.com/elementio/elementio/internal/errs"
	"github.com/elementio/elementio/internal/graph"
	"github.com/elementio/elementio/internal/runtime"
	"github.com/elementio/elementio/pkg/element"
)

// Run spawns one worker per node in g, blocks until every worker has
// returned (either because its instance signaled Close/Err, or because
// an OS signal requested shutdown), finalizes and frees every instance
// in reverse registration order, and returns the first worker error
// encountered (if any) together with the process exit code it implies.
func Run(g *graph.Graph) (exitCode int, err error) {
	runUUID, uuidErr := uuid.NewV4()
	if uuidErr != nil {
		runUUID = uuid.Nil
	}
	runID := runUUID.String()
	slog.Info("graph run starting", "run_id", runID, "tasks", len(g.Nodes))

	closer := runtime.NewCloser()
	metadata := g.Metadata.Snapshot()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received shutdown signal", "signal", sig)
			closer.Close()
		case <-done:
		}
	}()
	defer close(done)

	var wg sync.WaitGroup
	workerErrs := make([]error, len(g.Nodes))
	for i, node := range g.Nodes {
		wg.Add(1)
		go func(i int, node *runtime.Node) {
			defer wg.Done()
			workerErrs[i] = runtime.NewWorker(node, closer, metadata).Run()
		}(i, node)
	}
	wg.Wait()

	finalizeErr := finalizeAndFree(g.Nodes)
	if finalizeErr != nil {
		slog.Error("graph run finalizer failed", "run_id", runID, "error", finalizeErr)
	}

	for _, e := range workerErrs {
		if e != nil {
			err = e
			break
		}
	}

	if err != nil {
		slog.Error("graph run finished with error", "run_id", runID, "error", err)
		return errs.ExitRuntimeError, err
	}
	slog.Info("graph run finished", "run_id", runID)
	return errs.ExitOK, nil
}

// finalizeAndFree runs CreateFinalizer/Finalize (where an instance
// implements element.FinalizerCreator) and then Free, for every node in
// reverse registration order — the mirror image of the forward order
// each task was instantiated in.
func finalizeAndFree(nodes []*runtime.Node) error {
	var first error
	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		if fc, ok := node.Instance.(element.FinalizerCreator); ok {
			if finalizer := fc.CreateFinalizer(); finalizer != nil {
				if err := finalizer.Finalize(); err != nil {
					slog.Error("finalizer failed", "task_id", node.TaskID, "error", err)
					if first == nil {
						first = fmt.Errorf("%w: task %s: finalize: %v", errs.ErrElementRuntime, node.TaskID, err)
					}
				}
			}
		}
		node.Instance.Free()
	}
	return first
}
