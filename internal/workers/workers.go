package workers

import "context"

// Workers runs a fixed set of background workers as one unit. Workers start
// in registration order and stop in reverse, so the network monitor can be
// registered first and torn down last.
type Workers struct {
	workers []Worker
}

func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Add appends more workers; must not be called after Start.
func (w *Workers) Add(workers ...Worker) {
	w.workers = append(w.workers, workers...)
}

// Start launches every worker. Each worker owns its goroutines; Start
// returns as soon as all of them have been launched.
func (w *Workers) Start(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

// Stop stops the workers in reverse registration order and blocks until all
// of them have exited.
func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}
