package workers

// Workers starts a fixed set of background jobs in order.
type Workers struct {
	workers []Worker
}

// NewWorkers groups the given jobs; Run launches them in the given order.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}
