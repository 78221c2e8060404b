package pool

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/jirevwe/litepool/queue"
)

type Worker struct {
	// the worker id, only used in diagnostics
	id int

	// queue from which the worker consumes messages
	jobs *queue.Queue[message]

	// closed when the worker's goroutine returns, dropped once joined
	done chan struct{}

	// keep consuming after a task panics
	supervised bool

	stopped atomic.Bool

	log      *slog.Logger
	observer Observer
}

func newWorker(id int, jobs *queue.Queue[message], supervised bool, log *slog.Logger, observer Observer) *Worker {
	return &Worker{
		id:         id,
		log:        log,
		jobs:       jobs,
		observer:   observer,
		supervised: supervised,
	}
}

func (w *Worker) ID() int { return w.id }

// Stopped reports whether the worker's goroutine has returned.
func (w *Worker) Stopped() bool { return w.stopped.Load() }

func (w *Worker) start() {
	w.done = make(chan struct{})
	go w.run()
}

func (w *Worker) run() {
	w.observer.WorkerStarted(w.id)

	defer func() {
		w.stopped.Store(true)
		w.observer.WorkerStopped(w.id)
		close(w.done)
	}()

	for {
		// the queue lock is only held for the dequeue itself, never while the
		// task runs, otherwise the workers would run one at a time
		msg, err := w.jobs.Dequeue()
		if err != nil {
			w.log.Info(fmt.Sprintf("stopping worker %d with closed job queue", w.id))
			return
		}

		switch msg.kind {
		case jobMessage:
			if !w.execute(msg.task) && !w.supervised {
				w.log.Warn(fmt.Sprintf("worker %d is exiting after a task panic, the pool has lost a worker", w.id))
				return
			}
		case terminateMessage:
			w.log.Info(fmt.Sprintf("worker %d was told to terminate", w.id))
			return
		}
	}
}

// execute runs the task to completion and reports false if it panicked.
func (w *Worker) execute(t Task) (ok bool) {
	w.observer.JobStarted(w.id)
	start := time.Now()
	completed := false

	defer func() {
		if rec := recover(); rec != nil {
			w.observer.JobPanicked(w.id, rec, debug.Stack())
			ok = false
			return
		}
		if !completed {
			// runtime.Goexit, the goroutine is going away whatever we do
			w.log.Warn(fmt.Sprintf("worker %d: task exited the worker goroutine, the pool has lost a worker", w.id))
			w.observer.JobPanicked(w.id, ErrTaskExited, debug.Stack())
			return
		}
		w.observer.JobFinished(w.id, time.Since(start))
	}()

	t.Execute()
	completed = true

	return true
}

// join blocks until the worker's goroutine has returned. The handle is dropped
// afterwards so the same worker is never waited on twice.
func (w *Worker) join() {
	if w.done == nil {
		return
	}
	<-w.done
	w.done = nil
}
