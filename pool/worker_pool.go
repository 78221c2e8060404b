package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jirevwe/litepool/queue"
)

var (
	ErrWorkerPoolClosed = errors.New("worker pool is not active")
	ErrInvalidSize      = errors.New("worker pool size must be greater than zero")
	ErrNilTask          = errors.New("task must not be nil")
	ErrTaskExited       = errors.New("task exited its goroutine before returning")
)

// WorkerPool runs submitted tasks on a fixed set of workers that share one
// FIFO job queue.
type WorkerPool struct {
	// queue from which workers consume work
	jobs *queue.Queue[message]

	// ensure the pool can only be stopped once
	stop sync.Once

	workers []*Worker

	log *slog.Logger

	observer Observer
}

var _ Pool = (*WorkerPool)(nil)

// New creates a pool of size workers. Every worker is running and waiting on
// the job queue when New returns.
func New(size int, opts ...Option) (*WorkerPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if o.name != "" {
		log = log.With("pool", o.name)
	}

	p := &WorkerPool{
		jobs:     queue.New[message](),
		workers:  make([]*Worker, size),
		observer: append(observers{NewLogObserver(log)}, o.observers...),
		log:      log,
	}

	p.log.Info(fmt.Sprintf("starting worker pool with %d workers", size))
	for i := 0; i < size; i++ {
		w := newWorker(i, p.jobs, o.supervised, p.log, p.observer)
		p.workers[i] = w
		w.start()
	}

	return p, nil
}

// MustNew is like New but panics if the pool cannot be created.
func MustNew(size int, opts ...Option) *WorkerPool {
	p, err := New(size, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Submit queues a task for the next free worker. It never waits for a worker
// to become free. Once Shutdown has started it returns ErrWorkerPoolClosed.
func (p *WorkerPool) Submit(t Task) error {
	if t == nil {
		return ErrNilTask
	}

	if err := p.jobs.Enqueue(newJob(t)); err != nil {
		if errors.Is(err, queue.ErrQueueClosed) {
			return ErrWorkerPoolClosed
		}
		return err
	}

	return nil
}

// SubmitFunc queues fn as a task.
func (p *WorkerPool) SubmitFunc(fn func()) error {
	if fn == nil {
		return ErrNilTask
	}
	return p.Submit(TaskFunc(fn))
}

// Shutdown sends one terminate message per worker and waits for every worker
// to exit, in the order they were created. The terminate messages are queued
// behind every task submitted before Shutdown, so those tasks have all run by
// the time it returns. Tasks submitted while Shutdown is running may be
// dropped.
func (p *WorkerPool) Shutdown() {
	p.stop.Do(func() {
		p.log.Info("shutting down worker pool")

		for range p.workers {
			if err := p.jobs.Enqueue(newTerminate()); err != nil {
				p.log.Error(err.Error(), "source", "shutdown")
			}
		}

		// nothing may be queued behind the terminate messages
		p.jobs.Close()

		for _, w := range p.workers {
			p.log.Info(fmt.Sprintf("shutting down worker %d", w.id))
			w.join()
		}

		p.log.Info("all workers stopped")
	})
}

// Close is Shutdown in io.Closer form.
func (p *WorkerPool) Close() error {
	p.Shutdown()
	return nil
}

// Size returns the number of workers the pool was created with. It does not
// change when a worker exits after a task panic.
func (p *WorkerPool) Size() int {
	return len(p.workers)
}

// Pending returns the number of messages waiting in the job queue.
func (p *WorkerPool) Pending() int {
	return p.jobs.Len()
}

// Workers returns the pool's workers in creation order.
func (p *WorkerPool) Workers() []*Worker {
	workers := make([]*Worker, len(p.workers))
	copy(workers, p.workers)
	return workers
}
