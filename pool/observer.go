package pool

import (
	"fmt"
	"log/slog"
	"time"
)

// Observer receives worker and job lifecycle events. Methods are called from
// the worker goroutines and must be safe for concurrent use.
type Observer interface {
	WorkerStarted(id int)
	JobStarted(id int)
	JobFinished(id int, elapsed time.Duration)
	JobPanicked(id int, recovered any, stack []byte)
	WorkerStopped(id int)
}

type logObserver struct {
	log *slog.Logger
}

// NewLogObserver returns an Observer that writes lifecycle events to log.
func NewLogObserver(log *slog.Logger) Observer {
	return &logObserver{log: log}
}

func (o *logObserver) WorkerStarted(id int) {
	o.log.Info(fmt.Sprintf("starting worker %d", id))
}

func (o *logObserver) JobStarted(id int) {
	o.log.Debug(fmt.Sprintf("worker %d got a job; executing", id))
}

func (o *logObserver) JobFinished(id int, elapsed time.Duration) {
	o.log.Debug(fmt.Sprintf("worker %d finished a job", id), "elapsed", elapsed)
}

func (o *logObserver) JobPanicked(id int, recovered any, stack []byte) {
	o.log.Error(fmt.Sprintf("worker %d: task panicked: %v", id, recovered), "stack", string(stack))
}

func (o *logObserver) WorkerStopped(id int) {
	o.log.Info(fmt.Sprintf("worker %d has been stopped", id))
}

// observers fans every event out to each observer in order
type observers []Observer

func (obs observers) WorkerStarted(id int) {
	for _, o := range obs {
		o.WorkerStarted(id)
	}
}

func (obs observers) JobStarted(id int) {
	for _, o := range obs {
		o.JobStarted(id)
	}
}

func (obs observers) JobFinished(id int, elapsed time.Duration) {
	for _, o := range obs {
		o.JobFinished(id, elapsed)
	}
}

func (obs observers) JobPanicked(id int, recovered any, stack []byte) {
	for _, o := range obs {
		o.JobPanicked(id, recovered, stack)
	}
}

func (obs observers) WorkerStopped(id int) {
	for _, o := range obs {
		o.WorkerStopped(id)
	}
}
