package pool

import "log/slog"

// Option configures a WorkerPool at construction.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	name       string
	observers  []Observer
	supervised bool
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for lifecycle notices. A nil logger is
// ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName tags every log line of the pool, useful when a process runs more
// than one.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithObserver adds an observer that is told about worker and job lifecycle
// events, after the built-in log observer.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observers = append(o.observers, observer)
		}
	}
}

// WithSupervision keeps a worker running after a task panics. Without it the
// worker exits and the pool runs with one worker less until shutdown.
func WithSupervision() Option {
	return func(o *options) {
		o.supervised = true
	}
}
