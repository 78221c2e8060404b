package pool

type Pool interface {
	// Submit hands a task to the pool. Tasks are fire-and-forget: nothing is
	// reported back to the caller once the task has been queued.
	Submit(Task) error

	// Shutdown tells every worker to stop once the tasks queued before it have
	// run, and blocks until all of them have exited. It is safe to call more
	// than once.
	Shutdown()

	// Size returns the number of workers the pool was created with
	Size() int
}
