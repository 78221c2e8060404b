package pool

// Task is a unit of work run exactly once by one of the pool's workers.
type Task interface {
	// Execute performs the work
	Execute()
}

// The TaskFunc type is an adapter to allow the use of ordinary functions as a
// Task.
type TaskFunc func()

// Execute calls fn()
func (fn TaskFunc) Execute() {
	fn()
}
