package outbound

// TaskDispatcher schedules work on a shared worker pool. Submit blocks until
// a worker is available or the pool is closed.
type TaskDispatcher interface {
	Submit(task func()) error
}
