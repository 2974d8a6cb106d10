package async

import "fmt"

var (
	// ErrExecutorStopped is returned by a future whose task was submitted after Stop
	ErrExecutorStopped = fmt.Errorf("executor stopped")

	// ErrTaskPanicked wraps the value recovered from a panicking task
	ErrTaskPanicked = fmt.Errorf("task panicked")
)
