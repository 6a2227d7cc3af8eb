package panel

import "time"

// RetryPolicy bounds automatic reloads of a failed key. A key is attempted
// at most MaxRetries+1 times before it settles into the error state.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy is one retry after five seconds.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 1, Delay: 5 * time.Second}

// Timer is a cancellable scheduled task.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
