package litepool

import (
	"context"
	"time"
)

// Retry spaces out attempts after temporary failures, doubling the pause each
// time up to maxSleep.
type Retry struct {
	sleepDuration time.Duration
	maxSleep      time.Duration
	current       time.Duration
}

func NewRetry(sleepDuration, maxSleep time.Duration) *Retry {
	return &Retry{
		sleepDuration: sleepDuration,
		maxSleep:      maxSleep,
	}
}

// Next returns the pause before the next attempt.
func (r *Retry) Next() time.Duration {
	if r.current == 0 {
		r.current = r.sleepDuration
	} else {
		r.current *= 2
	}

	if r.current > r.maxSleep {
		r.current = r.maxSleep
	}

	return r.current
}

// Wait sleeps for the next pause, or until ctx is done.
func (r *Retry) Wait(ctx context.Context) error {
	timer := time.NewTimer(r.Next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reset starts the next failure streak from the initial pause.
func (r *Retry) Reset() {
	r.current = 0
}
