package litepool

import (
	"context"
	"time"
)

// A Handler answers a request read from a connection.
//
// Serve should return a non-nil Response when err is nil. If Serve returns an
// error the connection is answered with a 500.
type Handler interface {
	Serve(context.Context, *Request) (*Response, error)
}

// The HandlerFunc type is an adapter to allow the use of
// ordinary functions as a Handler. If f is a function
// with the appropriate signature, HandlerFunc(f) is a
// Handler that calls f.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Serve calls fn(ctx, req)
func (fn HandlerFunc) Serve(ctx context.Context, req *Request) (*Response, error) {
	return fn(ctx, req)
}

// SleepHandler holds the worker for delay before passing the request on to
// next. It stops waiting early if ctx is done.
func SleepHandler(delay time.Duration, next Handler) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
		}

		return next.Serve(ctx, req)
	})
}
