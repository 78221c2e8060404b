package litepool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetry_DoublesUpToMax(t *testing.T) {
	r := NewRetry(5*time.Millisecond, 20*time.Millisecond)

	require.Equal(t, 5*time.Millisecond, r.Next())
	require.Equal(t, 10*time.Millisecond, r.Next())
	require.Equal(t, 20*time.Millisecond, r.Next())
	require.Equal(t, 20*time.Millisecond, r.Next())

	r.Reset()
	require.Equal(t, 5*time.Millisecond, r.Next())
}

func TestRetry_WaitStopsOnCancel(t *testing.T) {
	r := NewRetry(time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, r.Wait(ctx), context.Canceled)
}
