package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueue_FIFO(t *testing.T) {
	q := New[int]()

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	require.Equal(t, 10, q.Len())

	for i := 0; i < 10; i++ {
		v, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	require.Equal(t, 0, q.Len())
}

func TestQueue_OrderSurvivesCompaction(t *testing.T) {
	q := New[int]()
	next := 0

	for i := 0; i < 200; i++ {
		require.NoError(t, q.Enqueue(i))
	}

	for ; next < 150; next++ {
		v, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, next, v)
	}

	for i := 200; i < 300; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	require.Equal(t, 150, q.Len())

	for ; next < 300; next++ {
		v, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, next, v)
	}
}

func TestQueue_EnqueueAfterClose(t *testing.T) {
	q := New[string]()
	q.Close()
	q.Close()

	require.True(t, q.Closed())
	require.ErrorIs(t, q.Enqueue("late"), ErrQueueClosed)
}

func TestQueue_DrainAfterClose(t *testing.T) {
	q := New[string]()
	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	q.Close()

	v, err := q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, "a", v)

	v, err = q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, "b", v)

	_, err = q.Dequeue()
	require.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueue_CloseWakesBlockedConsumers(t *testing.T) {
	q := New[int]()
	wg := &sync.WaitGroup{}
	errs := make(chan error, 3)

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Dequeue()
			errs <- err
		}()
	}

	// give the consumers time to block on the empty queue
	time.Sleep(50 * time.Millisecond)
	q.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-time.After(5 * time.Second):
		t.Fatal("consumers still blocked after Close")
	case <-done:
	}

	close(errs)
	for err := range errs {
		require.ErrorIs(t, err, ErrQueueClosed)
	}
}

func TestQueue_ConcurrentProducersAndConsumers(t *testing.T) {
	const producers, perProducer, consumers = 8, 250, 4

	q := New[int]()
	seen := make(map[int]int)
	mu := &sync.Mutex{}

	consumerWg := &sync.WaitGroup{}
	for c := 0; c < consumers; c++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				v, err := q.Dequeue()
				if err != nil {
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}

	producerWg := &sync.WaitGroup{}
	for p := 0; p < producers; p++ {
		producerWg.Add(1)
		go func(p int) {
			defer producerWg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, q.Enqueue(p*perProducer+i))
			}
		}(p)
	}

	producerWg.Wait()
	q.Close()
	consumerWg.Wait()

	require.Len(t, seen, producers*perProducer)
	for v, n := range seen {
		require.Equalf(t, 1, n, "item %d delivered %d times", v, n)
	}
}

func TestQueue_PerProducerOrderIsKept(t *testing.T) {
	q := New[[2]int]()

	wg := &sync.WaitGroup{}
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.NoError(t, q.Enqueue([2]int{p, i}))
			}
		}(p)
	}
	wg.Wait()
	q.Close()

	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	for {
		v, err := q.Dequeue()
		if err != nil {
			break
		}
		require.Greater(t, v[1], last[v[0]])
		last[v[0]] = v[1]
	}
}
