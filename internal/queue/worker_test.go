package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	t.Parallel()

	wp := NewWorkerPool(0, nil)
	var count atomic.Int32
	for i := 0; i < 20; i++ {
		wp.Submit("count", func(context.Context) { count.Add(1) })
	}
	wp.Wait()

	require.EqualValues(t, 20, count.Load())
}

func TestWorkerPoolSubmitDoesNotBlock(t *testing.T) {
	t.Parallel()

	wp := NewWorkerPool(1, nil)
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			wp.Submit("blocked", func(context.Context) { <-release })
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked while the pool was saturated")
	}

	close(release)
	wp.Wait()
}

func TestWorkerPoolCapsConcurrency(t *testing.T) {
	t.Parallel()

	const limit = 2
	wp := NewWorkerPool(limit, nil)

	var running, peak atomic.Int32
	for i := 0; i < 10; i++ {
		wp.Submit("capped", func(context.Context) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	wp.Wait()

	require.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	t.Parallel()

	wp := NewWorkerPool(1, nil)
	var after atomic.Bool
	wp.Submit("panics", func(context.Context) { panic("boom") })
	wp.Submit("after", func(context.Context) { after.Store(true) })
	wp.Wait()

	require.True(t, after.Load(), "slot was not released after panic")
}
