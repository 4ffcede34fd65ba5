package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"guardx/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferencePoolRunsJobs(t *testing.T) {
	pool := NewInferencePool(2, 4)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	var count int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Do(context.Background(), func(ctx context.Context) error {
				atomic.AddInt32(&count, 1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(4), atomic.LoadInt32(&count))
}

func TestInferencePoolPropagatesErrors(t *testing.T) {
	pool := NewInferencePool(1, 1)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	boom := errors.New("boom")
	err := pool.Do(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = pool.Do(context.Background(), func(ctx context.Context) error { panic("engine crashed") })
	assert.ErrorIs(t, err, common.ErrInternalServer)
}

func TestInferencePoolRejectsWhenQueueFull(t *testing.T) {
	pool := NewInferencePool(1, 1)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	release := make(chan struct{})
	started := make(chan struct{})
	blocking := func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}

	firstDone := make(chan error, 1)
	go func() { firstDone <- pool.Do(context.Background(), blocking) }()
	<-started

	// Occupies the single queue slot.
	secondDone := make(chan error, 1)
	go func() {
		secondDone <- pool.Do(context.Background(), func(ctx context.Context) error { return nil })
	}()
	require.Eventually(t, func() bool { return len(pool.jobs) == 1 }, time.Second, 5*time.Millisecond)

	err := pool.Do(context.Background(), func(ctx context.Context) error {
		t.Error("rejected job must not run")
		return nil
	})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)

	close(release)
	assert.NoError(t, <-firstDone)
	assert.NoError(t, <-secondDone)
}

func TestInferencePoolCallerCancellation(t *testing.T) {
	pool := NewInferencePool(1, 1)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Do(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInferencePoolStopped(t *testing.T) {
	pool := NewInferencePool(1, 1)
	pool.Start(context.Background())
	pool.Stop()

	err := pool.Do(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}
