package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerCoalesces(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 10)
	var calls atomic.Int32
	s := New(func(ctx context.Context, now time.Time) error {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return nil
	})

	ctx := context.Background()
	require.True(t, s.Trigger(ctx))
	<-started
	assert.False(t, s.Trigger(ctx), "a trigger during a run is coalesced")
	assert.False(t, s.RunNow(ctx))

	close(release)
	s.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(2), s.Coalesced())

	// once done, the next trigger runs again.
	require.True(t, s.Trigger(ctx))
	s.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunNowUsesClock(t *testing.T) {
	virtual := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	var got time.Time
	s := New(func(_ context.Context, now time.Time) error {
		got = now
		return errors.New("ignored")
	}, WithClock(func() time.Time { return virtual }))

	require.True(t, s.RunNow(context.Background()))
	assert.Equal(t, virtual, got)
	assert.Equal(t, int64(1), s.Runs())
}

func TestStartRunsAfterDelayThenPeriodically(t *testing.T) {
	var calls atomic.Int32
	s := New(func(context.Context, time.Time) error {
		calls.Add(1)
		return nil
	}, WithDelay(time.Millisecond), WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}

func TestStartCancelledBeforeDelay(t *testing.T) {
	var calls atomic.Int32
	s := New(func(context.Context, time.Time) error {
		calls.Add(1)
		return nil
	}, WithDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Start(ctx))
	assert.Zero(t, calls.Load())
}

func TestStartNeverOverlaps(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	s := New(func(context.Context, time.Time) error {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}, WithDelay(time.Millisecond), WithInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Start(ctx))

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Positive(t, s.Coalesced())
}

func TestTriggerDuringShutdown(t *testing.T) {
	var finished atomic.Int64
	s := New(func(context.Context, time.Time) error {
		time.Sleep(time.Millisecond)
		finished.Add(1)
		return nil
	}, WithDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			s.Trigger(ctx)
		}
	}()
	go cancel()
	require.NoError(t, s.Start(ctx))

	// Start waited for every run it let in, and lets no more in.
	assert.Equal(t, s.Runs(), finished.Load())
	assert.False(t, s.Trigger(ctx))
	assert.False(t, s.RunNow(ctx))
	<-done
	assert.Equal(t, s.Runs(), finished.Load())
}
