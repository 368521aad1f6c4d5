package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refreshmon/refreshmon/internal/models"
)

func TestManualTriggerDuringCycleIsDropped(t *testing.T) {
	backend := newGatedBackend(singleDisplay())
	sink := &recordingSink{}
	m, _ := newTestMonitor(t, backend, sink, Options{Interval: time.Hour})

	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()

	<-backend.entered
	assert.Equal(t, StateRunning, m.scheduler.State())

	_, err := m.CheckNow(context.Background())
	assert.ErrorIs(t, err, ErrCycleInProgress)

	close(backend.release)
	m.Stop()
	require.NoError(t, <-done)

	assert.EqualValues(t, 1, atomic.LoadInt32(&backend.maxSeen))
	warned, _ := sink.counts()
	assert.Equal(t, 1, warned)
}

func TestConcurrentTriggersNeverOverlap(t *testing.T) {
	var inFlight, maxSeen, completed int32
	cycle := func(ctx context.Context, trigger string) (*CheckResult, error) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&maxSeen) {
			atomic.StoreInt32(&maxSeen, n)
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		atomic.AddInt32(&completed, 1)
		return &CheckResult{Trigger: trigger}, nil
	}
	s := NewScheduler(5*time.Millisecond, cycle, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var dropped int32
	for i := 0; i < 50; i++ {
		if _, err := s.Trigger(ctx, models.TriggerManual); err == ErrCycleInProgress {
			atomic.AddInt32(&dropped, 1)
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.EqualValues(t, 1, atomic.LoadInt32(&maxSeen))
	assert.Positive(t, atomic.LoadInt32(&completed))
}

func TestSchedulerFiresOnInterval(t *testing.T) {
	var calls int32
	cycle := func(ctx context.Context, trigger string) (*CheckResult, error) {
		assert.Equal(t, models.TriggerTimer, trigger)
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}
	s := NewScheduler(10*time.Millisecond, cycle, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	require.NoError(t, <-done)
}

func TestSchedulerRunTwice(t *testing.T) {
	cycle := func(ctx context.Context, trigger string) (*CheckResult, error) { return nil, nil }
	s := NewScheduler(time.Hour, cycle, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.started
	}, time.Second, time.Millisecond)

	assert.Error(t, s.Run(context.Background()))

	s.Stop()
	require.NoError(t, <-done)
}

func TestNoCycleAfterStop(t *testing.T) {
	var calls int32
	cycle := func(ctx context.Context, trigger string) (*CheckResult, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}
	s := NewScheduler(time.Millisecond, cycle, zerolog.Nop())
	s.Stop()

	require.NoError(t, s.Run(context.Background()))
	assert.Zero(t, atomic.LoadInt32(&calls))
}
