package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/refreshmon/refreshmon/internal/models"
)

// CycleFunc runs one detection cycle
type CycleFunc func(ctx context.Context, trigger string) (*CheckResult, error)

const (
	StateIdle    = "idle"
	StateRunning = "running"
)

// Scheduler runs detection cycles on a fixed interval and on demand, with at
// most one cycle in flight. A trigger arriving while a cycle runs is dropped.
type Scheduler struct {
	interval time.Duration
	cycle    CycleFunc
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
	started bool

	stopCh   chan struct{}
	stopOnce sync.Once
	resetCh  chan struct{}
}

// NewScheduler creates a scheduler calling cycle every interval
func NewScheduler(interval time.Duration, cycle CycleFunc, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		cycle:    cycle,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		stopCh:   make(chan struct{}),
		resetCh:  make(chan struct{}, 1),
	}
}

// Interval returns the period between timer triggered cycles
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// State returns StateRunning while a cycle is in flight, StateIdle otherwise
func (s *Scheduler) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return StateRunning
	}
	return StateIdle
}

// Trigger runs one cycle in the calling goroutine. It returns
// ErrCycleInProgress without running anything when a cycle is already in flight.
func (s *Scheduler) Trigger(ctx context.Context, trigger string) (*CheckResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		checkCyclesDroppedTotal.WithLabelValues(trigger).Inc()
		s.logger.Debug().Str("trigger", trigger).Msg("cycle already running, trigger dropped")
		return nil, ErrCycleInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		select {
		case s.resetCh <- struct{}{}:
		default:
		}
	}()

	return s.cycle(ctx, trigger)
}

// Run performs a first cycle immediately and then one per interval, the
// interval restarting after every completed cycle. It returns nil after Stop
// and ctx.Err() when ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info().Dur("interval", s.interval).Msg("starting scheduler")

	s.fire(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped by context")
			return ctx.Err()

		case <-s.stopCh:
			s.logger.Info().Msg("scheduler stopped")
			return nil

		case <-s.resetCh:
			timer.Reset(s.interval)

		case <-timer.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	select {
	case <-s.stopCh:
		return
	default:
	}

	if _, err := s.Trigger(ctx, models.TriggerTimer); err != nil && err != ErrCycleInProgress {
		s.logger.Debug().Err(err).Msg("cycle finished with error")
	}
}

// Stop ends Run. A cycle in flight completes first.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}
