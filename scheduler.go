package swtick

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"braces.dev/errtrace"

	"github.com/rkubicek/swtick/internal/log"
)

// SchedulerOptions are the options for a [Scheduler].
type SchedulerOptions struct {
	// PollInterval switches the loop to fixed-period polling: the loop
	// sleeps this long between passes regardless of armed deadlines.
	// If 0, the loop sleeps until the next armed deadline.
	PollInterval time.Duration
	// TickUnit is the real-time length of one tick, used to convert tick
	// distances into sleep durations for deadline-based waits.
	// If 0, one millisecond is used. For a [SystemClock] source it should
	// match the clock resolution.
	TickUnit time.Duration
	// IdleInterval is the sleep period while no timer is armed.
	// If 0, 100 milliseconds is used.
	IdleInterval time.Duration
	// Logger is the logger. If nil, logging is disabled.
	Logger *slog.Logger
}

func (o *SchedulerOptions) pollInterval() time.Duration {
	if o == nil {
		return 0
	}
	return o.PollInterval
}

func (o *SchedulerOptions) tickUnit() time.Duration {
	if o == nil || o.TickUnit == 0 {
		return time.Millisecond
	}
	return o.TickUnit
}

func (o *SchedulerOptions) idleInterval() time.Duration {
	if o == nil || o.IdleInterval == 0 {
		return 100 * time.Millisecond
	}
	return o.IdleInterval
}

func (o *SchedulerOptions) log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Noop
	}
	return o.Logger
}

// Scheduler drives a [Registry] with a single cooperative tick loop: each
// iteration reads the registry clock, runs one expiration pass and then
// suspends until the next scheduling opportunity.
type Scheduler struct {
	reg  *Registry
	clk  Clock
	poll time.Duration
	unit time.Duration
	idle time.Duration
	log  *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new [Scheduler] for the registry.
// Options are optional, if nil, default values are used (see [SchedulerOptions]).
func NewScheduler(reg *Registry, opts *SchedulerOptions) *Scheduler {
	return &Scheduler{
		reg:  reg,
		clk:  reg.Clock(),
		poll: opts.pollInterval(),
		unit: opts.tickUnit(),
		idle: opts.idleInterval(),
		log:  opts.log(),
		stop: make(chan struct{}),
	}
}

// Run executes the tick loop until [Scheduler.Stop] is called, the context
// is cancelled, or the clock fails. A clock failure is fatal: the loop
// returns an [ErrClockUnavailable] wrapped error rather than tick on
// unknown time. Closing the registry ends the loop without error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Debug("scheduler started")
	defer s.log.Debug("scheduler stopped")

	for {
		select {
		case <-s.stop:
			return nil
		case <-ctx.Done():
			return errtrace.Wrap(ctx.Err())
		default:
		}

		now, err := s.clk.Now()
		if err != nil {
			err = NewClockUnavailableError(err)
			s.log.Error("clock read failed", "error", err)
			return errtrace.Wrap(err)
		}

		fired, err := s.reg.Tick(now)
		if err != nil {
			if errors.Is(err, ErrRegistryClosed) {
				return nil
			}
			return errtrace.Wrap(err)
		}
		if fired > 0 {
			s.log.Debug("tick pass", "tick", uint64(now), "fired", fired)
		}

		wait := time.NewTimer(s.waitFor(now))
		select {
		case <-s.stop:
			wait.Stop()
			return nil
		case <-ctx.Done():
			wait.Stop()
			return errtrace.Wrap(ctx.Err())
		case <-wait.C:
		}
	}
}

// Stop terminates the loop before the next tick begins; an in-flight tick
// pass completes. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// waitFor returns how long the loop suspends after a pass at now.
func (s *Scheduler) waitFor(now Tick) time.Duration {
	if s.poll > 0 {
		return s.poll
	}

	next, ok := s.reg.NextDeadline(now)
	if !ok {
		return s.idle
	}
	dist := tickElapsed(next, now)
	if dist == 0 {
		return s.unit
	}
	// Cap far deadlines so the conversion below cannot overflow and the
	// loop periodically re-evaluates deadlines armed while it slept.
	if maxTicks := Tick(time.Hour / s.unit); dist > maxTicks {
		return time.Hour
	}
	return time.Duration(dist) * s.unit
}
