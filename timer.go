package swtick

//go:generate mockgen -source=timer.go -destination=internal/testutil/tickmock/timer.go -package=tickmock

import (
	"context"
	"log/slog"
	"sync"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/rkubicek/swtick/internal/errorutil"
)

// State represents the current state of a timer.
type State string

const (
	// StateIdle indicates the timer was created but never started.
	StateIdle State = "idle"
	// StateArmed indicates the timer will fire upon reaching its deadline.
	StateArmed State = "armed"
	// StateExpired indicates a one-shot timer has fired.
	StateExpired State = "expired"
	// StateCancelled indicates the timer was cancelled.
	StateCancelled State = "cancelled"
)

// Timer lifecycle triggers.
const (
	triggerStart  = "start"
	triggerFire   = "fire"
	triggerCancel = "cancel"
)

// Action is the capability invoked when a timer fires. It receives the
// firing timer's identity and the tick at which it fired; the action may
// itself create, start, or cancel timers on the owning registry.
type Action interface {
	OnTimerFired(id TimerID, firedAt Tick)
}

// ActionFunc adapts a plain function to the [Action] interface.
type ActionFunc func(id TimerID, firedAt Tick)

func (f ActionFunc) OnTimerFired(id TimerID, firedAt Tick) { f(id, firedAt) }

// Timer represents one countdown or interval owned by a [Registry].
// All lifecycle transitions go through an internal state machine; invalid
// operations are rejected with [ErrActionNotAllowed].
//
// A timer never outlives the registry that created it.
type Timer struct {
	id       TimerID
	duration Tick
	mode     Mode
	action   Action
	reg      *Registry

	sm *stateless.StateMachine

	mu    sync.Mutex
	base  Tick   // previous deadline, the drift-free rescheduling anchor
	fired uint64 // fire count since the last start
}

func newTimer(reg *Registry, id TimerID, duration Tick, mode Mode, action Action) *Timer {
	t := &Timer{
		id:       id,
		duration: duration,
		mode:     mode,
		action:   action,
		reg:      reg,
	}

	sm := stateless.NewStateMachine(StateIdle)
	sm.Configure(StateIdle).
		Permit(triggerStart, StateArmed).
		Permit(triggerCancel, StateCancelled)
	sm.Configure(StateArmed).
		PermitReentry(triggerStart).
		Permit(triggerCancel, StateCancelled).
		Permit(triggerFire, StateExpired, t.isOneShot).
		PermitReentry(triggerFire, t.isPeriodic).
		OnEntryFrom(triggerStart, t.onStart).
		OnEntryFrom(triggerFire, t.onFire)
	sm.Configure(StateExpired).
		Permit(triggerStart, StateArmed).
		Permit(triggerCancel, StateCancelled).
		OnEntryFrom(triggerFire, t.onFire)
	sm.Configure(StateCancelled).
		Permit(triggerStart, StateArmed).
		Ignore(triggerCancel)
	t.sm = sm

	return t
}

// ID returns the timer identity within its registry.
func (t *Timer) ID() TimerID { return t.id }

// Duration returns the timer interval in ticks.
func (t *Timer) Duration() Tick { return t.duration }

// Mode returns the timer mode.
func (t *Timer) Mode() Mode { return t.mode }

// State returns the current timer state.
func (t *Timer) State() State {
	st, _ := t.sm.MustState().(State)
	return st
}

// Fired returns the number of times the timer has fired since it was last
// started.
func (t *Timer) Fired() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Deadline returns the absolute tick at which the timer fires next.
// The second value is false unless the timer is armed.
func (t *Timer) Deadline() (Tick, bool) {
	if t.State() != StateArmed {
		return 0, false
	}
	return t.deadline(), true
}

func (t *Timer) deadline() Tick {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.base + t.duration
}

// Remaining returns the number of ticks until expiration at now, clamped
// to zero once the deadline is reached. Timers that are not armed report
// zero. The computation is wrap-safe.
func (t *Timer) Remaining(now Tick) Tick {
	if t.State() != StateArmed {
		return 0
	}

	t.mu.Lock()
	base := t.base
	t.mu.Unlock()

	elapsed := tickElapsed(now, base)
	if elapsed >= t.duration {
		return 0
	}
	return t.duration - elapsed
}

// Start arms the timer through the owning registry: the deadline becomes
// the registry clock's current tick plus the timer duration. Starting an
// armed timer restarts the countdown from now.
func (t *Timer) Start() error { return errtrace.Wrap(t.reg.Start(t.id)) }

// Cancel cancels the timer through the owning registry. Cancelling an
// already cancelled timer is a no-op.
func (t *Timer) Cancel() error { return errtrace.Wrap(t.reg.Cancel(t.id)) }

// due reports whether the timer is armed and its deadline was reached at
// now. It is a pure query.
func (t *Timer) due(now Tick) bool {
	if t.State() != StateArmed {
		return false
	}

	t.mu.Lock()
	base := t.base
	t.mu.Unlock()

	return tickElapsed(now, base) >= t.duration
}

func (t *Timer) start(now Tick) error {
	if err := t.sm.Fire(triggerStart, now); err != nil {
		return errorutil.NewWrapperError(ErrActionNotAllowed, err)
	}
	return nil
}

func (t *Timer) cancel() error {
	if err := t.sm.Fire(triggerCancel); err != nil {
		return errorutil.NewWrapperError(ErrActionNotAllowed, err)
	}
	return nil
}

// fire is invoked only by the registry during an expiration pass, after a
// positive due check.
func (t *Timer) fire(now Tick) error {
	if err := t.sm.Fire(triggerFire, now); err != nil {
		return errorutil.NewWrapperError(ErrActionNotAllowed, err)
	}
	return nil
}

func (t *Timer) isOneShot(context.Context, ...any) bool { return t.mode == OneShot }

func (t *Timer) isPeriodic(context.Context, ...any) bool { return t.mode == Periodic }

func (t *Timer) onStart(_ context.Context, args ...any) error {
	now := args[0].(Tick) //nolint:forcetypeassert
	t.mu.Lock()
	t.base = now
	t.fired = 0
	t.mu.Unlock()
	return nil
}

func (t *Timer) onFire(_ context.Context, args ...any) error {
	now := args[0].(Tick) //nolint:forcetypeassert
	t.mu.Lock()
	if t.mode == Periodic {
		// Advance relative to the previous deadline to stay drift-free.
		// A pass that was late by more than one period skips the missed
		// periods instead of firing a backlog.
		missed := tickElapsed(now, t.base) / t.duration
		t.base += missed * t.duration
	}
	t.fired++
	t.mu.Unlock()
	return nil
}

// LogValue implements [slog.LogValuer].
func (t *Timer) LogValue() slog.Value {
	if t == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Uint64("id", uint64(t.id)),
		slog.String("state", string(t.State())),
		slog.String("mode", t.mode.String()),
		slog.Uint64("duration", uint64(t.duration)),
	)
}
