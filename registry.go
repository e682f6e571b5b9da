package swtick

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"braces.dev/errtrace"

	"github.com/rkubicek/swtick/internal/errorutil"
	"github.com/rkubicek/swtick/internal/log"
	"github.com/rkubicek/swtick/internal/syncutil"
	"github.com/rkubicek/swtick/internal/types"
)

// FiredHandler observes timer expirations dispatched by a [Registry].
type FiredHandler func(id TimerID, firedAt Tick)

// ErrorHandler receives non-fatal per-timer dispatch failures.
type ErrorHandler func(id TimerID, err error)

// RegistryOptions are the options for a [Registry].
type RegistryOptions struct {
	// Clock is the tick source. If nil, a [SystemClock] with default
	// resolution is used.
	Clock Clock
	// Logger is the logger. If nil, logging is disabled.
	Logger *slog.Logger
}

func (o *RegistryOptions) clock() Clock {
	if o == nil || o.Clock == nil {
		return NewSystemClock(nil)
	}
	return o.Clock
}

func (o *RegistryOptions) log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Noop
	}
	return o.Logger
}

// Registry owns all timer instances: it assigns identity, tracks timer
// lifetimes and drives expiration passes. Timers never outlive the
// registry that created them.
//
// All timer state mutation happens either inside [Registry.Tick] or under
// the registry's serialization; Create, Start, Cancel and Destroy may be
// called from any goroutine, including from actions running inside a tick
// pass.
type Registry struct {
	clk Clock
	log *slog.Logger

	timers syncutil.RWMap[TimerID, *Timer]
	lastID atomic.Uint64

	onFired types.CallbackManager[FiredHandler]
	onError types.CallbackManager[ErrorHandler]

	// tickMu serializes expiration passes. Structural mutations requested
	// while a pass runs are staged on pendingDestroy and applied after the
	// pass completes, so the pass never observes a vanishing timer.
	tickMu         sync.Mutex
	ticking        atomic.Bool
	pendingDestroy types.Deque[TimerID]

	closed atomic.Bool
}

// NewRegistry creates a new [Registry].
// Options are optional, if nil, default values are used (see [RegistryOptions]).
func NewRegistry(opts *RegistryOptions) *Registry {
	return &Registry{
		clk: opts.clock(),
		log: opts.log(),
	}
}

// Clock returns the registry's tick source.
func (r *Registry) Clock() Clock { return r.clk }

// Len returns the number of timers owned by the registry.
func (r *Registry) Len() int { return r.timers.Len() }

// Get returns the timer with the given identity.
func (r *Registry) Get(id TimerID) (*Timer, bool) { return r.timers.Get(id) }

// Create allocates a new idle timer. The duration must be a positive tick
// count, else it fails with [ErrInvalidDuration] before any state mutation.
// A nil action is allowed: such a timer is driven and queried but nothing
// is dispatched when it fires.
func (r *Registry) Create(duration Tick, mode Mode, action Action) (*Timer, error) {
	if r.closed.Load() {
		return nil, errtrace.Wrap(ErrRegistryClosed)
	}
	if duration == 0 {
		return nil, errorutil.NewWrapperError(ErrInvalidDuration, "duration must be a positive tick count")
	}

	id := TimerID(r.lastID.Add(1))
	t := newTimer(r, id, duration, mode, action)
	r.timers.Set(id, t)

	r.log.Debug("timer created", "timer", t)
	return t, nil
}

// Start arms the timer with the given identity: its deadline becomes the
// clock's current tick plus the timer duration.
func (r *Registry) Start(id TimerID) error {
	if r.closed.Load() {
		return errtrace.Wrap(ErrRegistryClosed)
	}
	t, ok := r.timers.Get(id)
	if !ok {
		return errorutil.NewWrapperError(ErrTimerNotFound, "timer %d", uint64(id))
	}

	now, err := r.clk.Now()
	if err != nil {
		return NewClockUnavailableError(err)
	}
	if err := t.start(now); err != nil {
		return errtrace.Wrap(err)
	}

	r.log.Debug("timer armed", "timer", t, "tick", uint64(now),
		"deadline", log.CalcValue(func() any { d, _ := t.Deadline(); return uint64(d) }),
	)
	return nil
}

// Cancel cancels the timer with the given identity. Cancellation is
// idempotent; cancelling an already cancelled timer is a no-op, not an
// error. Cancelling an unknown identity fails with [ErrTimerNotFound].
func (r *Registry) Cancel(id TimerID) error {
	t, ok := r.timers.Get(id)
	if !ok {
		return errorutil.NewWrapperError(ErrTimerNotFound, "timer %d", uint64(id))
	}
	if err := t.cancel(); err != nil {
		return errtrace.Wrap(err)
	}

	r.log.Debug("timer cancelled", "timer", t)
	return nil
}

// Destroy cancels the timer with the given identity and removes it from
// the registry. A destroy requested while an expiration pass is running is
// applied after the pass completes.
func (r *Registry) Destroy(id TimerID) error {
	t, ok := r.timers.Get(id)
	if !ok {
		return errorutil.NewWrapperError(ErrTimerNotFound, "timer %d", uint64(id))
	}
	// Implicit cancel keeps a staged destroy from firing in the pass that
	// is currently running.
	_ = t.cancel()

	if r.ticking.Load() {
		r.pendingDestroy.Append(id)
		return nil
	}
	r.timers.Del(id)

	r.log.Debug("timer destroyed", "timer", t)
	return nil
}

// Tick runs one expiration pass at the given tick. Due timers fire in
// ascending deadline order with ties broken by creation order, and each
// fired timer's action is dispatched exactly once. Timers cancelled by an
// earlier action in the same pass do not fire; timers created during the
// pass cannot fire before the next pass. It returns the number of timers
// fired.
func (r *Registry) Tick(now Tick) (int, error) {
	if r.closed.Load() {
		return 0, errtrace.Wrap(ErrRegistryClosed)
	}

	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	r.ticking.Store(true)
	defer func() {
		r.ticking.Store(false)
		for _, id := range r.pendingDestroy.Drain() {
			r.timers.Del(id)
		}
	}()

	var due []*Timer
	for t := range r.timers.Values() {
		if t.due(now) {
			due = append(due, t)
		}
	}
	slices.SortFunc(due, func(a, b *Timer) int {
		// A larger modular overdue distance means an earlier deadline;
		// comparing distances keeps the order correct across tick
		// wraparound. Ties resolve to creation order.
		oa := tickElapsed(now, a.deadline())
		ob := tickElapsed(now, b.deadline())
		if oa != ob {
			return cmp.Compare(ob, oa)
		}
		return cmp.Compare(a.id, b.id)
	})

	fired := 0
	for _, t := range due {
		// Re-check right before firing: an earlier action in this pass may
		// have cancelled or restarted the timer.
		if !t.due(now) {
			continue
		}
		if err := t.fire(now); err != nil {
			r.log.Debug("timer fire rejected", "timer", t, "error", err)
			continue
		}
		fired++
		r.log.Debug("timer fired", "timer", t, "tick", uint64(now))
		r.dispatch(t, now)
	}
	return fired, nil
}

// dispatch invokes the timer's action and the fired observers. A panic in
// the action is caught here, reported to error handlers as
// [ErrActionDispatch] and does not abort the remaining pass.
func (r *Registry) dispatch(t *Timer, now Tick) {
	defer func() {
		if rec := recover(); rec != nil {
			err := errorutil.NewWrapperError(ErrActionDispatch, "timer %d: %v", uint64(t.id), rec)
			r.log.Warn("timer action failed", "timer", t, "error", err)
			for h := range r.onError.All() {
				h(t.id, err)
			}
		}
	}()

	if t.action != nil {
		t.action.OnTimerFired(t.id, now)
	}
	for h := range r.onFired.All() {
		h(t.id, now)
	}
}

// NextDeadline returns the earliest armed deadline at or after now.
// ok is false when no timer is armed.
func (r *Registry) NextDeadline(now Tick) (next Tick, ok bool) {
	var best Tick
	for t := range r.timers.Values() {
		if t.State() != StateArmed {
			continue
		}
		if rem := t.Remaining(now); !ok || rem < best {
			best, ok = rem, true
		}
	}
	return now + best, ok
}

// OnFired registers an observer invoked after each dispatched expiry.
// Observers run in registration order; the returned func removes the
// observer and is idempotent.
func (r *Registry) OnFired(h FiredHandler) (remove func()) { return r.onFired.Add(h) }

// OnError registers a handler for non-fatal per-timer dispatch failures.
// The returned func removes the handler and is idempotent.
func (r *Registry) OnError(h ErrorHandler) (remove func()) { return r.onError.Add(h) }

// Close cancels all timers and rejects further operations.
// It is safe to call multiple times.
func (r *Registry) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for t := range r.timers.Values() {
		if err := t.cancel(); err != nil {
			errs = append(errs, err)
		}
	}
	r.timers.Clear()

	r.log.Debug("registry closed")
	return errtrace.Wrap(errorutil.JoinPrefix("close timer registry", errs...))
}
