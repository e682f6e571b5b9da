package swtick

//go:generate mockgen -source=clock.go -destination=internal/testutil/tickmock/clock.go -package=tickmock

import (
	"sync"
	"time"

	"braces.dev/errtrace"
)

// Clock provides the engine's monotonic tick source.
//
// Implementations must be monotonic non-decreasing across the process
// lifetime and must not be affected by wall-clock adjustments such as NTP
// slews or DST. When the underlying time source cannot be read, Now fails
// with [ErrClockUnavailable]; callers must not substitute wall-clock time.
type Clock interface {
	// Now returns the current tick count.
	Now() (Tick, error)
}

// ClockFunc adapts a plain function to the [Clock] interface.
type ClockFunc func() (Tick, error)

func (f ClockFunc) Now() (Tick, error) { return errtrace.Wrap2(f()) }

// SystemClockOptions are the options for a [SystemClock].
type SystemClockOptions struct {
	// Resolution is the real-time length of one tick.
	// If 0, one millisecond is used.
	Resolution time.Duration
}

func (o *SystemClockOptions) resolution() time.Duration {
	if o == nil || o.Resolution == 0 {
		return time.Millisecond
	}
	return o.Resolution
}

// SystemClock derives ticks from the OS monotonic clock. The tick count
// starts at zero when the clock is created and advances by one per
// configured resolution interval.
type SystemClock struct {
	start time.Time
	res   time.Duration
}

// NewSystemClock creates a new [SystemClock].
// Options are optional, if nil, default values are used (see [SystemClockOptions]).
func NewSystemClock(opts *SystemClockOptions) *SystemClock {
	return &SystemClock{
		start: time.Now(),
		res:   opts.resolution(),
	}
}

// Resolution returns the real-time length of one tick.
func (c *SystemClock) Resolution() time.Duration { return c.res }

// Now returns the number of whole resolution intervals elapsed since the
// clock was created. time.Since reads the monotonic reading of the start
// timestamp, so wall-clock adjustments do not affect the result.
func (c *SystemClock) Now() (Tick, error) {
	return Tick(time.Since(c.start) / c.res), nil
}

// ManualClock is a simulated [Clock] for tests and deterministic replay.
// Time advances only through [ManualClock.Advance] or [ManualClock.Set].
type ManualClock struct {
	mu   sync.Mutex
	now  Tick
	fail error
}

// NewManualClock creates a new [ManualClock] starting at the given tick.
func NewManualClock(start Tick) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current simulated tick, or a [ErrClockUnavailable]
// wrapped failure injected via [ManualClock.Fail].
func (c *ManualClock) Now() (Tick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return 0, NewClockUnavailableError(c.fail)
	}
	return c.now, nil
}

// Advance moves the clock forward by d ticks and returns the new value.
func (c *ManualClock) Advance(d Tick) Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}

// Set moves the clock to the given tick. Moving backwards is rejected with
// [ErrInvalidArgument]: tick values never decrease between reads.
func (c *ManualClock) Set(t Tick) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.now {
		return NewInvalidArgumentError("cannot move clock backwards from %d to %d", uint64(c.now), uint64(t))
	}
	c.now = t
	return nil
}

// Fail makes subsequent Now calls fail with [ErrClockUnavailable] wrapping
// the given cause. A nil cause restores normal operation.
func (c *ManualClock) Fail(cause error) {
	c.mu.Lock()
	c.fail = cause
	c.mu.Unlock()
}
