package swtick

import "fmt"

// Tick is an indivisible unit of monotonic logical time. The engine never
// interprets the unit: it is whatever the [Clock] counts (milliseconds,
// microseconds, hardware ticks).
type Tick uint64

// TimerID identifies a timer within a [Registry]. Identifiers are allocated
// from a monotonically increasing counter and never reused.
type TimerID uint64

// Mode selects how a timer behaves after it fires.
type Mode int

const (
	// OneShot timers transition to [StateExpired] on fire and stay there
	// until explicitly restarted.
	OneShot Mode = iota
	// Periodic timers re-arm on fire with the deadline advanced relative
	// to the previous deadline, not to the firing time.
	Periodic
)

func (m Mode) String() string {
	switch m {
	case OneShot:
		return "one-shot"
	case Periodic:
		return "periodic"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// tickElapsed returns now-since in modular arithmetic, so the result stays
// correct when the tick counter wraps around its maximum value.
func tickElapsed(now, since Tick) Tick { return now - since }
