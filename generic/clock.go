package generic

import "time"

// =============================================================================
// CLOCK - Injected source of "today"
// =============================================================================

// Clock provides the current time. Engine code never calls time.Now()
// directly so every computation can be replayed against a fixed date.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall-clock time. Use only at entry points (cmd/*).
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// FixedDate returns a clock frozen at midnight UTC of d.
func FixedDate(d Date) Clock { return FixedClock{T: d.Time} }

// Today reads the clock as a calendar day.
func Today(c Clock) Date {
	if c == nil {
		c = SystemClock{}
	}
	return DateOf(c.Now())
}
