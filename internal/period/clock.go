package period

import (
	"fmt"
	"time"
)

// Clock supplies the authoritative "now".
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// FixedOffsetClock reports system time shifted into a fixed UTC offset,
// independent of the host's local zone.
type FixedOffsetClock struct {
	loc    *time.Location
	source func() time.Time
}

// NewFixedOffsetClock builds a clock for the given offset in hours, e.g. -3.
func NewFixedOffsetClock(offsetHours int) *FixedOffsetClock {
	name := fmt.Sprintf("UTC%+d", offsetHours)
	return &FixedOffsetClock{
		loc:    time.FixedZone(name, offsetHours*3600),
		source: time.Now,
	}
}

// Now implements Clock.
func (c *FixedOffsetClock) Now() time.Time {
	return c.source().In(c.loc)
}

// Location returns the clock's fixed zone.
func (c *FixedOffsetClock) Location() *time.Location {
	return c.loc
}

// Fixed returns a clock that always reports t.
func Fixed(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
