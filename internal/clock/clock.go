package clock

import "time"

// Clock abstracts time so tests can issue tokens at controlled instants
type Clock interface {
	// Now returns the current time
	Now() time.Time
}

// SystemClock uses the real system clock
type SystemClock struct{}

// NewSystemClock creates a clock that uses the real system time
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current system time
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// FixtureClock is a controllable clock for testing
type FixtureClock struct {
	current time.Time
}

// NewFixtureClock creates a fixture clock starting at the given time.
// A zero start time means time.Now().
func NewFixtureClock(start time.Time) *FixtureClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &FixtureClock{current: start}
}

// Now returns the current fixture time
func (c *FixtureClock) Now() time.Time {
	return c.current
}

// Set moves the fixture clock to a specific time
func (c *FixtureClock) Set(t time.Time) {
	c.current = t
}

// Advance moves the fixture clock forward by the given duration
func (c *FixtureClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
