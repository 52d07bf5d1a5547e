// Package clock supplies the time source used to stamp backup files.
package clock

import "time"

// Clock returns the current time. Backups take their filename stamp from it.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current local time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// FakeClock is a manually driven Clock for tests.
type FakeClock struct {
	current time.Time
}

// NewFakeClock creates a FakeClock frozen at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// Now returns the frozen time.
func (c *FakeClock) Now() time.Time {
	return c.current
}

// Advance moves the frozen time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
