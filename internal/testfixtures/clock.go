package testfixtures

import (
	"sync"
	"time"
)

// Clock is a hand-driven time source. It never ticks on its own; tests move
// it explicitly with Set and Advance. Internally the clock keeps the starting
// instant and an accumulated offset, so a Set discards whatever time a test
// has already skipped over.
type Clock struct {
	mu     sync.RWMutex
	base   time.Time
	offset time.Duration
}

// NewClock returns a clock reading the supplied instant. A zero start falls
// back to the shared ReferenceTime.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{base: start}
}

// Now reports the current reading.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base.Add(c.offset)
}

// NowFunc adapts the clock to the now dependency the services accept. A nil
// clock degrades to the real time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set rebases the clock on t, dropping any accumulated offset.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = t
	c.offset = 0
}

// Advance shifts the reading by d, negative values move it backward, and
// returns the new reading.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
	return c.base.Add(c.offset)
}
