// ABOUTME: Strictly increasing timestamp source for row ordering
// ABOUTME: Truncates to microseconds so both engines store the same precision
package sqldb

import (
	"sync"
	"time"
)

// clock hands out UTC timestamps that never repeat or go backwards within
// one store, so created_at ordering matches insertion order
type clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newClock() *clock {
	return &clock{now: time.Now}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
