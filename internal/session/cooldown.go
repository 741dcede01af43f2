package session

import (
	"sync"
	"time"
)

// cooldown remembers the last surfaced server error and, for a fixed period
// afterwards, tells callers to fail fast instead of contacting the server.
type cooldown struct {
	mu        sync.Mutex
	period    time.Duration
	trippedAt time.Time
	now       func() time.Time
}

func newCooldown(period time.Duration, now func() time.Time) *cooldown {
	return &cooldown{period: period, now: now}
}

// trip records a server error. It is a no-op when the cooldown is disabled.
func (c *cooldown) trip() {
	if c.period <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trippedAt = c.now()
}

// remaining returns how long callers should keep failing fast, or zero.
func (c *cooldown) remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trippedAt.IsZero() {
		return 0
	}
	left := c.trippedAt.Add(c.period).Sub(c.now())
	if left <= 0 {
		c.trippedAt = time.Time{}
		return 0
	}
	return left
}

func (c *cooldown) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trippedAt = time.Time{}
}
