package realtime

import "time"

// Countdown holds the timing state for a single play window. It does not hold
// game-specific state; the game composes it and decides what expiry means.
type Countdown struct {
	Duration  time.Duration
	StartedAt time.Time
}

// Start opens the window at now. Call when the game leaves lobby.
func (c *Countdown) Start(now time.Time) {
	c.StartedAt = now
}

// Started reports whether Start has been called.
func (c *Countdown) Started() bool {
	return !c.StartedAt.IsZero()
}

// EndsAt returns when the window closes, or zero if it never started.
func (c *Countdown) EndsAt() time.Time {
	if c.StartedAt.IsZero() {
		return time.Time{}
	}
	return c.StartedAt.Add(c.Duration)
}

// Remaining returns the time left in the window, never negative.
func (c *Countdown) Remaining(now time.Time) time.Duration {
	if c.StartedAt.IsZero() {
		return 0
	}
	left := c.EndsAt().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a started window has run out at now.
func (c *Countdown) Expired(now time.Time) bool {
	return c.Started() && c.Remaining(now) == 0
}
