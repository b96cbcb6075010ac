// Package clock implements the per-color countdown clock with
// increment-on-move semantics.
package clock

import (
	"time"

	"github.com/holychess/anarchess/internal/engine"
)

// TimeControl is the base allotment plus per-move increment.
type TimeControl struct {
	Base      time.Duration `json:"base"`
	Increment time.Duration `json:"increment"`
}

// Clock tracks both players' remaining time. Reads are pure: TimeLeft derives
// the running side's time from the monotonic baseline without side effects.
type Clock struct {
	remaining    [2]time.Duration
	increment    time.Duration
	runningSince time.Time
	frozen       bool

	now func() time.Time
}

// New returns a clock reset to the given control. The clock baseline starts
// immediately.
func New(tc TimeControl) *Clock {
	c := &Clock{now: time.Now}
	c.Reset(tc)
	return c
}

// NewWithNow injects a time source for deterministic tests.
func NewWithNow(tc TimeControl, now func() time.Time) *Clock {
	c := &Clock{now: now}
	c.Reset(tc)
	return c
}

// Restore rebuilds a clock from persisted remaining times. The baseline
// restarts at the current instant, so time spent while no process owned the
// game is not charged to either player.
func Restore(tc TimeControl, white, black time.Duration, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	c := &Clock{now: now, increment: tc.Increment, runningSince: now()}
	c.remaining[engine.White] = white
	c.remaining[engine.Black] = black
	return c
}

// Clone copies the clock for speculative mutation and rollback.
func (c *Clock) Clone() *Clock {
	cp := *c
	return &cp
}

// Reset sets both colors to the base allotment and restarts the baseline.
func (c *Clock) Reset(tc TimeControl) {
	c.remaining[engine.White] = tc.Base
	c.remaining[engine.Black] = tc.Base
	c.increment = tc.Increment
	c.runningSince = c.now()
	c.frozen = false
}

// TickMove commits elapsed time against color, adds the increment, and
// rebases the clock for the opponent.
func (c *Clock) TickMove(color engine.Color) {
	if c.frozen {
		return
	}
	t := c.now()
	c.remaining[color] -= t.Sub(c.runningSince)
	c.remaining[color] += c.increment
	c.runningSince = t
}

// TimeLeft reports the remaining time for a color. For the side on the
// running baseline the elapsed time is subtracted; idempotent, any number of
// calls without a TickMove return the same value for the same instant.
func (c *Clock) TimeLeft(color engine.Color, running bool) time.Duration {
	if c.frozen || !running {
		return c.remaining[color]
	}
	return c.remaining[color] - c.now().Sub(c.runningSince)
}

// Commit charges elapsed time against the running color without adding the
// increment. Called when the game ends while that color's clock is running,
// so the final snapshot reflects time actually spent. Floors at zero.
func (c *Clock) Commit(color engine.Color) {
	if c.frozen {
		return
	}
	t := c.now()
	c.remaining[color] -= t.Sub(c.runningSince)
	if c.remaining[color] < 0 {
		c.remaining[color] = 0
	}
	c.runningSince = t
}

// Freeze stops the clock permanently at game end.
func (c *Clock) Freeze() {
	if c.frozen {
		return
	}
	c.frozen = true
}

// Frozen reports whether the clock has been stopped.
func (c *Clock) Frozen() bool { return c.frozen }

// Snapshot returns both remaining times given the side currently to move.
func (c *Clock) Snapshot(sideToMove engine.Color) (white, black time.Duration) {
	white = c.TimeLeft(engine.White, sideToMove == engine.White)
	black = c.TimeLeft(engine.Black, sideToMove == engine.Black)
	return white, black
}
