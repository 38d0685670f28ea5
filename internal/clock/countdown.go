// Package clock provides the one-second countdowns behind the quiz timer and
// the concentration timer.
package clock

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tea "charm.land/bubbletea/v2"
)

// TimesUp is displayed once a countdown has run out.
const TimesUp = "Time's up!"

// Interval is the fixed period between ticks.
const Interval = time.Second

// Now returns the current wall-clock time. Swapped in tests.
type Now func() time.Time

// handleSeq hands out process-wide unique countdown handles so that a tick
// scheduled for one countdown can never be mistaken for another's.
var handleSeq atomic.Uint64

// TickMsg is delivered once per Interval for the countdown holding ID.
type TickMsg struct {
	ID uint64
}

// Schedule returns a command that delivers a TickMsg for id after Interval.
func Schedule(id uint64) tea.Cmd {
	return tea.Tick(Interval, func(time.Time) tea.Msg {
		return TickMsg{ID: id}
	})
}

// Tick is the outcome of feeding a TickMsg to a Countdown.
type Tick struct {
	// Accepted is false for ticks of a stale or cancelled handle. Callers
	// must not reschedule a rejected tick.
	Accepted bool

	// Remaining is the number of whole seconds left after this tick.
	Remaining int

	// Expired is true only on the tick that brought Remaining to zero.
	Expired bool
}

// Countdown is a cancellable per-second countdown. At most one handle is
// live at a time; starting again cancels the previous one.
type Countdown struct {
	mu        sync.Mutex
	id        uint64
	remaining int
	running   bool
}

// Start arms the countdown for seconds and returns the new handle. Any
// previous handle is invalidated.
func (c *Countdown) Start(seconds int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	c.id = handleSeq.Add(1)
	c.remaining = seconds
	c.running = true
	return c.id
}

// Cancel clears the live handle. It reports whether a handle was live, which
// makes it usable as an idempotency guard.
func (c *Countdown) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	was := c.running
	c.running = false
	return was
}

// Running reports whether a handle is live.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Remaining returns the seconds left on the current or last countdown.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// ID returns the current handle, live or not.
func (c *Countdown) ID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Tick advances the countdown by one second if id is the live handle.
func (c *Countdown) Tick(id uint64) Tick {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || id != c.id {
		return Tick{Remaining: c.remaining}
	}

	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.running = false
		return Tick{Accepted: true, Remaining: 0, Expired: true}
	}
	return Tick{Accepted: true, Remaining: c.remaining}
}

// Display renders the remaining time the way the timers show it.
func (c *Countdown) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining <= 0 {
		return TimesUp
	}
	return Format(c.remaining)
}

// Format renders seconds as zero-padded MM:SS. Negative input renders as
// 00:00.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
