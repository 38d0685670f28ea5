// Package concentration runs focus sessions: a countdown bound to an
// exclusive fullscreen presentation that ends on timeout, on leaving
// fullscreen, or on a manual stop.
package concentration

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/clock"
)

// ErrInvalidDuration rejects a non-positive duration.
var ErrInvalidDuration = errors.New("invalid concentration duration")

// InvalidDurationMessage is shown when Start rejects the duration.
const InvalidDurationMessage = "Please enter a valid duration."

// MaxMinutes caps a single focus session.
const MaxMinutes = 24 * 60

// Surface is the presentation that can be made exclusive. Implementations
// may fail to enter fullscreen; the session then runs without the lock.
type Surface interface {
	RequestFullscreen() error
	ExitFullscreen() error
	IsFullscreen() bool
}

// Trigger names what ended a session.
type Trigger int

const (
	TriggerTimeout      Trigger = iota // Countdown reached zero
	TriggerExternalExit                // Surface left fullscreen on its own
	TriggerManual                      // User pressed stop
)

func (t Trigger) String() string {
	switch t {
	case TriggerTimeout:
		return "timeout"
	case TriggerExternalExit:
		return "external-exit"
	case TriggerManual:
		return "manual"
	}
	return "unknown"
}

// TickResult is the outcome of a countdown tick.
type TickResult struct {
	Accepted   bool
	Display    string
	Reschedule bool

	// Stopped is true when this tick ran the countdown out and stopped the
	// session.
	Stopped bool
}

// Session is the focus-timer state machine: Idle, then Running, then Idle
// again. Safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	surface   Surface
	countdown clock.Countdown
	minutes   int
	log       *zap.Logger
}

// New creates an idle session presenting on surface. A nil surface means no
// fullscreen capability.
func New(surface Surface, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{surface: surface, log: log}
}

// Start validates minutes, requests fullscreen and arms the countdown. The
// returned handle is what ticks must carry. A rejected duration changes
// nothing.
func (s *Session) Start(minutes int) (uint64, error) {
	if minutes <= 0 || minutes > MaxMinutes {
		return 0, ErrInvalidDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface != nil {
		if err := s.surface.RequestFullscreen(); err != nil {
			s.log.Warn("fullscreen unavailable", zap.Error(err))
		}
	}

	s.minutes = minutes
	id := s.countdown.Start(minutes * 60)
	s.log.Info("concentration started", zap.Int("minutes", minutes))
	return id, nil
}

// Running reports whether a countdown is live.
func (s *Session) Running() bool {
	return s.countdown.Running()
}

// Display returns the remaining time as MM:SS.
func (s *Session) Display() string {
	return clock.Format(s.countdown.Remaining())
}

// Tick advances the countdown for handle id. The tick that reaches zero
// stops the session.
func (s *Session) Tick(id uint64) TickResult {
	t := s.countdown.Tick(id)
	if !t.Accepted {
		return TickResult{}
	}
	if t.Expired {
		s.stop(TriggerTimeout, true)
		return TickResult{Accepted: true, Display: clock.Format(0), Stopped: true}
	}
	return TickResult{Accepted: true, Display: clock.Format(t.Remaining), Reschedule: true}
}

// Stop ends the session. It is idempotent: only the first call after a
// Start does anything, and it reports whether this call stopped it.
func (s *Session) Stop(trigger Trigger) bool {
	return s.stop(trigger, s.countdown.Cancel())
}

// FullscreenExited handles the surface leaving fullscreen. While running it
// is the same as a stop; otherwise it is ignored.
func (s *Session) FullscreenExited() bool {
	return s.Stop(TriggerExternalExit)
}

// stop releases the surface once the countdown handle has been cleared.
// wasRunning comes from the Cancel (or expiry) that cleared it, so two
// racing stops cannot both get here with true.
func (s *Session) stop(trigger Trigger, wasRunning bool) bool {
	if !wasRunning {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface != nil && s.surface.IsFullscreen() {
		if err := s.surface.ExitFullscreen(); err != nil {
			s.log.Warn("leaving fullscreen failed", zap.Error(err))
		}
	}
	s.log.Info("concentration stopped",
		zap.Stringer("trigger", trigger),
		zap.Int("minutes", s.minutes),
		zap.Int("remaining_seconds", s.countdown.Remaining()),
	)
	return true
}
