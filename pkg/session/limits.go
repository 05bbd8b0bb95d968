package session

import (
	"fmt"
	"time"

	"github.com/mattsolo1/grove-terminus/pkg/telemetry"
)

// Keystroke counts one player keystroke against the level budget.
func (s *Session) Keystroke() {
	if s.lockout != "" || s.complete {
		return
	}
	s.stats.Keystrokes++
	if max := s.level.MaxKeystrokes; max > 0 && s.stats.Keystrokes > max {
		s.lock(fmt.Sprintf("KEYSTROKE BUDGET EXHAUSTED. %d of %d used.", s.stats.Keystrokes, max))
	}
}

// KeystrokesLeft is the remaining budget, or -1 when the level has none.
func (s *Session) KeystrokesLeft() int {
	if s.level.MaxKeystrokes == 0 {
		return -1
	}
	return max(0, s.level.MaxKeystrokes-s.stats.Keystrokes)
}

// Remaining is the time left on the level clock, or -1 when the level has
// no time limit.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.level.TimeLimit == 0 {
		return -1
	}
	return max(0, s.level.TimeLimit-now.Sub(s.started))
}

// Tick checks the level clock and locks the player out when it has run
// down.
func (s *Session) Tick(now time.Time) {
	if s.lockout != "" || s.complete || s.level.TimeLimit == 0 {
		return
	}
	if s.Remaining(now) == 0 {
		s.lock("TIME LIMIT EXCEEDED. Trace completed.")
	}
}

// LockedOut returns the reason the player is locked out of the level.
func (s *Session) LockedOut() (string, bool) {
	return s.lockout, s.lockout != ""
}

func (s *Session) lock(reason string) {
	s.lockout = reason
	s.pending = nil
	s.sink.Record(telemetry.TagLockout, map[string]any{"level": s.level.ID, "reason": reason})
	s.log.WithField("reason", reason).Info("Player locked out")
}

func (s *Session) guard() error {
	if s.lockout != "" {
		return ErrLockedOut
	}
	return nil
}
