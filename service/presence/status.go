// Package presence holds the time-band rules that keep user status and
// typing indicators consistent between the client heartbeat and the
// periodic sweeps.
package presence

import (
	"time"

	"github.com/danglnh07/concord/db"
)

const (
	// Status bands for the sweep: online within 5 minutes of activity,
	// away within 10, offline beyond that.
	OnlineWindow = 5 * time.Minute
	AwayWindow   = 10 * time.Minute

	// Typing rows are shown for 5s but only garbage-collected after 10s.
	// A row may exist-but-be-ignored between the two windows; that slack
	// is intentional so the sweep interval never hides an active typist.
	TypingDisplayWindow = 5 * time.Second
	TypingRetention     = 10 * time.Second
)

// StatusFor computes the status band for a profile given its last activity.
// Do-not-disturb overrides every band.
func StatusFor(lastSeen time.Time, doNotDisturb bool, now time.Time) db.Status {
	if doNotDisturb {
		return db.StatusDnd
	}

	idle := now.Sub(lastSeen)
	switch {
	case idle <= OnlineWindow:
		return db.StatusOnline
	case idle <= AwayWindow:
		return db.StatusAway
	default:
		return db.StatusOffline
	}
}

// HeartbeatStatus is the status written by updateLastSeen: the user just
// acted, so they are online unless do-not-disturb is set.
func HeartbeatStatus(doNotDisturb bool) db.Status {
	if doNotDisturb {
		return db.StatusDnd
	}
	return db.StatusOnline
}

// IsTyping reports whether a typing row is still inside the display window.
func IsTyping(lastTyping, now time.Time) bool {
	return now.Sub(lastTyping) <= TypingDisplayWindow
}
