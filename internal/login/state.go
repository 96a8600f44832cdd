// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"fmt"
	"time"
)

// Phase is the form's position in the login state machine.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseWarned
	PhaseLocked
	PhaseAuthenticated
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseWarned:
		return "warned"
	case PhaseLocked:
		return "locked"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Outcome summarises what a Submit did.
type Outcome int

const (
	// OutcomeNone: nothing was sent (submit disabled or in flight).
	OutcomeNone Outcome = iota
	OutcomeAuthenticated
	OutcomeRejected
	OutcomeLocked
	// OutcomeFailed: network or server error; state untouched.
	OutcomeFailed
)

// Canonical user-facing messages.
const (
	MsgLastAttempt      = "Warning: 1 attempt remaining before your account is temporarily locked."
	MsgNoAttempts       = "No attempts remaining. Your account will be locked on the next failure."
	MsgLockedTimed      = "Too many failed attempts. Your account is temporarily locked."
	MsgLockedIndefinite = "Your account is blocked. Contact an administrator."
)

// State is a snapshot of a Controller.
type State struct {
	Phase     Phase
	Remaining int
	Blocked   bool
	// BlockedUntil is zero when not blocked or when the lock has no end.
	BlockedUntil time.Time
	// Warning is the attempt warning; lock text comes from LockMessage.
	Warning    string
	Submitting bool
	// RetryArmed is set when the user asked to retry an indefinite lock.
	RetryArmed bool
	// CountdownActive reports whether the expiry check is running.
	CountdownActive bool
}

// Indefinite reports a lock with no known end.
func (s State) Indefinite() bool {
	return s.Blocked && s.BlockedUntil.IsZero()
}

// LockMessage is the banner text for a locked form, or "".
func (s State) LockMessage() string {
	switch {
	case !s.Blocked:
		return ""
	case s.BlockedUntil.IsZero():
		return MsgLockedIndefinite
	default:
		return MsgLockedTimed
	}
}

// CanSubmit reports whether the submit control should be enabled.
func (s State) CanSubmit() bool {
	if s.Phase == PhaseAuthenticated || s.Submitting {
		return false
	}
	return !s.Blocked || s.RetryArmed
}

// FormatCountdown renders a lock countdown such as "4m 05s" or "12s".
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// warningFor returns the warning shown at the given remaining count.
func warningFor(remaining int) string {
	switch {
	case remaining <= 0:
		return MsgNoAttempts
	case remaining == 1:
		return MsgLastAttempt
	default:
		return ""
	}
}
