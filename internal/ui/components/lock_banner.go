// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/bcard-tui/internal/login"
	"github.com/jeranaias/bcard-tui/internal/ui/styles"
)

// LockTickInterval is how often the banner countdown redraws. It only
// affects display; lock expiry is decided by the login controller.
const LockTickInterval = time.Second

// =============================================================================
// LOCK BANNER
// =============================================================================

// LockBanner shows why login is disabled and, for timed locks, how long is
// left.
type LockBanner struct {
	visible    bool
	indefinite bool
	message    string
	remaining  time.Duration
	retryArmed bool

	width int
}

// NewLockBanner creates a hidden banner.
func NewLockBanner() LockBanner {
	return LockBanner{}
}

// SetWidth sets the render width.
func (b *LockBanner) SetWidth(width int) {
	b.width = width
}

// Sync updates the banner from a controller snapshot and the live
// remaining time.
func (b *LockBanner) Sync(s login.State, remaining time.Duration) {
	if !s.Blocked {
		b.Hide()
		return
	}
	b.visible = true
	b.indefinite = s.Indefinite()
	b.message = s.LockMessage()
	b.remaining = remaining
	b.retryArmed = s.RetryArmed
}

// Hide hides the banner.
func (b *LockBanner) Hide() {
	b.visible = false
	b.indefinite = false
	b.retryArmed = false
	b.remaining = 0
}

// IsVisible reports whether the banner is showing.
func (b LockBanner) IsVisible() bool {
	return b.visible
}

// TimeRemaining returns the last synced countdown.
func (b LockBanner) TimeRemaining() time.Duration {
	return b.remaining
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// LockTickMsg drives the countdown redraw.
type LockTickMsg struct {
	Time time.Time
}

// LockTickCmd schedules the next countdown redraw.
func LockTickCmd() tea.Cmd {
	return tea.Tick(LockTickInterval, func(t time.Time) tea.Msg {
		return LockTickMsg{Time: t}
	})
}

// View renders the banner, or "" when hidden.
func (b LockBanner) View() string {
	if !b.visible {
		return ""
	}

	width := b.width
	if width <= 0 {
		width = 60
	}
	if width > 72 {
		width = 72
	}

	titleStyle := lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary)
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary).Italic(true)

	parts := []string{
		titleStyle.Render(styles.StatusIndicators.Locked + " Account locked"),
		textStyle.Render(b.message),
	}

	if b.indefinite {
		if b.retryArmed {
			parts = append(parts, hintStyle.Render("Retry armed: the next sign-in attempt will be sent."))
		} else {
			parts = append(parts, hintStyle.Render("Press ctrl+r once an administrator has unblocked you."))
		}
	} else {
		timeStyle := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
		parts = append(parts, textStyle.Render("Try again in "+timeStyle.Render(login.FormatCountdown(b.remaining))))
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(styles.Rose).
		Padding(0, 1).
		Width(width - 2)

	return box.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
