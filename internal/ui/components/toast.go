// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/bcard-tui/internal/ui/styles"
)

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// Toast durations. Errors stay longer so they can be read.
const (
	DefaultToastDuration = 4 * time.Second
	ErrorToastDuration   = 8 * time.Second
)

var toastSeq atomic.Int64

// Toast is a transient notification.
type Toast struct {
	ID       int64
	Message  string
	Kind     ToastKind
	Duration time.Duration
}

// NewToast creates a toast with the default duration for its kind.
func NewToast(kind ToastKind, message string) Toast {
	d := DefaultToastDuration
	if kind == ToastError || kind == ToastWarning {
		d = ErrorToastDuration
	}
	return Toast{
		ID:       toastSeq.Add(1),
		Message:  message,
		Kind:     kind,
		Duration: d,
	}
}

// ToastDismissMsg asks the owner to drop the toast with ID if it is still
// the one showing.
type ToastDismissMsg struct {
	ID int64
}

// DismissCmd fires ToastDismissMsg after the toast's duration.
func (t Toast) DismissCmd() tea.Cmd {
	id := t.ID
	return tea.Tick(t.Duration, func(time.Time) tea.Msg {
		return ToastDismissMsg{ID: id}
	})
}

// View renders the toast.
func (t Toast) View() string {
	var text string
	border := styles.Cyan
	switch t.Kind {
	case ToastSuccess:
		text = styles.RenderSuccess(t.Message)
		border = styles.Emerald
	case ToastWarning:
		text = styles.RenderWarning(t.Message)
		border = styles.Amber
	case ToastError:
		text = styles.RenderError(t.Message)
		border = styles.Rose
	default:
		text = styles.RenderInfo(t.Message)
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(text)
}
