// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/login"
	"github.com/jeranaias/bcard-tui/internal/session"
	"github.com/jeranaias/bcard-tui/internal/ui/components"
)

// =============================================================================
// NAVIGATION AND NOTIFICATION
// =============================================================================

// navigateMsg asks the root model to open path.
type navigateMsg struct {
	path string
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

// toastMsg shows a notification.
type toastMsg struct {
	toast components.Toast
}

func notify(kind components.ToastKind, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{toast: components.NewToast(kind, text)} }
}

// =============================================================================
// EXTERNAL EVENTS
// =============================================================================

// eventMsg wraps a message that arrived on the event channel so the root
// model knows to re-arm the listener.
type eventMsg struct {
	inner tea.Msg
}

// sessionMsg reports a session store transition.
type sessionMsg struct {
	change session.Change
}

// loginStateMsg carries a login controller snapshot.
type loginStateMsg struct {
	state login.State
}

// =============================================================================
// RESULTS
// =============================================================================

type loginResultMsg struct {
	ctrl    *login.Controller
	outcome login.Outcome
	err     error
}

type cardsLoadedMsg struct {
	mode  cardsMode
	cards []api.Card
	// offline is set when cards came from the local cache.
	offline  bool
	syncedAt time.Time
	err      error
}

type cardLoadedMsg struct {
	card *api.Card
	err  error
}

// cardUpdatedMsg follows a like toggle or a moderation change.
type cardUpdatedMsg struct {
	card *api.Card
	err  error
}

type usersLoadedMsg struct {
	users []api.User
	err   error
}

// userActionMsg follows a block, unblock or attempt reset.
type userActionMsg struct {
	user   *api.User
	notice string
	err    error
}

type statsLoadedMsg struct {
	stats *api.Stats
	err   error
}

type profileLoadedMsg struct {
	user *api.User
	err  error
}
