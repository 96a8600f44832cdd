// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/guard"
	"github.com/jeranaias/bcard-tui/internal/ui/components"
	"github.com/jeranaias/bcard-tui/internal/ui/styles"
	"github.com/jeranaias/bcard-tui/internal/util"
)

var (
	usersKey = key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "users"),
	)
	moderationKey = key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "cards"),
	)
	blockUserKey = key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "block"),
	)
	unblockUserKey = key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "unblock"),
	)
	resetAttemptsKey = key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reset attempts"),
	)
)

// =============================================================================
// DASHBOARD
// =============================================================================

type dashboardScreen struct {
	env     *env
	keys    listKeys
	loading bool
	stats   *api.Stats
	err     string
}

func newDashboardScreen(e *env) (screen, tea.Cmd) {
	s := &dashboardScreen{env: e, keys: defaultListKeys(), loading: true}
	return s, s.fetch()
}

func (s *dashboardScreen) fetch() tea.Cmd {
	e := s.env
	token := e.token()
	return func() tea.Msg {
		stats, err := e.client.SystemStats(e.context(), token)
		return statsLoadedMsg{stats: stats, err: err}
	}
}

func (s *dashboardScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		s.loading = false
		if msg.err != nil {
			s.err = describe(msg.err)
			return s, nil
		}
		s.err = ""
		s.stats = msg.stats
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.keys.Refresh):
			s.loading = true
			return s, s.fetch()
		case key.Matches(msg, usersKey):
			return s, navigate(guard.PathAdminUsers)
		case key.Matches(msg, moderationKey):
			return s, navigate(guard.PathAdminCards)
		}
	}
	return s, nil
}

func (s *dashboardScreen) View() string {
	t := s.env.theme
	title := t.Title.Render("Admin Dashboard")
	switch {
	case s.loading && s.stats == nil:
		return title + "\n" + t.Muted.Render("Loading statistics...")
	case s.err != "":
		return title + "\n" + styles.RenderError(s.err)
	case s.stats == nil:
		return title
	}

	st := s.stats
	tile := func(label string, n int) string {
		return t.CardBox.Width(18).Render(
			t.Muted.Render(label) + "\n" + lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan).Render(fmt.Sprint(n)))
	}
	users := lipgloss.JoinHorizontal(lipgloss.Top,
		tile("Users", st.TotalUsers),
		tile("Business", st.BusinessUsers),
		tile("Admins", st.AdminUsers),
		tile("Blocked users", st.BlockedUsers),
	)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		tile("Cards", st.TotalCards),
		tile("Blocked cards", st.BlockedCards),
		tile("Likes", st.TotalLikes),
	)
	return lipgloss.JoinVertical(lipgloss.Left, title, users, cards)
}

func (s *dashboardScreen) SetSize(int, int) {}

func (s *dashboardScreen) Keys() []key.Binding {
	return []key.Binding{usersKey, moderationKey, s.keys.Refresh}
}

func (s *dashboardScreen) Capturing() bool { return false }

func (s *dashboardScreen) Close() {}

// =============================================================================
// USER MODERATION
// =============================================================================

type usersScreen struct {
	env     *env
	keys    listKeys
	loading bool
	users   []api.User
	cursor  int
	err     string
	height  int
}

func newUsersScreen(e *env) (screen, tea.Cmd) {
	s := &usersScreen{env: e, keys: defaultListKeys(), loading: true}
	return s, s.fetch()
}

func (s *usersScreen) fetch() tea.Cmd {
	e := s.env
	token := e.token()
	return func() tea.Msg {
		users, err := e.client.ListUsers(e.context(), token)
		return usersLoadedMsg{users: users, err: err}
	}
}

func (s *usersScreen) selected() (api.User, bool) {
	if s.cursor < 0 || s.cursor >= len(s.users) {
		return api.User{}, false
	}
	return s.users[s.cursor], true
}

func (s *usersScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		s.loading = false
		if msg.err != nil {
			s.err = describe(msg.err)
			return s, nil
		}
		s.err = ""
		s.users = msg.users
		if s.cursor >= len(s.users) {
			s.cursor = max(0, len(s.users)-1)
		}
	case userActionMsg:
		if msg.err != nil {
			return s, notify(components.ToastError, describe(msg.err))
		}
		if msg.user != nil {
			for i := range s.users {
				if s.users[i].ID == msg.user.ID {
					s.users[i] = *msg.user
				}
			}
		}
		return s, notify(components.ToastSuccess, msg.notice)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *usersScreen) handleKey(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch {
	case key.Matches(msg, s.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, s.keys.Down):
		if s.cursor < len(s.users)-1 {
			s.cursor++
		}
	case key.Matches(msg, s.keys.Refresh):
		s.loading = true
		return s, s.fetch()
	case key.Matches(msg, blockUserKey):
		if u, ok := s.selected(); ok {
			if me, _ := s.env.identity(); me.ID == u.ID {
				return s, notify(components.ToastWarning, "You can't block your own account.")
			}
			return s, s.moderate(u, true)
		}
	case key.Matches(msg, unblockUserKey):
		if u, ok := s.selected(); ok {
			return s, s.moderate(u, false)
		}
	case key.Matches(msg, resetAttemptsKey):
		if u, ok := s.selected(); ok {
			return s, s.resetAttempts(u)
		}
	}
	return s, nil
}

func (s *usersScreen) moderate(u api.User, block bool) tea.Cmd {
	e := s.env
	token := e.token()
	return func() tea.Msg {
		var updated *api.User
		var err error
		notice := "Unblocked " + u.Email + "."
		if block {
			updated, err = e.client.BlockUser(e.context(), token, u.ID)
			notice = "Blocked " + u.Email + "."
		} else {
			updated, err = e.client.UnblockUser(e.context(), token, u.ID)
		}
		return userActionMsg{user: updated, notice: notice, err: err}
	}
}

func (s *usersScreen) resetAttempts(u api.User) tea.Cmd {
	e := s.env
	token := e.token()
	return func() tea.Msg {
		err := e.client.ResetLoginAttempts(e.context(), token, u.Email)
		return userActionMsg{notice: "Login attempts reset for " + u.Email + ".", err: err}
	}
}

func (s *usersScreen) View() string {
	t := s.env.theme
	var b strings.Builder
	b.WriteString(t.Title.Render("Users"))
	b.WriteString("\n")

	switch {
	case s.loading && len(s.users) == 0:
		b.WriteString(t.Muted.Render("Loading users..."))
		return b.String()
	case s.err != "":
		b.WriteString(styles.RenderError(s.err))
		return b.String()
	case len(s.users) == 0:
		b.WriteString(t.Muted.Render("No users."))
		return b.String()
	}

	rows := s.height - 3
	if rows < 3 {
		rows = len(s.users)
	}
	first := 0
	if s.cursor >= rows {
		first = s.cursor - rows + 1
	}
	last := min(len(s.users), first+rows)

	for i := first; i < last; i++ {
		u := s.users[i]
		name := u.Name.Full()
		if name == "" {
			name = u.Email
		}
		line := fmt.Sprintf("%-28s %-32s", util.Truncate(name, 28), util.Truncate(u.Email, 32))
		role := "user"
		switch {
		case u.IsAdmin:
			role = "admin"
		case u.IsBusinessUser():
			role = "business"
		}
		line += t.Muted.Render(fmt.Sprintf(" %-8s", role))
		if u.IsBlocked {
			line += " " + styles.RenderError(styles.StatusIndicators.Locked+" blocked")
		}
		if i == s.cursor {
			b.WriteString(t.ListSelected.Render(line))
		} else {
			b.WriteString(t.ListItem.Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *usersScreen) SetSize(_, height int) {
	s.height = height
}

func (s *usersScreen) Keys() []key.Binding {
	return []key.Binding{s.keys.Up, s.keys.Down, blockUserKey, unblockUserKey, resetAttemptsKey, s.keys.Refresh}
}

func (s *usersScreen) Capturing() bool { return false }

func (s *usersScreen) Close() {}
