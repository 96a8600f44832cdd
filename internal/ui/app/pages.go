// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/session"
	"github.com/jeranaias/bcard-tui/internal/ui/styles"
)

// =============================================================================
// PROFILE
// =============================================================================

type profileScreen struct {
	env     *env
	keys    listKeys
	loading bool
	user    *api.User
	err     string
}

func newProfileScreen(e *env) (screen, tea.Cmd) {
	s := &profileScreen{env: e, keys: defaultListKeys(), loading: true}
	return s, s.fetch()
}

func (s *profileScreen) fetch() tea.Cmd {
	e := s.env
	token := e.token()
	id, _ := e.identity()
	return func() tea.Msg {
		u, err := e.client.GetUser(e.context(), token, id.ID)
		return profileLoadedMsg{user: u, err: err}
	}
}

func (s *profileScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		s.loading = false
		if msg.err != nil {
			s.err = describe(msg.err)
			return s, nil
		}
		s.err = ""
		s.user = msg.user
	case sessionMsg:
		if msg.change.HasToken {
			s.loading = true
			return s, s.fetch()
		}
	case tea.KeyMsg:
		if key.Matches(msg, s.keys.Refresh) {
			s.loading = true
			return s, s.fetch()
		}
	}
	return s, nil
}

func (s *profileScreen) View() string {
	t := s.env.theme
	switch {
	case s.loading && s.user == nil:
		return t.Muted.Render("Loading profile...")
	case s.err != "":
		return styles.RenderError(s.err)
	case s.user == nil:
		return t.Muted.Render("No profile loaded.")
	}

	u := s.user
	id := session.IdentityFromRecord(u)
	row := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return t.Label.Render(label) + t.Value.Render(value)
	}

	lines := []string{
		t.Title.Render(id.Name),
		row("Email", u.Email),
		row("Phone", u.Phone),
		row("Address", formatAddress(u.Address)),
		row("Role", id.RoleLabel()),
	}
	if u.IsBlocked {
		lines = append(lines, styles.RenderWarning("This account is blocked."))
	}
	return t.CardBox.Render(strings.Join(lines, "\n"))
}

func (s *profileScreen) SetSize(int, int) {}

func (s *profileScreen) Keys() []key.Binding { return []key.Binding{s.keys.Refresh} }

func (s *profileScreen) Capturing() bool { return false }

func (s *profileScreen) Close() {}

// =============================================================================
// STATIC PAGES
// =============================================================================

// staticScreen is a page with fixed text.
type staticScreen struct {
	env   *env
	title string
	body  string
}

func newStaticScreen(e *env, title, body string) *staticScreen {
	return &staticScreen{env: e, title: title, body: body}
}

func newAboutScreen(e *env) *staticScreen {
	return newStaticScreen(e, "About", strings.Join([]string{
		"bcard is a terminal client for the business card directory.",
		"",
		"Browse cards without an account. Sign in to like cards and keep",
		"a favourites list. Business accounts manage their own cards, and",
		"administrators moderate users and cards.",
		"",
		"After three failed sign-in attempts the account is locked for a",
		"while. The login screen shows how long is left.",
	}, "\n"))
}

func newNotFoundScreen(e *env, path string) *staticScreen {
	return newStaticScreen(e, "Page not found",
		"Nothing lives at "+path+". Press esc to go back or 1 for the card list.")
}

func (s *staticScreen) Update(tea.Msg) (screen, tea.Cmd) { return s, nil }

func (s *staticScreen) View() string {
	t := s.env.theme
	return t.Title.Render(s.title) + "\n" + s.body
}

func (s *staticScreen) SetSize(int, int) {}

func (s *staticScreen) Keys() []key.Binding { return nil }

func (s *staticScreen) Capturing() bool { return false }

func (s *staticScreen) Close() {}
