// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/bcard-tui/internal/guard"
	"github.com/jeranaias/bcard-tui/internal/util"
)

// chromeHeight is the header, tab row and status bar.
const chromeHeight = 4

type tab struct {
	path  string
	label string
}

var tabs = []tab{
	{guard.PathHome, "1 Cards"},
	{guard.PathFavourites, "2 Favourites"},
	{guard.PathMyCards, "3 My Cards"},
	{guard.PathProfile, "4 Profile"},
	{guard.PathAdmin, "5 Admin"},
	{guard.PathAbout, "6 About"},
}

func (m Model) bodyHeight() int {
	h := m.height - chromeHeight
	if h < 1 {
		return 1
	}
	return h
}

// View implements tea.Model.
func (m Model) View() string {
	t := m.env.theme

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if !m.env.cfg.UI.Compact {
		b.WriteString(m.renderTabs())
		b.WriteString("\n")
	}

	body := "Loading..."
	if m.screen != nil {
		body = m.screen.View()
	}
	b.WriteString(t.App.Render(body))
	b.WriteString("\n")

	if m.toast != nil {
		b.WriteString(t.App.Render(m.toast.View()))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	t := m.env.theme

	brand := t.HeaderBrand.Render("bcard")
	user := t.Muted.Render("not signed in")
	if id, ok := m.env.identity(); ok {
		user = t.HeaderUser.Render(util.Truncate(id.Name, 32) + " (" + id.RoleLabel() + ")")
	} else if m.env.store.HasToken() {
		user = t.Muted.Render("signing in...")
	}

	gap := m.width - lipgloss.Width(brand) - lipgloss.Width(user) - 2
	if gap < 1 {
		gap = 1
	}
	return t.Header.Render(brand + strings.Repeat(" ", gap) + user)
}

// renderTabs shows only the tabs the guard would let through.
func (m Model) renderTabs() string {
	t := m.env.theme
	parts := make([]string, 0, len(tabs))
	for _, tb := range tabs {
		_, d, ok := m.guard.Check(tb.path)
		if !ok || d.Verdict != guard.Allow {
			continue
		}
		style := t.Tab
		if m.activeTab() == tb.path {
			style = t.TabActive
		}
		parts = append(parts, style.Render(tb.label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// activeTab maps the current route onto its tab.
func (m Model) activeTab() string {
	switch m.match.Route.Pattern {
	case guard.PathCardDetails:
		return guard.PathHome
	case guard.PathAdminUsers, guard.PathAdminCards:
		return guard.PathAdmin
	case guard.PathEditProfile:
		return guard.PathProfile
	case guard.PathSandbox, guard.PathEditCard:
		return guard.PathMyCards
	}
	return m.match.Route.Pattern
}

func (m Model) renderStatusBar() string {
	var bindings []key.Binding
	if m.screen != nil {
		bindings = append(bindings, m.screen.Keys()...)
	}
	if m.screen == nil || !m.screen.Capturing() {
		bindings = append(bindings, m.keys.ShortHelp()...)
	} else {
		bindings = append(bindings, m.keys.Back)
	}
	return m.env.theme.StatusBar.Render(m.help.ShortHelpView(bindings))
}
