// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import "github.com/charmbracelet/bubbles/key"

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap holds the global bindings. Screens add their own.
type KeyMap struct {
	Quit       key.Binding
	Back       key.Binding
	Cards      key.Binding
	Favourites key.Binding
	MyCards    key.Binding
	Profile    key.Binding
	Admin      key.Binding
	About      key.Binding
	Login      key.Binding
	Logout     key.Binding
}

// DefaultKeyMap returns the default global bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Cards: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "cards"),
		),
		Favourites: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "favourites"),
		),
		MyCards: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "my cards"),
		),
		Profile: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "profile"),
		),
		Admin: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "admin"),
		),
		About: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "about"),
		),
		Login: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "sign in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "sign out"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cards, k.Favourites, k.MyCards, k.Profile, k.Admin, k.About, k.Back, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Cards, k.Favourites, k.MyCards, k.Profile, k.Admin, k.About},
		{k.Login, k.Logout, k.Back, k.Quit},
	}
}

// listKeys are shared by the list screens.
type listKeys struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Refresh key.Binding
}

func defaultListKeys() listKeys {
	return listKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}
