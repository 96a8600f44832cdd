// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/cache"
	"github.com/jeranaias/bcard-tui/internal/guard"
	"github.com/jeranaias/bcard-tui/internal/ui/components"
	"github.com/jeranaias/bcard-tui/internal/ui/styles"
	"github.com/jeranaias/bcard-tui/internal/util"
)

// cardsMode selects which cards a list screen shows.
type cardsMode int

const (
	modeAll cardsMode = iota
	modeFavourites
	modeMine
	modeModeration
)

func (m cardsMode) title() string {
	switch m {
	case modeFavourites:
		return "Favourite Cards"
	case modeMine:
		return "My Cards"
	case modeModeration:
		return "Card Moderation"
	default:
		return "Business Cards"
	}
}

func (m cardsMode) empty() string {
	switch m {
	case modeFavourites:
		return "You haven't liked any cards yet."
	case modeMine:
		return "You haven't created any cards yet."
	default:
		return "No cards to show."
	}
}

var (
	likeKey = key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "like"),
	)
	blockCardKey = key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "block/unblock"),
	)
	searchKey = key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	)
)

// =============================================================================
// CARD LIST
// =============================================================================

type cardsScreen struct {
	env     *env
	mode    cardsMode
	keys    listKeys
	spinner spinner.Model

	loading bool
	// all is the loaded list; cards is the part matching the filter.
	all    []api.Card
	cards  []api.Card
	cursor int
	err    string

	filter    textinput.Model
	filtering bool

	offline  bool
	syncedAt time.Time

	width  int
	height int
}

func newCardsScreen(e *env, mode cardsMode) (screen, tea.Cmd) {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Purple)

	filter := textinput.New()
	filter.Prompt = "Search: "
	filter.Placeholder = "title, subtitle or city"
	filter.CharLimit = 64

	s := &cardsScreen{
		env:     e,
		mode:    mode,
		keys:    defaultListKeys(),
		spinner: sp,
		loading: true,
		filter:  filter,
	}
	return s, tea.Batch(s.spinner.Tick, s.fetch())
}

// fetch loads the list for the screen's mode.
func (s *cardsScreen) fetch() tea.Cmd {
	e, mode := s.env, s.mode
	token := e.token()
	var userID string
	if id, ok := e.identity(); ok {
		userID = id.ID
	}

	return func() tea.Msg {
		ctx := e.context()
		switch mode {
		case modeMine:
			cards, err := e.client.MyCards(ctx, token)
			return cardsLoadedMsg{mode: mode, cards: cards, err: err}
		case modeModeration:
			cards, err := e.client.ListAllCards(ctx, token)
			return cardsLoadedMsg{mode: mode, cards: cards, err: err}
		}

		listing, err := e.cards.List(ctx)
		if err != nil {
			return cardsLoadedMsg{mode: mode, err: err}
		}
		cards := listing.Cards
		if mode == modeFavourites {
			cards = likedBy(cards, userID)
		}
		return cardsLoadedMsg{
			mode:     mode,
			cards:    cards,
			offline:  listing.Offline,
			syncedAt: listing.SyncedAt,
		}
	}
}

func likedBy(cards []api.Card, userID string) []api.Card {
	out := make([]api.Card, 0, len(cards))
	for _, c := range cards {
		if userID != "" && c.LikedBy(userID) {
			out = append(out, c)
		}
	}
	return out
}

func (s *cardsScreen) selected() (api.Card, bool) {
	if s.cursor < 0 || s.cursor >= len(s.cards) {
		return api.Card{}, false
	}
	return s.cards[s.cursor], true
}

func (s *cardsScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case cardsLoadedMsg:
		if msg.mode != s.mode {
			return s, nil
		}
		s.loading = false
		if msg.err != nil {
			s.err = describe(msg.err)
			return s, nil
		}
		s.err = ""
		s.all = msg.cards
		s.offline, s.syncedAt = msg.offline, msg.syncedAt
		s.applyFilter()
		return s, nil

	case cardUpdatedMsg:
		if msg.err != nil {
			return s, notify(components.ToastError, describe(msg.err))
		}
		s.replace(*msg.card)
		return s, nil

	case sessionMsg:
		s.loading = true
		return s, s.fetch()

	case spinner.TickMsg:
		if !s.loading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *cardsScreen) handleKey(msg tea.KeyMsg) (screen, tea.Cmd) {
	if s.filtering {
		return s.handleFilterKey(msg)
	}
	if msg.Type == tea.KeyEsc && s.filter.Value() != "" {
		s.filter.SetValue("")
		s.applyFilter()
		return s, nil
	}

	switch {
	case key.Matches(msg, searchKey):
		s.filtering = true
		return s, s.filter.Focus()
	case key.Matches(msg, s.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, s.keys.Down):
		if s.cursor < len(s.cards)-1 {
			s.cursor++
		}
	case key.Matches(msg, s.keys.Refresh):
		s.loading = true
		return s, tea.Batch(s.spinner.Tick, s.fetch())
	case key.Matches(msg, s.keys.Open):
		if c, ok := s.selected(); ok {
			return s, navigate(guard.Build(guard.PathCardDetails, "id", c.ID))
		}
	case key.Matches(msg, likeKey):
		if c, ok := s.selected(); ok {
			return s, toggleLike(s.env, c.ID)
		}
	case key.Matches(msg, blockCardKey):
		if c, ok := s.selected(); ok && s.mode == modeModeration {
			return s, setCardBlocked(s.env, c.ID, !c.IsBlocked)
		}
	}
	return s, nil
}

func (s *cardsScreen) handleFilterKey(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		s.filtering = false
		s.filter.Blur()
		return s, nil
	case tea.KeyEsc:
		s.filtering = false
		s.filter.Blur()
		s.filter.SetValue("")
		s.applyFilter()
		return s, nil
	}
	var cmd tea.Cmd
	s.filter, cmd = s.filter.Update(msg)
	s.applyFilter()
	return s, cmd
}

// applyFilter recomputes the visible cards from the loaded list.
func (s *cardsScreen) applyFilter() {
	s.cards = cache.Filter(s.all, s.filter.Value())
	if s.cursor >= len(s.cards) {
		s.cursor = max(0, len(s.cards)-1)
	}
}

// replace swaps in an updated card. Unliked cards leave the favourites
// list.
func (s *cardsScreen) replace(card api.Card) {
	for i := range s.all {
		if s.all[i].ID != card.ID {
			continue
		}
		if s.mode == modeFavourites {
			if id, ok := s.env.identity(); !ok || !card.LikedBy(id.ID) {
				s.all = append(s.all[:i], s.all[i+1:]...)
				break
			}
		}
		s.all[i] = card
		break
	}
	s.applyFilter()
}

func (s *cardsScreen) View() string {
	t := s.env.theme
	var b strings.Builder
	b.WriteString(t.Title.Render(s.mode.title()))
	b.WriteString("\n")
	rows := s.height - 3

	if s.offline {
		b.WriteString(styles.RenderWarning("Offline: showing cards cached " + s.syncedAt.Local().Format("Jan 2 15:04")))
		b.WriteString("\n")
		rows--
	}
	if s.filtering || s.filter.Value() != "" {
		b.WriteString(s.filter.View())
		b.WriteString("\n")
		rows--
	}

	switch {
	case s.loading && len(s.all) == 0:
		b.WriteString(s.spinner.View() + " Loading cards...")
		return b.String()
	case s.err != "":
		b.WriteString(styles.RenderError(s.err))
		return b.String()
	case len(s.all) == 0:
		b.WriteString(t.Muted.Render(s.mode.empty()))
		return b.String()
	case len(s.cards) == 0:
		b.WriteString(t.Muted.Render(fmt.Sprintf("No cards match %q.", s.filter.Value())))
		return b.String()
	}

	var userID string
	if id, ok := s.env.identity(); ok {
		userID = id.ID
	}

	if rows < 3 {
		rows = len(s.cards)
	}
	first := 0
	if s.cursor >= rows {
		first = s.cursor - rows + 1
	}
	last := min(len(s.cards), first+rows)

	for i := first; i < last; i++ {
		c := s.cards[i]
		line := util.Truncate(c.Title, 32)
		if c.Subtitle != "" {
			line += t.Muted.Render("  " + util.Truncate(c.Subtitle, 40))
		}
		marks := fmt.Sprintf("  %d likes", len(c.Likes))
		if userID != "" && c.LikedBy(userID) {
			marks += " " + styles.StatusIndicators.Liked
		}
		if c.IsBlocked {
			marks += " " + styles.StatusIndicators.Locked + " blocked"
		}
		line += t.Muted.Render(marks)

		if i == s.cursor {
			b.WriteString(t.ListSelected.Render(line))
		} else {
			b.WriteString(t.ListItem.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(t.Muted.Render(fmt.Sprintf("%d of %d", s.cursor+1, len(s.cards))))
	return b.String()
}

func (s *cardsScreen) SetSize(width, height int) {
	s.width, s.height = width, height
}

func (s *cardsScreen) Keys() []key.Binding {
	keys := []key.Binding{s.keys.Up, s.keys.Down, s.keys.Open, likeKey, searchKey, s.keys.Refresh}
	if s.mode == modeModeration {
		keys = append(keys, blockCardKey)
	}
	return keys
}

func (s *cardsScreen) Capturing() bool { return s.filtering }

// Modal keeps esc on the screen while a filter is open or applied.
func (s *cardsScreen) Modal() bool { return s.filtering || s.filter.Value() != "" }

func (s *cardsScreen) Close() {}

// =============================================================================
// CARD ACTIONS
// =============================================================================

func toggleLike(e *env, id string) tea.Cmd {
	token := e.token()
	if token == "" {
		return tea.Batch(
			notify(components.ToastInfo, "Sign in to like cards."),
			navigate(guard.PathLogin),
		)
	}
	return func() tea.Msg {
		ctx := e.context()
		card, err := e.client.ToggleLike(ctx, token, id)
		if err == nil {
			e.cards.Remember(ctx, *card)
		}
		return cardUpdatedMsg{card: card, err: err}
	}
}

func setCardBlocked(e *env, id string, blocked bool) tea.Cmd {
	token := e.token()
	return func() tea.Msg {
		card, err := e.client.SetCardBlocked(e.context(), token, id, blocked)
		return cardUpdatedMsg{card: card, err: err}
	}
}

// =============================================================================
// CARD DETAILS
// =============================================================================

type cardDetailScreen struct {
	env     *env
	id      string
	keys    listKeys
	loading bool
	card    *api.Card
	err     string
}

func newCardDetailScreen(e *env, id string) (screen, tea.Cmd) {
	s := &cardDetailScreen{env: e, id: id, keys: defaultListKeys(), loading: true}
	return s, s.fetch()
}

func (s *cardDetailScreen) fetch() tea.Cmd {
	e, id := s.env, s.id
	return func() tea.Msg {
		card, err := e.client.GetCard(e.context(), id)
		return cardLoadedMsg{card: card, err: err}
	}
}

func (s *cardDetailScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case cardLoadedMsg:
		s.loading = false
		if msg.err != nil {
			s.err = describe(msg.err)
			return s, nil
		}
		s.err = ""
		s.card = msg.card
	case cardUpdatedMsg:
		if msg.err != nil {
			return s, notify(components.ToastError, describe(msg.err))
		}
		if msg.card != nil && msg.card.ID == s.id {
			s.card = msg.card
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.keys.Refresh):
			s.loading = true
			return s, s.fetch()
		case key.Matches(msg, likeKey):
			if s.card != nil {
				return s, toggleLike(s.env, s.card.ID)
			}
		}
	}
	return s, nil
}

func (s *cardDetailScreen) View() string {
	t := s.env.theme
	switch {
	case s.loading && s.card == nil:
		return t.Muted.Render("Loading card...")
	case s.err != "":
		return styles.RenderError(s.err)
	case s.card == nil:
		return t.Muted.Render("Card not found.")
	}

	c := s.card
	row := func(label, value string) string {
		if value == "" {
			return ""
		}
		return t.Label.Render(label) + t.Value.Render(value) + "\n"
	}

	var body strings.Builder
	body.WriteString(t.Title.Render(c.Title))
	body.WriteString("\n")
	if c.Subtitle != "" {
		body.WriteString(t.Subtitle.Render(c.Subtitle) + "\n\n")
	}
	if c.Description != "" {
		body.WriteString(c.Description + "\n\n")
	}
	body.WriteString(row("Phone", c.Phone))
	body.WriteString(row("Email", c.Email))
	body.WriteString(row("Web", c.Web))
	body.WriteString(row("Address", formatAddress(c.Address)))
	body.WriteString(row("Business #", string(c.BizNumber)))

	likes := fmt.Sprintf("%d", len(c.Likes))
	if id, ok := s.env.identity(); ok && c.LikedBy(id.ID) {
		likes += " " + styles.StatusIndicators.Liked
	}
	body.WriteString(row("Likes", likes))
	if c.IsBlocked {
		body.WriteString(styles.RenderWarning("This card is blocked by an administrator."))
	}

	return t.CardBox.Render(strings.TrimRight(body.String(), "\n"))
}

func (s *cardDetailScreen) SetSize(int, int) {}

func (s *cardDetailScreen) Keys() []key.Binding {
	return []key.Binding{likeKey, s.keys.Refresh}
}

func (s *cardDetailScreen) Capturing() bool { return false }

func (s *cardDetailScreen) Close() {}

func formatAddress(a api.Address) string {
	parts := make([]string, 0, 5)
	street := strings.TrimSpace(a.Street + " " + string(a.HouseNumber))
	for _, p := range []string{street, a.City, a.State, string(a.Zip), a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
