// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/cache"
	"github.com/jeranaias/bcard-tui/internal/config"
	"github.com/jeranaias/bcard-tui/internal/guard"
	"github.com/jeranaias/bcard-tui/internal/session"
	"github.com/jeranaias/bcard-tui/internal/ui/components"
	"github.com/jeranaias/bcard-tui/internal/ui/styles"
)

// eventBuffer bounds the external event channel. Senders never block; a
// full buffer drops the event, and every consumer re-reads live state when
// the next one arrives.
const eventBuffer = 64

// Notices shown when the server ends the session.
const (
	NoticeBlocked = "Your account was blocked by an administrator."
	NoticeExpired = "Your session has expired. Please sign in again."
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps are the collaborators the UI needs. Client and Store are required.
type Deps struct {
	Client *api.Client
	Store  *session.Store
	Config *config.Config
	Logger *zap.Logger
	Theme  *styles.Theme
	// Cards reads the public directory. Nil reads it straight from Client.
	Cards *cache.Directory
}

// env is what screens share.
type env struct {
	client *api.Client
	cards  *cache.Directory
	store  *session.Store
	cfg    *config.Config
	logger *zap.Logger
	theme  *styles.Theme
	events chan tea.Msg
}

// post delivers an external event without blocking the caller.
func (e *env) post(msg tea.Msg) {
	select {
	case e.events <- msg:
	default:
		e.logger.Debug("ui event dropped", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// token returns the current session token.
func (e *env) token() string {
	return e.store.Token()
}

// identity returns the signed-in identity, if any.
func (e *env) identity() (session.Identity, bool) {
	return e.store.CurrentIdentity()
}

func (e *env) context() context.Context {
	return context.Background()
}

// screen is one page of the UI.
type screen interface {
	Update(msg tea.Msg) (screen, tea.Cmd)
	View() string
	SetSize(width, height int)
	// Keys are the screen's bindings for the status bar.
	Keys() []key.Binding
	// Capturing reports that the screen is taking text input, so global
	// single-key shortcuts are passed through instead.
	Capturing() bool
	Close()
}

// modal is implemented by screens that handle esc themselves while a
// prompt is open.
type modal interface {
	Modal() bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	env   *env
	guard *guard.Guard
	keys  KeyMap
	help  help.Model

	screen  screen
	match   guard.Match
	path    string
	start   string
	history []string

	toast *components.Toast

	unsubscribe func()

	width  int
	height int
}

// New creates the root model. start is the first path to open; "" means
// home.
func New(deps Deps, start string) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Theme == nil {
		deps.Theme = styles.NewTheme(deps.Config.UI.Theme)
	}
	if start == "" {
		start = guard.PathHome
	}
	if deps.Cards == nil {
		deps.Cards = cache.NewDirectory(deps.Client, nil, deps.Logger)
	}

	e := &env{
		client: deps.Client,
		cards:  deps.Cards,
		store:  deps.Store,
		cfg:    deps.Config,
		logger: deps.Logger.Named("ui"),
		theme:  deps.Theme,
		events: make(chan tea.Msg, eventBuffer),
	}

	m := Model{
		env:   e,
		guard: guard.New(deps.Store),
		keys:  DefaultKeyMap(),
		help:  help.New(),
		start: start,
	}
	m.unsubscribe = deps.Store.OnChange(func(c session.Change) {
		e.post(sessionMsg{change: c})
	})
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listen(), navigate(m.start))
}

// Close releases the session subscription and the current screen. Call it
// after the program exits.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.screen != nil {
		m.screen.Close()
	}
}

// Path returns the path of the current screen.
func (m Model) Path() string {
	return m.path
}

// listen waits for the next external event.
func (m Model) listen() tea.Cmd {
	ch := m.env.events
	return func() tea.Msg {
		return eventMsg{inner: <-ch}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.env.theme.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		if m.screen != nil {
			m.screen.SetSize(msg.Width, m.bodyHeight())
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		next, cmd := m.Update(msg.inner)
		return next, tea.Batch(cmd, m.listen())

	case navigateMsg:
		return m.open(msg.path, true)

	case sessionMsg:
		return m.handleSession(msg)

	case toastMsg:
		t := msg.toast
		m.toast = &t
		return m, t.DismissCmd()

	case components.ToastDismissMsg:
		if m.toast != nil && m.toast.ID == msg.ID {
			m.toast = nil
		}
		return m, nil
	}

	return m.forward(msg)
}

func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.screen == nil {
		return m, nil
	}
	next, cmd := m.screen.Update(msg)
	m.screen = next
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Back) {
		if md, ok := m.screen.(modal); ok && md.Modal() {
			return m.forward(msg)
		}
		return m.back()
	}
	if m.screen != nil && m.screen.Capturing() {
		return m.forward(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cards):
		return m.open(guard.PathHome, true)
	case key.Matches(msg, m.keys.Favourites):
		return m.open(guard.PathFavourites, true)
	case key.Matches(msg, m.keys.MyCards):
		return m.open(guard.PathMyCards, true)
	case key.Matches(msg, m.keys.Profile):
		return m.open(guard.PathProfile, true)
	case key.Matches(msg, m.keys.Admin):
		return m.open(guard.PathAdmin, true)
	case key.Matches(msg, m.keys.About):
		return m.open(guard.PathAbout, true)
	case key.Matches(msg, m.keys.Login):
		return m.open(guard.PathLogin, true)
	case key.Matches(msg, m.keys.Logout):
		return m.logout()
	}
	return m.forward(msg)
}

// =============================================================================
// NAVIGATION
// =============================================================================

// open runs path through the guard and shows whatever it decides.
func (m Model) open(path string, record bool) (tea.Model, tea.Cmd) {
	match, d, ok := m.guard.Check(path)
	if !ok {
		m.env.logger.Info("unknown route", zap.String("path", path))
		return m.show(path, guard.Match{Path: path}, newNotFoundScreen(m.env, path), nil, record)
	}

	switch d.Verdict {
	case guard.Allow:
		s, cmd := m.build(match, "")
		return m.show(match.Path, match, s, cmd, record)

	case guard.RedirectToLogin:
		m.env.logger.Info("redirect to login",
			zap.String("from", d.From),
			zap.String("requirement", match.Route.Requirement.String()))
		login, _ := guard.Lookup(guard.PathLogin)
		s, cmd := m.build(login, d.From)
		return m.show(login.Path, login, s,
			tea.Batch(cmd, notify(components.ToastInfo, "Sign in to open "+match.Route.Title+".")), record)

	default:
		m.env.logger.Info("redirect to home",
			zap.String("path", match.Path),
			zap.String("requirement", match.Route.Requirement.String()))
		home, _ := guard.Lookup(guard.PathHome)
		s, cmd := m.build(home, "")
		return m.show(home.Path, home, s,
			tea.Batch(cmd, notify(components.ToastWarning, "You don't have access to "+match.Route.Title+".")), record)
	}
}

func (m Model) show(path string, match guard.Match, s screen, cmd tea.Cmd, record bool) (tea.Model, tea.Cmd) {
	if m.screen != nil {
		m.screen.Close()
	}
	if record && m.path != "" && m.path != path {
		m.history = append(m.history, m.path)
	}
	m.screen = s
	m.match = match
	m.path = path
	if m.width > 0 {
		s.SetSize(m.width, m.bodyHeight())
	}
	return m, cmd
}

func (m Model) back() (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		if m.path == guard.PathHome {
			return m, nil
		}
		return m.open(guard.PathHome, false)
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	return m.open(prev, false)
}

// build creates the screen for an allowed route.
func (m Model) build(match guard.Match, from string) (screen, tea.Cmd) {
	e := m.env
	switch match.Route.Pattern {
	case guard.PathHome:
		return newCardsScreen(e, modeAll)
	case guard.PathFavourites:
		return newCardsScreen(e, modeFavourites)
	case guard.PathMyCards:
		return newCardsScreen(e, modeMine)
	case guard.PathAdminCards:
		return newCardsScreen(e, modeModeration)
	case guard.PathCardDetails:
		return newCardDetailScreen(e, match.Param("id"))
	case guard.PathLogin:
		return newLoginScreen(e, from)
	case guard.PathProfile:
		return newProfileScreen(e)
	case guard.PathAdmin:
		return newDashboardScreen(e)
	case guard.PathAdminUsers:
		return newUsersScreen(e)
	case guard.PathAbout:
		return newAboutScreen(e), nil
	default:
		return newStaticScreen(e, match.Route.Title,
			"This page is only available in the web client."), nil
	}
}

// recheck re-evaluates the current path after the session changed.
func (m Model) recheck() (tea.Model, tea.Cmd) {
	if m.path == "" {
		return m, nil
	}
	_, d, ok := m.guard.Check(m.path)
	if !ok || d.Verdict == guard.Allow {
		return m, nil
	}
	return m.open(m.path, false)
}

// =============================================================================
// SESSION
// =============================================================================

func (m Model) handleSession(msg sessionMsg) (tea.Model, tea.Cmd) {
	var notice tea.Cmd
	switch msg.change.Reason {
	case session.ReasonBlocked:
		notice = notify(components.ToastError, NoticeBlocked)
	case session.ReasonRejected:
		notice = notify(components.ToastWarning, NoticeExpired)
	}

	if msg.change.Reason == session.ReasonBlocked && m.match.Route.Pattern != guard.PathLogin {
		login, _ := guard.Lookup(guard.PathLogin)
		s, cmd := m.build(login, m.path)
		next, _ := m.show(login.Path, login, s, nil, true)
		return next, tea.Batch(cmd, notice)
	}

	if _, d, ok := m.guard.Check(m.path); ok && d.Verdict != guard.Allow {
		next, cmd := m.open(m.path, false)
		return next, tea.Batch(cmd, notice)
	}

	// Still allowed; let the screen refresh for the new identity.
	next, cmd := m.forward(msg)
	return next, tea.Batch(cmd, notice)
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if !m.env.store.HasToken() {
		return m, nil
	}
	m.env.store.ClearToken()
	next, cmd := m.recheck()
	return next, tea.Batch(cmd, notify(components.ToastSuccess, "Signed out."))
}

// describe turns an API error into one line for the user.
func describe(err error) string {
	var netErr *api.NetworkError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &netErr):
		return "Cannot reach the server. Check your connection and try again."
	case errors.Is(err, api.ErrBlocked):
		return NoticeBlocked
	case errors.Is(err, api.ErrUnauthorized):
		return NoticeExpired
	case errors.Is(err, api.ErrForbidden):
		return "You don't have permission to do that."
	case errors.Is(err, api.ErrNotFound):
		return "Not found."
	default:
		return err.Error()
	}
}
