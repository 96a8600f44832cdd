// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/guard"
	"github.com/jeranaias/bcard-tui/internal/login"
	"github.com/jeranaias/bcard-tui/internal/ui/components"
	"github.com/jeranaias/bcard-tui/internal/ui/styles"
)

const (
	focusEmail = iota
	focusPassword
	focusSubmit
	focusCount
)

type loginKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Retry  key.Binding
	Clear  key.Binding
}

func defaultLoginKeys() loginKeys {
	return loginKeys{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "sign in"),
		),
		Retry: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "retry"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "clear"),
		),
	}
}

// =============================================================================
// LOGIN SCREEN
// =============================================================================

type loginScreen struct {
	env  *env
	from string
	keys loginKeys

	ctrl  *login.Controller
	state login.State

	email    textinput.Model
	password textinput.Model
	focus    int

	banner  components.LockBanner
	ticking bool
	pending bool
	err     string

	width int
}

func newLoginScreen(e *env, from string) (screen, tea.Cmd) {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "> "
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "> "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	password.CharLimit = 128

	s := &loginScreen{
		env:      e,
		from:     from,
		keys:     defaultLoginKeys(),
		email:    email,
		password: password,
		banner:   components.NewLockBanner(),
	}
	s.ctrl = s.newController()
	s.sync()
	return s, textinput.Blink
}

func (s *loginScreen) newController() *login.Controller {
	e := s.env
	return login.NewController(e.client, e.store,
		login.WithLogger(e.logger),
		login.WithMaxAttempts(e.cfg.Login.MaxAttempts),
		login.WithCheckInterval(e.cfg.Login.CheckInterval()),
		login.WithOnChange(func(st login.State) {
			e.post(loginStateMsg{state: st})
		}),
	)
}

// sync copies the controller's state into the view.
func (s *loginScreen) sync() {
	s.state = s.ctrl.State()
	s.banner.Sync(s.state, s.ctrl.TimeRemaining())
}

// countdown starts the banner redraw loop for a timed lock.
func (s *loginScreen) countdown() tea.Cmd {
	if s.ticking || !s.state.Blocked || s.state.Indefinite() {
		return nil
	}
	s.ticking = true
	return components.LockTickCmd()
}

func (s *loginScreen) canSubmit() bool {
	return !s.pending && s.state.CanSubmit()
}

func (s *loginScreen) submit() tea.Cmd {
	if !s.canSubmit() {
		if s.state.Blocked {
			s.err = s.state.LockMessage()
		}
		return nil
	}
	creds := api.Credentials{
		Email:    strings.TrimSpace(s.email.Value()),
		Password: s.password.Value(),
	}
	if creds.Email == "" || creds.Password == "" {
		s.err = "Enter your email and password."
		return nil
	}

	s.err = ""
	s.pending = true
	ctrl, ctx := s.ctrl, s.env.context()
	return func() tea.Msg {
		outcome, err := ctrl.Submit(ctx, creds)
		return loginResultMsg{ctrl: ctrl, outcome: outcome, err: err}
	}
}

func (s *loginScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		return s, s.handleResult(msg)

	case loginStateMsg:
		s.sync()
		return s, s.countdown()

	case components.LockTickMsg:
		s.sync()
		if s.state.Blocked && !s.state.Indefinite() {
			return s, components.LockTickCmd()
		}
		s.ticking = false
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	return s, s.updateInputs(msg)
}

func (s *loginScreen) handleResult(msg loginResultMsg) tea.Cmd {
	if msg.ctrl != s.ctrl {
		// From a form that was closed before its answer came back.
		return nil
	}
	s.pending = false
	s.sync()

	switch msg.outcome {
	case login.OutcomeAuthenticated:
		s.password.Reset()
		if !s.env.store.HasToken() {
			// The token was accepted but the profile fetch failed, so the
			// store dropped it. Start over with a fresh controller.
			s.ctrl.Close()
			s.ctrl = s.newController()
			s.sync()
			s.err = "Signed in, but your profile could not be loaded. Please try again."
			return nil
		}
		target := s.from
		if target == "" || target == guard.PathLogin {
			target = guard.PathHome
		}
		welcome := "Signed in."
		if id, ok := s.env.identity(); ok {
			welcome = "Welcome back, " + id.Name + "."
		}
		return tea.Batch(navigate(target), notify(components.ToastSuccess, welcome))

	case login.OutcomeRejected:
		s.password.Reset()
		s.err = "Invalid email or password."
		return nil

	case login.OutcomeLocked:
		s.password.Reset()
		s.err = ""
		return s.countdown()

	case login.OutcomeFailed:
		s.err = describe(msg.err)
		return nil
	}

	if errors.Is(msg.err, login.ErrLocked) {
		s.err = s.state.LockMessage()
	}
	return nil
}

func (s *loginScreen) handleKey(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch {
	case key.Matches(msg, s.keys.Retry):
		if s.ctrl.Retry() {
			s.sync()
			s.err = ""
		}
		return s, nil

	case key.Matches(msg, s.keys.Clear):
		s.email.Reset()
		s.password.Reset()
		s.err = ""
		s.ctrl.Reset()
		s.sync()
		s.setFocus(focusEmail)
		return s, nil

	case key.Matches(msg, s.keys.Next):
		s.setFocus((s.focus + 1) % focusCount)
		return s, nil

	case key.Matches(msg, s.keys.Prev):
		s.setFocus((s.focus + focusCount - 1) % focusCount)
		return s, nil

	case key.Matches(msg, s.keys.Submit):
		if s.focus == focusEmail {
			s.setFocus(focusPassword)
			return s, nil
		}
		return s, s.submit()
	}

	return s, s.updateInputs(msg)
}

func (s *loginScreen) setFocus(f int) {
	s.focus = f
	s.email.Blur()
	s.password.Blur()
	switch f {
	case focusEmail:
		s.email.Focus()
	case focusPassword:
		s.password.Focus()
	}
}

func (s *loginScreen) updateInputs(msg tea.Msg) tea.Cmd {
	var c1, c2 tea.Cmd
	s.email, c1 = s.email.Update(msg)
	s.password, c2 = s.password.Update(msg)
	return tea.Batch(c1, c2)
}

func (s *loginScreen) View() string {
	t := s.env.theme

	label := func(text string, focused bool) string {
		if focused {
			return t.InputFocused.Render(text)
		}
		return t.InputLabel.Render(text)
	}

	var button string
	switch {
	case s.pending || s.state.Submitting:
		button = t.ButtonDisabled.Render("Signing in...")
	case !s.state.CanSubmit():
		button = t.ButtonDisabled.Render("Sign in")
	case s.focus == focusSubmit:
		button = t.ButtonFocused.Render("Sign in")
	default:
		button = t.Button.Render("Sign in")
	}

	attempts := fmt.Sprintf("Attempts remaining: %d", s.state.Remaining)
	if s.state.Remaining <= 1 {
		attempts = t.AttemptsLow.Render(attempts)
	} else {
		attempts = t.Attempts.Render(attempts)
	}

	parts := []string{
		t.Title.Render("Sign in"),
		label("Email", s.focus == focusEmail),
		s.email.View(),
		"",
		label("Password", s.focus == focusPassword),
		s.password.View(),
		"",
		button + "  " + attempts,
	}
	if s.state.Warning != "" {
		parts = append(parts, "", t.WarningBanner.Render(styles.StatusIndicators.Warning+" "+s.state.Warning))
	}
	if s.err != "" {
		parts = append(parts, "", styles.RenderError(s.err))
	}

	form := t.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	if banner := s.banner.View(); banner != "" {
		return lipgloss.JoinVertical(lipgloss.Left, banner, form)
	}
	return form
}

func (s *loginScreen) SetSize(width, _ int) {
	s.width = width
	s.banner.SetWidth(width - 2)
	w := min(48, max(16, width-12))
	s.email.Width = w
	s.password.Width = w
}

func (s *loginScreen) Keys() []key.Binding {
	keys := []key.Binding{s.keys.Next, s.keys.Submit, s.keys.Clear}
	if s.state.Blocked && s.state.Indefinite() {
		keys = append(keys, s.keys.Retry)
	}
	return keys
}

func (s *loginScreen) Capturing() bool { return true }

func (s *loginScreen) Close() {
	s.ctrl.Close()
}
