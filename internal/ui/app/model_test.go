// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/api/apitest"
	"github.com/jeranaias/bcard-tui/internal/cache"
	"github.com/jeranaias/bcard-tui/internal/config"
	"github.com/jeranaias/bcard-tui/internal/guard"
	"github.com/jeranaias/bcard-tui/internal/login"
	"github.com/jeranaias/bcard-tui/internal/session"
	"github.com/jeranaias/bcard-tui/internal/ui/components"
	"github.com/jeranaias/bcard-tui/internal/ui/styles"
)

func boolPtr(b bool) *bool { return &b }

type fixture struct {
	srv    *apitest.Server
	client *api.Client
	store  *session.Store
	model  Model

	admin api.User
	biz   api.User
	plain api.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{srv: apitest.New(t)}
	f.client = api.NewClient(f.srv.URL, api.WithUnauthorizedHandler(func(err error) {
		f.store.HandleRejected(err)
	}))
	f.store = session.NewStore(f.client, &session.MemoryTokenStore{})

	f.admin = f.srv.AddUser(api.User{Email: "admin@example.com", Name: api.Name{First: "Ada", Last: "Admin"}, IsAdmin: true}, "admin-pw")
	f.biz = f.srv.AddUser(api.User{Email: "biz@example.com", Name: api.Name{First: "Dana", Last: "Levi"}, IsBusiness: boolPtr(true)}, "biz-pw")
	f.plain = f.srv.AddUser(api.User{Email: "plain@example.com", Name: api.Name{First: "Pat", Last: "Plain"}}, "plain-pw")

	f.srv.AddCard(api.Card{Title: "Levi Plumbing", Subtitle: "Pipes", UserID: f.biz.ID, Likes: []string{f.plain.ID}})
	f.srv.AddCard(api.Card{Title: "Levi Bakery", Subtitle: "Bread", UserID: f.biz.ID})

	cfg := config.Default()
	f.model = New(Deps{
		Client: f.client,
		Store:  f.store,
		Config: cfg,
		Theme:  styles.NewTheme("dark"),
	}, "")
	t.Cleanup(f.model.Close)
	return f
}

func (f *fixture) signIn(t *testing.T, u api.User) {
	t.Helper()
	f.store.SetToken(context.Background(), f.srv.Token(u.ID))
	_, ok := f.store.CurrentIdentity()
	require.True(t, ok)
}

// send feeds msg to the model and returns the command it produced.
func (f *fixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

// drain runs cmd and any batched children, collecting their messages.
// Commands that do not return promptly (ticks, blinks) are dropped.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(300 * time.Millisecond):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle feeds back every message cmd produces, and everything those
// produce in turn. Navigation and toasts are returned to the caller instead.
func (f *fixture) settle(cmd tea.Cmd) []tea.Msg {
	var skipped []tea.Msg
	for _, msg := range drain(cmd) {
		switch msg.(type) {
		case navigateMsg, toastMsg:
			skipped = append(skipped, msg)
		case spinner.TickMsg:
		default:
			skipped = append(skipped, f.settle(f.send(msg))...)
		}
	}
	return skipped
}

// pending empties the external event channel without blocking.
func (f *fixture) pending() []tea.Msg {
	var out []tea.Msg
	for {
		select {
		case msg := <-f.model.env.events:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func toasts(msgs []tea.Msg) []string {
	var out []string
	for _, m := range msgs {
		if t, ok := m.(toastMsg); ok {
			out = append(out, t.toast.Message)
		}
	}
	return out
}

func navigations(msgs []tea.Msg) []string {
	var out []string
	for _, m := range msgs {
		if n, ok := m.(navigateMsg); ok {
			out = append(out, n.path)
		}
	}
	return out
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// NAVIGATION
// =============================================================================

func TestNavigate_PublicRouteOpens(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathHome}))

	require.Equal(t, guard.PathHome, f.model.Path())
	s, ok := f.model.screen.(*cardsScreen)
	require.True(t, ok)
	require.Len(t, s.cards, 2)
	require.Contains(t, f.model.View(), "Levi Plumbing")
}

func TestNavigate_LoggedOutGoesToLoginWithFrom(t *testing.T) {
	f := newFixture(t)
	msgs := f.settle(f.send(navigateMsg{path: guard.PathFavourites}))

	require.Equal(t, guard.PathLogin, f.model.Path())
	s, ok := f.model.screen.(*loginScreen)
	require.True(t, ok)
	require.Equal(t, guard.PathFavourites, s.from)
	require.Equal(t, []string{"Sign in to open Favourites."}, toasts(msgs))
}

func TestNavigate_MissingRoleGoesHome(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.plain)

	for _, path := range []string{guard.PathMyCards, guard.PathAdmin, guard.PathAdminUsers} {
		msgs := f.settle(f.send(navigateMsg{path: path}))
		require.Equal(t, guard.PathHome, f.model.Path(), path)
		require.Len(t, toasts(msgs), 1, path)
	}
}

func TestNavigate_UnknownPathShowsNotFound(t *testing.T) {
	f := newFixture(t)
	f.send(navigateMsg{path: "/nope"})

	require.Equal(t, "/nope", f.model.Path())
	require.Contains(t, f.model.View(), "Page not found")
}

func TestNavigate_BackReturnsToPrevious(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathHome}))
	f.send(navigateMsg{path: guard.PathAbout})
	require.Equal(t, guard.PathAbout, f.model.Path())

	f.settle(f.send(keyMsg("esc")))
	require.Equal(t, guard.PathHome, f.model.Path())
}

func TestTabs_FollowRoles(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathHome}))
	require.NotContains(t, f.model.View(), "2 Favourites")

	f.signIn(t, f.plain)
	view := f.model.View()
	require.Contains(t, view, "2 Favourites")
	require.NotContains(t, view, "3 My Cards")
	require.NotContains(t, view, "5 Admin")
	require.Contains(t, view, "Pat Plain (user)")

	f.signIn(t, f.admin)
	require.Contains(t, f.model.View(), "5 Admin")
}

func TestGlobalKeys_IgnoredWhileTyping(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathLogin}))

	cmd := f.send(keyMsg("q"))
	for _, msg := range drain(cmd) {
		_, quit := msg.(tea.QuitMsg)
		require.False(t, quit)
	}
	s := f.model.screen.(*loginScreen)
	require.Equal(t, "q", s.email.Value())
	require.Equal(t, guard.PathLogin, f.model.Path())
}

// =============================================================================
// SESSION CHANGES
// =============================================================================

func TestSessionChange_SignOutLeavesProtectedRoute(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.plain)
	f.settle(f.send(navigateMsg{path: guard.PathProfile}))
	require.Equal(t, guard.PathProfile, f.model.Path())
	require.Contains(t, f.model.View(), "plain@example.com")

	f.store.ClearToken()
	f.settle(f.send(sessionMsg{change: session.Change{Reason: session.ReasonSignedOut}}))

	require.Equal(t, guard.PathLogin, f.model.Path())
	require.Equal(t, guard.PathProfile, f.model.screen.(*loginScreen).from)
}

func TestSessionChange_PublicRouteStays(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.plain)
	f.settle(f.send(navigateMsg{path: guard.PathAbout}))

	f.store.ClearToken()
	f.settle(f.send(sessionMsg{change: session.Change{Reason: session.ReasonSignedOut}}))
	require.Equal(t, guard.PathAbout, f.model.Path())
}

func TestSessionChange_BlockedRoutesToLoginWithNotice(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.biz)
	f.settle(f.send(navigateMsg{path: guard.PathAbout}))

	f.store.HandleRejected(fmt.Errorf("wrapped: %w", api.ErrBlocked))
	msgs := f.settle(f.send(sessionMsg{change: session.Change{Reason: session.ReasonBlocked}}))

	require.Equal(t, guard.PathLogin, f.model.Path())
	require.Contains(t, toasts(msgs), NoticeBlocked)
}

func TestSessionChange_ServerBlockDuringFetch(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.biz)
	f.settle(f.send(navigateMsg{path: guard.PathHome}))

	f.srv.SetBlocked(f.biz.ID, true)
	f.settle(f.send(navigateMsg{path: guard.PathMyCards}))

	// The 403 went through the client's unauthorized handler.
	require.False(t, f.store.HasToken())

	var blocked *sessionMsg
	for _, msg := range f.pending() {
		if sm, ok := msg.(sessionMsg); ok && sm.change.Reason == session.ReasonBlocked {
			blocked = &sm
		}
	}
	require.NotNil(t, blocked)

	msgs := f.settle(f.send(*blocked))
	require.Equal(t, guard.PathLogin, f.model.Path())
	require.Contains(t, toasts(msgs), NoticeBlocked)
}

func TestLogoutKey(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.plain)
	f.settle(f.send(navigateMsg{path: guard.PathFavourites}))

	msgs := f.settle(f.send(keyMsg("O")))
	require.False(t, f.store.HasToken())
	require.Equal(t, guard.PathLogin, f.model.Path())
	require.Contains(t, toasts(msgs), "Signed out.")
}

// =============================================================================
// LOGIN SCREEN
// =============================================================================

func (f *fixture) loginScreen(t *testing.T) *loginScreen {
	t.Helper()
	s, ok := f.model.screen.(*loginScreen)
	require.True(t, ok, "current screen is %T", f.model.screen)
	return s
}

func (f *fixture) submit(t *testing.T, email, password string) []tea.Msg {
	t.Helper()
	s := f.loginScreen(t)
	s.email.SetValue(email)
	s.password.SetValue(password)
	s.setFocus(focusPassword)
	return f.settle(f.send(keyMsg("enter")))
}

func TestLogin_SuccessReturnsToFrom(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathFavourites}))

	msgs := f.submit(t, "plain@example.com", "plain-pw")
	require.Equal(t, []string{guard.PathFavourites}, navigations(msgs))
	require.Contains(t, toasts(msgs), "Welcome back, Pat Plain.")

	f.settle(f.send(navigateMsg{path: guard.PathFavourites}))
	require.Equal(t, guard.PathFavourites, f.model.Path())
	s := f.model.screen.(*cardsScreen)
	require.Len(t, s.cards, 1)
	require.Equal(t, "Levi Plumbing", s.cards[0].Title)
}

func TestLogin_AttemptsAndLockout(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathLogin}))

	f.submit(t, "plain@example.com", "wrong")
	s := f.loginScreen(t)
	require.Equal(t, 2, s.state.Remaining)
	require.Equal(t, login.PhaseReady, s.state.Phase)
	require.Equal(t, "Invalid email or password.", s.err)
	require.Empty(t, s.password.Value())

	f.submit(t, "plain@example.com", "wrong")
	require.Equal(t, 1, s.state.Remaining)
	require.Equal(t, login.PhaseWarned, s.state.Phase)
	require.Contains(t, f.model.View(), login.MsgLastAttempt)

	f.submit(t, "plain@example.com", "wrong")
	require.Equal(t, login.PhaseLocked, s.state.Phase)
	require.True(t, s.banner.IsVisible())
	require.False(t, s.canSubmit())
	require.True(t, s.ticking)
	require.Contains(t, f.model.View(), "Account locked")

	calls := f.srv.LoginCalls()
	f.submit(t, "plain@example.com", "plain-pw")
	require.Equal(t, calls, f.srv.LoginCalls())
	require.Equal(t, login.MsgLockedTimed, s.err)
}

func TestLogin_ClearKeepsAttempts(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathLogin}))
	f.submit(t, "plain@example.com", "wrong")
	f.submit(t, "plain@example.com", "wrong")

	s := f.loginScreen(t)
	require.NotEmpty(t, s.state.Warning)

	f.send(keyMsg("ctrl+x"))
	require.Empty(t, s.email.Value())
	require.Empty(t, s.state.Warning)
	require.Equal(t, 1, s.state.Remaining)
}

func TestLogin_AdminBlockNeedsRetry(t *testing.T) {
	f := newFixture(t)
	f.srv.SetBlocked(f.plain.ID, true)
	f.settle(f.send(navigateMsg{path: guard.PathLogin}))

	f.submit(t, "plain@example.com", "plain-pw")
	s := f.loginScreen(t)
	require.True(t, s.state.Indefinite())
	require.False(t, s.ticking)
	require.Contains(t, f.model.View(), "ctrl+r")

	calls := f.srv.LoginCalls()
	f.submit(t, "plain@example.com", "plain-pw")
	require.Equal(t, calls, f.srv.LoginCalls())

	f.srv.SetBlocked(f.plain.ID, false)
	f.send(keyMsg("ctrl+r"))
	require.True(t, s.state.RetryArmed)

	msgs := f.submit(t, "plain@example.com", "plain-pw")
	require.Equal(t, []string{guard.PathHome}, navigations(msgs))
	require.True(t, f.store.HasToken())
}

func TestLogin_NetworkErrorKeepsState(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathLogin}))
	f.srv.Close()

	f.submit(t, "plain@example.com", "plain-pw")
	s := f.loginScreen(t)
	require.Equal(t, 3, s.state.Remaining)
	require.Equal(t, login.PhaseReady, s.state.Phase)
	require.Contains(t, s.err, "Cannot reach the server")
}

func TestLogin_ResultFromClosedFormIgnored(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathLogin}))
	old := f.loginScreen(t).ctrl

	f.settle(f.send(navigateMsg{path: guard.PathHome}))
	f.settle(f.send(navigateMsg{path: guard.PathLogin}))
	s := f.loginScreen(t)
	require.NotSame(t, old, s.ctrl)
	s.pending = true

	msgs := f.settle(f.send(loginResultMsg{ctrl: old, outcome: login.OutcomeAuthenticated}))
	require.Empty(t, navigations(msgs))
	require.Equal(t, guard.PathLogin, f.model.Path())
	require.True(t, s.pending)

	msgs = f.settle(f.send(loginResultMsg{ctrl: s.ctrl, outcome: login.OutcomeFailed, err: errors.New("boom")}))
	require.Empty(t, navigations(msgs))
	require.False(t, s.pending)
}

func TestLogin_EmptyFieldsNotSent(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathLogin}))

	f.submit(t, "", "")
	require.Zero(t, f.srv.LoginCalls())
	require.Equal(t, "Enter your email and password.", f.loginScreen(t).err)
}

// =============================================================================
// CARDS AND ADMIN
// =============================================================================

func TestCards_LikeToggle(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.plain)
	f.settle(f.send(navigateMsg{path: guard.PathHome}))

	s := f.model.screen.(*cardsScreen)
	s.cursor = 1
	target := s.cards[1]
	require.False(t, target.LikedBy(f.plain.ID))

	f.settle(f.send(keyMsg("f")))
	require.True(t, s.cards[1].LikedBy(f.plain.ID))
}

func TestCards_LikeNeedsSignIn(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathHome}))

	msgs := f.settle(f.send(keyMsg("f")))
	require.Equal(t, []string{guard.PathLogin}, navigations(msgs))
}

func TestCards_UnlikeLeavesFavourites(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.plain)
	f.settle(f.send(navigateMsg{path: guard.PathFavourites}))

	s := f.model.screen.(*cardsScreen)
	require.Len(t, s.cards, 1)
	f.settle(f.send(keyMsg("f")))
	require.Empty(t, s.cards)
	require.Contains(t, f.model.View(), "You haven't liked any cards yet.")
}

func TestCards_SearchFilters(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathHome}))
	s := f.model.screen.(*cardsScreen)
	require.Len(t, s.cards, 2)

	f.settle(f.send(keyMsg("/")))
	require.True(t, s.Capturing())

	// Digits would switch tabs if the filter did not capture them.
	for _, k := range []string{"b", "r", "e", "a", "d", "1"} {
		f.send(keyMsg(k))
	}
	require.Equal(t, guard.PathHome, f.model.Path())
	require.Empty(t, s.cards)
	require.Contains(t, f.model.View(), `No cards match "bread1".`)

	f.send(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Len(t, s.cards, 1)
	require.Equal(t, "Levi Bakery", s.cards[0].Title)

	// enter keeps the filter and hands keys back to the list.
	f.send(keyMsg("enter"))
	require.False(t, s.Capturing())
	require.Len(t, s.cards, 1)

	// esc clears the filter instead of leaving the screen.
	f.send(keyMsg("esc"))
	require.Equal(t, guard.PathHome, f.model.Path())
	require.Len(t, s.cards, 2)
	require.NotContains(t, f.model.View(), "Search:")
}

type downLister struct{}

func (downLister) ListCards(context.Context) ([]api.Card, error) {
	return nil, &api.NetworkError{Op: "GET /cards", Err: errors.New("connection refused")}
}

func TestCards_OfflineShowsCachedDirectory(t *testing.T) {
	f := newFixture(t)

	store, err := cache.Open(filepath.Join(t.TempDir(), "cards.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	live, err := f.client.ListCards(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Replace(context.Background(), live))

	f.model = New(Deps{
		Client: f.client,
		Store:  f.store,
		Config: config.Default(),
		Theme:  styles.NewTheme("dark"),
		Cards:  cache.NewDirectory(downLister{}, store, nil),
	}, "")
	t.Cleanup(f.model.Close)

	f.settle(f.send(navigateMsg{path: guard.PathHome}))
	s := f.model.screen.(*cardsScreen)
	require.True(t, s.offline)
	require.Len(t, s.cards, 2)
	require.Contains(t, f.model.View(), "Offline: showing cards cached")
}

func TestCards_OpenDetails(t *testing.T) {
	f := newFixture(t)
	f.settle(f.send(navigateMsg{path: guard.PathHome}))

	msgs := f.settle(f.send(keyMsg("enter")))
	paths := navigations(msgs)
	require.Len(t, paths, 1)

	f.settle(f.send(navigateMsg{path: paths[0]}))
	require.Contains(t, f.model.View(), "Levi")
	require.Contains(t, f.model.View(), "Likes")
}

func TestAdmin_UsersModeration(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.admin)
	f.settle(f.send(navigateMsg{path: guard.PathAdminUsers}))

	s := f.model.screen.(*usersScreen)
	require.Len(t, s.users, 3)

	idx := -1
	for i, u := range s.users {
		if u.ID == f.plain.ID {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	s.cursor = idx

	msgs := f.settle(f.send(keyMsg("b")))
	require.Contains(t, toasts(msgs), "Blocked plain@example.com.")
	require.True(t, s.users[idx].IsBlocked)
	u, _ := f.srv.User(f.plain.ID)
	require.True(t, u.IsBlocked)

	f.settle(f.send(keyMsg("u")))
	require.False(t, s.users[idx].IsBlocked)

	msgs = f.settle(f.send(keyMsg("x")))
	require.Contains(t, toasts(msgs), "Login attempts reset for plain@example.com.")
}

func TestAdmin_CannotBlockSelf(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.admin)
	f.settle(f.send(navigateMsg{path: guard.PathAdminUsers}))

	s := f.model.screen.(*usersScreen)
	for i, u := range s.users {
		if u.ID == f.admin.ID {
			s.cursor = i
		}
	}
	msgs := f.settle(f.send(keyMsg("b")))
	require.Equal(t, []string{"You can't block your own account."}, toasts(msgs))
}

func TestAdmin_Dashboard(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.admin)
	f.settle(f.send(navigateMsg{path: guard.PathAdmin}))

	s := f.model.screen.(*dashboardScreen)
	require.NotNil(t, s.stats)
	require.Equal(t, 3, s.stats.TotalUsers)
	require.Equal(t, 2, s.stats.TotalCards)
	require.Equal(t, 1, s.stats.TotalLikes)

	msgs := f.settle(f.send(keyMsg("c")))
	require.Equal(t, []string{guard.PathAdminCards}, navigations(msgs))
}

func TestAdmin_ModerationBlocksCard(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, f.admin)
	f.settle(f.send(navigateMsg{path: guard.PathAdminCards}))

	s := f.model.screen.(*cardsScreen)
	require.Len(t, s.cards, 2)
	f.settle(f.send(keyMsg("b")))
	require.True(t, s.cards[0].IsBlocked)
	require.Contains(t, f.model.View(), "blocked")
}

// =============================================================================
// TOASTS AND ERRORS
// =============================================================================

func TestToast_DismissOnlyCurrent(t *testing.T) {
	f := newFixture(t)
	first := components.NewToast(components.ToastInfo, "one")
	second := components.NewToast(components.ToastInfo, "two")

	f.send(toastMsg{toast: first})
	f.send(toastMsg{toast: second})
	f.send(components.ToastDismissMsg{ID: first.ID})
	require.NotNil(t, f.model.toast)
	require.Equal(t, "two", f.model.toast.Message)

	f.send(components.ToastDismissMsg{ID: second.ID})
	require.Nil(t, f.model.toast)
}

func TestDescribe(t *testing.T) {
	require.Empty(t, describe(nil))
	require.Equal(t, NoticeBlocked, describe(&api.APIError{Status: 403, Message: "User is blocked"}))
	require.Equal(t, NoticeExpired, describe(&api.APIError{Status: 401}))
	require.Contains(t, describe(&api.APIError{Status: 403}), "permission")
	require.Contains(t, describe(&api.NetworkError{Op: "GET /cards", Err: errors.New("refused")}), "Cannot reach")
	require.Equal(t, "boom", describe(errors.New("boom")))
}
