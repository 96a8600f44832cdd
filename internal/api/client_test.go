// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/api/apitest"
)

func boolPtr(b bool) *bool { return &b }

type fixture struct {
	srv    *apitest.Server
	client *api.Client
	admin  api.User
	biz    api.User
	plain  api.User
}

func newFixture(t *testing.T, opts ...api.Option) *fixture {
	t.Helper()
	srv := apitest.New(t)
	f := &fixture{srv: srv, client: api.NewClient(srv.URL+"/", opts...)}
	f.admin = srv.AddUser(api.User{Email: "admin@example.com", IsAdmin: true, IsBusiness: boolPtr(true)}, "adminpw")
	f.biz = srv.AddUser(api.User{Email: "biz@example.com", IsBusiness: boolPtr(true)}, "bizpw")
	f.plain = srv.AddUser(api.User{Email: "user@example.com", Name: api.Name{First: "Plain", Last: "User"}}, "userpw")
	return f
}

func TestClient_BaseURLTrimmed(t *testing.T) {
	c := api.NewClient(" https://example.com/ ")
	require.Equal(t, "https://example.com", c.BaseURL())
}

func TestClient_SendsTokenAndRequestID(t *testing.T) {
	var gotToken, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(api.TokenHeader)
		gotID = r.Header.Get(api.RequestIDHeader)
		_, _ = w.Write([]byte(`{"_id":"u1","isAdmin":true}`))
	}))
	defer srv.Close()

	u, err := api.NewClient(srv.URL).GetUser(context.Background(), "tok-123", "u1")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.True(t, u.IsAdmin)
	require.Equal(t, "tok-123", gotToken)
	require.Len(t, gotID, 36)
}

func TestClient_LoginLockoutSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bad := api.Credentials{Email: f.plain.Email, Password: "wrong"}

	for _, want := range []int{2, 1} {
		_, err := f.client.Login(ctx, bad)
		var invalid *api.InvalidCredentialsError
		require.ErrorAs(t, err, &invalid)
		require.True(t, invalid.Known)
		require.Equal(t, want, invalid.Remaining)
	}

	_, err := f.client.Login(ctx, bad)
	var locked *api.AccountLockedError
	require.ErrorAs(t, err, &locked)
	require.False(t, locked.Indefinite())
	require.WithinDuration(t, time.Now().Add(time.Hour), locked.Until, time.Minute)

	// Correct password is still refused while locked.
	_, err = f.client.Login(ctx, api.Credentials{Email: f.plain.Email, Password: "userpw"})
	require.ErrorAs(t, err, &locked)
	require.Equal(t, 4, f.srv.LoginCalls())
}

func TestClient_LoginSuccess(t *testing.T) {
	f := newFixture(t)
	tok, err := f.client.Login(context.Background(), api.Credentials{Email: f.biz.Email, Password: "bizpw"})
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	u, err := f.client.GetUser(context.Background(), tok, f.biz.ID)
	require.NoError(t, err)
	require.True(t, u.IsBusinessUser())
}

func TestClient_UnauthorizedHandler(t *testing.T) {
	var fired atomic.Int32
	f := newFixture(t, api.WithUnauthorizedHandler(func(error) { fired.Add(1) }))
	ctx := context.Background()

	// Anonymous calls never trigger the handler.
	_, err := f.client.GetCard(ctx, "missing")
	require.ErrorIs(t, err, api.ErrNotFound)
	require.Zero(t, fired.Load())

	// Unknown token: 401.
	_, err = f.client.GetUser(ctx, "not-a-token", f.plain.ID)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	require.EqualValues(t, 1, fired.Load())

	// Blocked by an administrator: 403 mentioning "blocked".
	tok := f.srv.Token(f.plain.ID)
	f.srv.SetBlocked(f.plain.ID, true)
	_, err = f.client.GetUser(ctx, tok, f.plain.ID)
	require.ErrorIs(t, err, api.ErrBlocked)
	require.EqualValues(t, 2, fired.Load())

	// Plain 403 (missing role) leaves the session alone.
	_, err = f.client.ListUsers(ctx, f.srv.Token(f.biz.ID))
	require.ErrorIs(t, err, api.ErrForbidden)
	require.EqualValues(t, 2, fired.Load())
}

func TestClient_AdminModeration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.srv.Token(f.admin.ID)

	users, err := f.client.ListUsers(ctx, tok)
	require.NoError(t, err)
	require.Len(t, users, 3)

	u, err := f.client.BlockUser(ctx, tok, f.plain.ID)
	require.NoError(t, err)
	require.True(t, u.IsBlocked)

	u, err = f.client.UnblockUser(ctx, tok, f.plain.ID)
	require.NoError(t, err)
	require.False(t, u.IsBlocked)

	// Lock the plain user, then reset.
	for i := 0; i < 3; i++ {
		_, _ = f.client.Login(ctx, api.Credentials{Email: f.plain.Email, Password: "nope"})
	}
	require.NoError(t, f.client.ResetLoginAttempts(ctx, tok, f.plain.Email))
	_, err = f.client.Login(ctx, api.Credentials{Email: f.plain.Email, Password: "userpw"})
	require.NoError(t, err)

	err = f.client.ResetLoginAttempts(ctx, tok, "ghost@example.com")
	require.ErrorIs(t, err, api.ErrNotFound)
	require.Contains(t, err.Error(), "no user with email")

	err = f.client.ResetLoginAttempts(ctx, f.srv.Token(f.biz.ID), f.plain.Email)
	require.ErrorIs(t, err, api.ErrForbidden)
	require.Contains(t, err.Error(), "admin privileges required")

	require.Error(t, f.client.ResetLoginAttempts(ctx, tok, "  "))

	require.NoError(t, f.client.DeleteUser(ctx, tok, f.plain.ID))
	_, ok := f.srv.User(f.plain.ID)
	require.False(t, ok)
}

func TestClient_Cards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bizTok := f.srv.Token(f.biz.ID)
	userTok := f.srv.Token(f.plain.ID)

	card, err := f.client.CreateCard(ctx, bizTok, api.CardInput{Title: "Bakery", Phone: "050-0000000"})
	require.NoError(t, err)
	require.Equal(t, f.biz.ID, card.UserID)

	_, err = f.client.CreateCard(ctx, userTok, api.CardInput{Title: "Nope"})
	require.ErrorIs(t, err, api.ErrForbidden)

	mine, err := f.client.MyCards(ctx, bizTok)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	liked, err := f.client.ToggleLike(ctx, userTok, card.ID)
	require.NoError(t, err)
	require.True(t, liked.LikedBy(f.plain.ID))
	unliked, err := f.client.ToggleLike(ctx, userTok, card.ID)
	require.NoError(t, err)
	require.False(t, unliked.LikedBy(f.plain.ID))

	updated, err := f.client.UpdateCard(ctx, bizTok, card.ID, api.CardInput{Title: "Bakery & Cafe"})
	require.NoError(t, err)
	require.Equal(t, "Bakery & Cafe", updated.Title)

	got, err := f.client.GetCard(ctx, card.ID)
	require.NoError(t, err)
	require.Equal(t, "Bakery & Cafe", got.Title)

	require.NoError(t, f.client.DeleteCard(ctx, bizTok, card.ID))
	_, err = f.client.GetCard(ctx, card.ID)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestClient_CardModerationAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adminTok := f.srv.Token(f.admin.ID)

	a := f.srv.AddCard(api.Card{Title: "A", UserID: f.biz.ID, Likes: []string{f.plain.ID, f.admin.ID}})
	f.srv.AddCard(api.Card{Title: "B", UserID: f.biz.ID})

	blocked, err := f.client.SetCardBlocked(ctx, adminTok, a.ID, true)
	require.NoError(t, err)
	require.True(t, blocked.IsBlocked)

	_, err = f.client.SetCardBlocked(ctx, f.srv.Token(f.plain.ID), a.ID, false)
	require.ErrorIs(t, err, api.ErrForbidden)

	public, err := f.client.ListCards(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)

	all, err := f.client.ListAllCards(ctx, adminTok)
	require.NoError(t, err)
	require.Len(t, all, 2)

	f.srv.SetBlocked(f.plain.ID, true)
	stats, err := f.client.SystemStats(ctx, adminTok)
	require.NoError(t, err)
	require.Equal(t, api.Stats{
		TotalUsers:    3,
		BusinessUsers: 2,
		AdminUsers:    1,
		BlockedUsers:  1,
		TotalCards:    2,
		BlockedCards:  1,
		TotalLikes:    2,
	}, *stats)

	_, err = f.client.SystemStats(ctx, f.srv.Token(f.biz.ID))
	require.ErrorIs(t, err, api.ErrForbidden)
}

func TestClient_RegisterAndUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.client.Register(ctx, api.Registration{
		Name:       api.Name{First: "New", Last: "Person"},
		Email:      "new@example.com",
		Password:   "Passw0rd!",
		IsBusiness: true,
	})
	require.NoError(t, err)
	require.True(t, u.IsBusinessUser())
	require.False(t, u.IsAdmin)

	_, err = f.client.Register(ctx, api.Registration{Email: "new@example.com", Password: "x"})
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)

	tok, err := f.client.Login(ctx, api.Credentials{Email: "new@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	updated, err := f.client.UpdateProfile(ctx, tok, u.ID, api.ProfileUpdate{Name: api.Name{First: "Renamed"}, Phone: "123"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name.Full())
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	f := newFixture(t, api.WithRateLimit(0.001, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.client.ListCards(ctx)
	require.NoError(t, err)

	_, err = f.client.ListCards(ctx)
	var netErr *api.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestUser_IsBusinessUser(t *testing.T) {
	require.False(t, api.User{}.IsBusinessUser())
	require.True(t, api.User{Biz: boolPtr(true)}.IsBusinessUser())
	require.False(t, api.User{IsBusiness: boolPtr(false), Biz: boolPtr(true)}.IsBusinessUser())
}

func TestSummarise_Empty(t *testing.T) {
	require.Equal(t, api.Stats{}, *api.Summarise(nil, nil))
}
