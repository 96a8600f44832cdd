// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-memory card directory API for tests.
//
// The fake follows the real server closely enough for end-to-end flows:
// tokens are JWTs carrying _id, wrong passwords count down an attempt
// budget and end in a 423 lock with blockedUntil, administrator blocks
// answer 403, and admin endpoints check the caller's role.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/jeranaias/bcard-tui/internal/api"
)

const signingKey = "apitest-secret"

// LoginHook can take over POST /users/login. Returning handled=false falls
// through to the built-in behaviour.
type LoginHook func(creds api.Credentials) (status int, body any, handled bool)

type account struct {
	user        api.User
	password    string
	failed      int
	lockedUntil time.Time
}

// Server is a fake directory API backed by maps.
type Server struct {
	URL string

	srv *httptest.Server

	mu           sync.Mutex
	accounts     map[string]*account
	byEmail      map[string]string
	cards        map[string]*api.Card
	tokens       map[string]string
	maxAttempts  int
	lockDuration time.Duration
	now          func() time.Time
	loginHook    LoginHook
	loginCalls   int
	userFetches  int
	nextID       int
}

// New starts a fake server that is closed when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		accounts:     make(map[string]*account),
		byEmail:      make(map[string]string),
		cards:        make(map[string]*api.Card),
		tokens:       make(map[string]string),
		maxAttempts:  3,
		lockDuration: time.Hour,
		now:          time.Now,
	}
	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL
	tb.Cleanup(s.Close)
	return s
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/users", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/", s.handleRegister)
		r.With(s.requireAdmin).Get("/", s.handleListUsers)
		r.With(s.requireAdmin).Patch("/reset-login-attempts", s.handleResetAttempts)
		r.With(s.requireAdmin).Patch("/{id}/block", s.handleSetBlocked(true))
		r.With(s.requireAdmin).Patch("/{id}/unblock", s.handleSetBlocked(false))
		r.With(s.countUserFetch, s.requireAuth).Get("/{id}", s.handleGetUser)
		r.With(s.requireAuth).Put("/{id}", s.handleUpdateUser)
		r.With(s.requireAuth).Delete("/{id}", s.handleDeleteUser)
	})

	r.Route("/cards", func(r chi.Router) {
		r.Get("/", s.handleListCards)
		r.With(s.requireAuth).Get("/my-cards", s.handleMyCards)
		r.Get("/{id}", s.handleGetCard)
		r.With(s.requireAuth).Post("/", s.handleCreateCard)
		r.With(s.requireAuth).Put("/{id}", s.handleUpdateCard)
		r.With(s.requireAuth).Patch("/{id}", s.handlePatchCard)
		r.With(s.requireAuth).Delete("/{id}", s.handleDeleteCard)
	})

	return r
}

// =============================================================================
// FIXTURE SETUP
// =============================================================================

// AddUser stores u with the given password and returns it with its ID set.
func (s *Server) AddUser(u api.User, password string) api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.newIDLocked("u")
	}
	s.accounts[u.ID] = &account{user: u, password: password}
	s.byEmail[strings.ToLower(u.Email)] = u.ID
	return u
}

// AddCard stores card and returns it with its ID set.
func (s *Server) AddCard(card api.Card) api.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	if card.ID == "" {
		card.ID = s.newIDLocked("c")
	}
	if card.Likes == nil {
		card.Likes = []string{}
	}
	c := card
	s.cards[card.ID] = &c
	return card
}

// Token mints a valid session token for userID.
func (s *Server) Token(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mintLocked(userID)
}

// RevokeTokens invalidates every token issued to userID.
func (s *Server) RevokeTokens(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, id := range s.tokens {
		if id == userID {
			delete(s.tokens, tok)
		}
	}
}

// SetBlocked toggles the administrator block on userID.
func (s *Server) SetBlocked(userID string, blocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[userID]; ok {
		acc.user.IsBlocked = blocked
	}
}

// SetLockDuration changes how long attempt-based locks last.
func (s *Server) SetLockDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockDuration = d
}

// SetNow replaces the server clock.
func (s *Server) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetLoginHook installs hook in front of the login handler.
func (s *Server) SetLoginHook(hook LoginHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginHook = hook
}

// LoginCalls returns how many login requests reached the server.
func (s *Server) LoginCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls
}

// UserFetches returns how many GET /users/:id requests reached the server.
func (s *Server) UserFetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userFetches
}

// User returns the stored record for id.
func (s *Server) User(id string) (api.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return api.User{}, false
	}
	return acc.user, true
}

// Card returns the stored card for id.
func (s *Server) Card(id string) (api.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return api.Card{}, false
	}
	return *c, true
}

func (s *Server) newIDLocked(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%04d", prefix, s.nextID)
}

func (s *Server) mintLocked(userID string) string {
	acc := s.accounts[userID]
	claims := jwt.MapClaims{
		"_id": userID,
		"iat": s.now().Unix(),
		// jti keeps tokens minted in the same second distinct.
		"jti": s.newIDLocked("t"),
	}
	if acc != nil {
		claims["isAdmin"] = acc.user.IsAdmin
		claims["isBusiness"] = acc.user.IsBusinessUser()
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		panic(err)
	}
	s.tokens[tok] = userID
	return tok
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
