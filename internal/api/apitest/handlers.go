// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package apitest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeranaias/bcard-tui/internal/api"
)

// Messages mirror the wording of the production server.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgBlocked            = "User is blocked. Contact administrator."
	MsgNoToken            = "Access denied. No token provided."
	MsgInvalidToken       = "Invalid token"
	MsgAdminOnly          = "Access denied. Admin privileges required."
	MsgLocked             = "Account locked due to too many failed login attempts"
)

type ctxKey struct{}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) caller(r *http.Request) (*account, int, string) {
	tok := r.Header.Get(api.TokenHeader)
	if tok == "" {
		return nil, http.StatusUnauthorized, MsgNoToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[tok]
	if !ok {
		return nil, http.StatusUnauthorized, MsgInvalidToken
	}
	acc, ok := s.accounts[id]
	if !ok {
		return nil, http.StatusUnauthorized, MsgInvalidToken
	}
	if acc.user.IsBlocked {
		return nil, http.StatusForbidden, MsgBlocked
	}
	return acc, 0, ""
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, status, msg := s.caller(r)
		if acc == nil {
			writeMessage(w, status, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, acc.user.ID)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.callerUser(r).IsAdmin {
			writeMessage(w, http.StatusForbidden, MsgAdminOnly)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// countUserFetch counts GET /users/:id before authentication so rejected
// refreshes are visible too.
func (s *Server) countUserFetch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.userFetches++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func (s *Server) callerUser(r *http.Request) api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[callerID(r)]; ok {
		return acc.user
	}
	return api.User{}
}

// =============================================================================
// USERS
// =============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := decode(r, &creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	s.loginCalls++
	hook := s.loginHook
	s.mu.Unlock()

	if hook != nil {
		if status, body, handled := hook(creds); handled {
			if text, ok := body.(string); ok {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(text))
				return
			}
			writeJSON(w, status, body)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(creds.Email)]
	if !ok {
		writeMessage(w, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}
	acc := s.accounts[id]
	now := s.now()

	if acc.user.IsBlocked {
		writeMessage(w, http.StatusForbidden, MsgBlocked)
		return
	}
	if now.Before(acc.lockedUntil) {
		writeLocked(w, acc.lockedUntil)
		return
	}
	if creds.Password != acc.password {
		acc.failed++
		if acc.failed >= s.maxAttempts {
			acc.failed = 0
			acc.lockedUntil = now.Add(s.lockDuration)
			writeLocked(w, acc.lockedUntil)
			return
		}
		left := s.maxAttempts - acc.failed
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{
				"message": fmt.Sprintf("%s. %d attempts remaining", MsgInvalidCredentials, left),
			},
		})
		return
	}

	acc.failed = 0
	acc.lockedUntil = time.Time{}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.mintLocked(id)))
}

func writeLocked(w http.ResponseWriter, until time.Time) {
	writeJSON(w, api.StatusLocked, map[string]string{
		"message":      MsgLocked,
		"blockedUntil": until.UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg api.Registration
	if err := decode(r, &reg); err != nil || reg.Email == "" || reg.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}
	s.mu.Lock()
	_, exists := s.byEmail[strings.ToLower(reg.Email)]
	s.mu.Unlock()
	if exists {
		writeMessage(w, http.StatusConflict, "User already registered")
		return
	}
	biz := reg.IsBusiness
	u := s.AddUser(api.User{
		Name:       reg.Name,
		Email:      reg.Email,
		Phone:      reg.Phone,
		IsBusiness: &biz,
		IsAdmin:    reg.IsAdmin && reg.AdminCode != "",
		Address:    reg.Address,
		Image:      reg.Image,
	}, reg.Password)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me := s.callerUser(r)

	s.mu.Lock()
	acc, ok := s.accounts[id]
	s.mu.Unlock()

	if me.ID != id && !me.IsAdmin {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return
	}
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if callerID(r) != id {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return
	}
	var upd api.ProfileUpdate
	if err := decode(r, &upd); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	acc.user.Name = upd.Name
	acc.user.Phone = upd.Phone
	acc.user.Image = upd.Image
	acc.user.Address = upd.Address
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if callerID(r) != id && !s.callerUser(r).IsAdmin {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.accounts, id)
	delete(s.byEmail, strings.ToLower(acc.user.Email))
	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]api.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		users = append(users, acc.user)
	}
	s.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleSetBlocked(blocked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		acc, ok := s.accounts[id]
		if !ok {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		acc.user.IsBlocked = blocked
		writeJSON(w, http.StatusOK, acc.user)
	}
}

func (s *Server) handleResetAttempts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decode(r, &body); err != nil || body.Email == "" {
		writeMessage(w, http.StatusBadRequest, "email is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(body.Email)]
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	acc := s.accounts[id]
	acc.failed = 0
	acc.lockedUntil = time.Time{}
	writeMessage(w, http.StatusOK, "Login attempts reset")
}

// =============================================================================
// CARDS
// =============================================================================

func (s *Server) sortedCards(keep func(*api.Card) bool) []api.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Card, 0, len(s.cards))
	for _, c := range s.cards {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	admin := false
	if acc, _, _ := s.caller(r); acc != nil {
		admin = acc.user.IsAdmin
	}
	writeJSON(w, http.StatusOK, s.sortedCards(func(c *api.Card) bool {
		return admin || !c.IsBlocked
	}))
}

func (s *Server) handleMyCards(w http.ResponseWriter, r *http.Request) {
	me := s.callerUser(r)
	if !me.IsBusinessUser() {
		writeMessage(w, http.StatusForbidden, "Access denied. Business account required.")
		return
	}
	writeJSON(w, http.StatusOK, s.sortedCards(func(c *api.Card) bool {
		return c.UserID == me.ID
	}))
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.Card(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Card not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	me := s.callerUser(r)
	if !me.IsBusinessUser() {
		writeMessage(w, http.StatusForbidden, "Access denied. Business account required.")
		return
	}
	var in api.CardInput
	if err := decode(r, &in); err != nil || in.Title == "" {
		writeMessage(w, http.StatusBadRequest, "title is required")
		return
	}
	card := s.AddCard(api.Card{
		Title:       in.Title,
		Subtitle:    in.Subtitle,
		Description: in.Description,
		Phone:       in.Phone,
		Email:       in.Email,
		Web:         in.Web,
		Image:       in.Image,
		Address:     in.Address,
		UserID:      me.ID,
		CreatedAt:   s.now().UTC(),
	})
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var in api.CardInput
	if err := decode(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	uid := callerID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Card not found")
		return
	}
	if c.UserID != uid {
		writeMessage(w, http.StatusForbidden, "Only the card owner can edit this card")
		return
	}
	c.Title, c.Subtitle, c.Description = in.Title, in.Subtitle, in.Description
	c.Phone, c.Email, c.Web = in.Phone, in.Email, in.Web
	c.Image, c.Address = in.Image, in.Address
	writeJSON(w, http.StatusOK, *c)
}

// handlePatchCard toggles the caller's like, or with an isBlocked body lets
// an administrator moderate the card.
func (s *Server) handlePatchCard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsBlocked *bool `json:"isBlocked"`
	}
	_ = decode(r, &body)

	id := chi.URLParam(r, "id")
	me := s.callerUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Card not found")
		return
	}

	if body.IsBlocked != nil {
		if !me.IsAdmin {
			writeMessage(w, http.StatusForbidden, MsgAdminOnly)
			return
		}
		c.IsBlocked = *body.IsBlocked
		writeJSON(w, http.StatusOK, *c)
		return
	}

	if c.LikedBy(me.ID) {
		likes := c.Likes[:0:0]
		for _, l := range c.Likes {
			if l != me.ID {
				likes = append(likes, l)
			}
		}
		c.Likes = likes
	} else {
		c.Likes = append(c.Likes, me.ID)
	}
	writeJSON(w, http.StatusOK, *c)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me := s.callerUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Card not found")
		return
	}
	if c.UserID != me.ID && !me.IsAdmin {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return
	}
	delete(s.cards, id)
	writeJSON(w, http.StatusOK, *c)
}
