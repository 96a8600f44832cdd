// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/bcard-tui/internal/api"
	"github.com/jeranaias/bcard-tui/internal/util"
)

// UserFetcher loads a user record with the caller's token.
type UserFetcher interface {
	GetUser(ctx context.Context, token, id string) (*api.User, error)
}

// Reason says why the session changed.
type Reason int

const (
	// ReasonRestored: Initialize found a valid persisted token.
	ReasonRestored Reason = iota
	// ReasonSignedIn: SetToken succeeded.
	ReasonSignedIn
	// ReasonSignedOut: ClearToken was called.
	ReasonSignedOut
	// ReasonRefreshFailed: the token could not be turned into an identity.
	ReasonRefreshFailed
	// ReasonRejected: the server answered 401 to an authenticated call.
	ReasonRejected
	// ReasonBlocked: the server reported the account blocked.
	ReasonBlocked
	// ReasonExternal: another process changed the token file.
	ReasonExternal
)

// String returns the reason name used in logs.
func (r Reason) String() string {
	switch r {
	case ReasonRestored:
		return "restored"
	case ReasonSignedIn:
		return "signed_in"
	case ReasonSignedOut:
		return "signed_out"
	case ReasonRefreshFailed:
		return "refresh_failed"
	case ReasonRejected:
		return "rejected"
	case ReasonBlocked:
		return "blocked"
	case ReasonExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Change is delivered to OnChange subscribers after every transition.
type Change struct {
	Reason   Reason
	HasToken bool
	// Identity is nil when logged out.
	Identity *Identity
}

// Store owns the session token and the identity derived from it.
type Store struct {
	users  UserFetcher
	tokens TokenStore
	logger *zap.Logger

	// refreshMu serialises Initialize, SetToken and Reload so at most one
	// fetch is in flight. It is never held while mu is wanted by a fetch.
	refreshMu sync.Mutex

	mu       sync.RWMutex
	token    string
	identity *Identity
	// gen increments on every token change; a refresh whose generation is
	// stale by the time it returns is discarded.
	gen       uint64
	listeners map[int]func(Change)
	nextSub   int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.Named("session")
		}
	}
}

// NewStore creates a logged-out store. Call Initialize to restore a
// persisted session.
func NewStore(users UserFetcher, tokens TokenStore, opts ...Option) *Store {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	s := &Store{
		users:     users,
		tokens:    tokens,
		logger:    zap.NewNop(),
		listeners: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// READS
// =============================================================================

// CurrentIdentity returns the signed-in identity. It never performs I/O.
func (s *Store) CurrentIdentity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Token returns the in-memory session token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// HasToken reports whether a session token is held.
func (s *Store) HasToken() bool {
	return s.Token() != ""
}

// OnChange registers fn for every session transition and returns a function
// that removes it. fn runs on the goroutine that caused the change, with no
// store locks held.
func (s *Store) OnChange(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Initialize restores the persisted token, if any, and fetches its user.
func (s *Store) Initialize(ctx context.Context) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	tok, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("could not read persisted token", zap.Error(err))
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return
	}

	gen := s.install(tok, false)
	s.refresh(ctx, gen, tok, ReasonRestored)
}

// SetToken persists token and replaces the identity with the one it
// belongs to. An empty token is the same as ClearToken.
func (s *Store) SetToken(ctx context.Context, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		s.ClearToken()
		return
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	gen := s.install(token, true)
	s.refresh(ctx, gen, token, ReasonSignedIn)
}

// ClearToken removes the token from memory and durable storage and empties
// the identity. It is idempotent: subscribers only hear about the first call.
func (s *Store) ClearToken() {
	s.clear(ReasonSignedOut)
}

// Reload re-reads durable storage and adopts whatever token is there. It is
// a no-op when the stored token matches the one in memory.
func (s *Store) Reload(ctx context.Context) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	tok, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("could not read persisted token", zap.Error(err))
		return
	}
	tok = strings.TrimSpace(tok)
	if tok == s.Token() {
		return
	}
	if tok == "" {
		s.clear(ReasonExternal)
		return
	}
	gen := s.install(tok, false)
	s.refresh(ctx, gen, tok, ReasonExternal)
}

// HandleRejected is the api client's unauthorized hook: the server refused
// the token, so the session ends.
func (s *Store) HandleRejected(err error) {
	reason := ReasonRejected
	if errors.Is(err, api.ErrBlocked) {
		reason = ReasonBlocked
	}
	s.clear(reason)
}

// install swaps in a new token with no identity yet and returns its
// generation. Durable storage is written under the same lock as memory so
// a concurrent clear cannot interleave.
func (s *Store) install(token string, persist bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if persist {
		if err := s.tokens.Save(token); err != nil {
			// The session still works for this process.
			s.logger.Warn("could not persist token", zap.Error(err))
		}
	}
	s.gen++
	s.token = token
	s.identity = nil
	return s.gen
}

// refresh fetches the user behind token. Exactly one request per call.
func (s *Store) refresh(ctx context.Context, gen uint64, token string, reason Reason) {
	log := s.logger.With(zap.String("token", util.Fingerprint(token)))

	id, err := DecodeUserID(token)
	if err != nil {
		log.Warn("session refresh failed", zap.String("stage", "decode"), zap.Error(err))
		s.clearIf(gen, ReasonRefreshFailed)
		return
	}

	user, err := s.users.GetUser(ctx, token, id)
	if err != nil {
		log.Warn("session refresh failed",
			zap.String("stage", "fetch"),
			zap.String("user_id", id),
			zap.Error(err),
		)
		s.clearIf(gen, ReasonRefreshFailed)
		return
	}

	ident := IdentityFromRecord(user)
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		log.Debug("discarding stale refresh")
		return
	}
	s.identity = &ident
	s.mu.Unlock()

	log.Info("session established",
		zap.String("user_id", ident.ID),
		zap.String("role", ident.RoleLabel()),
		zap.Stringer("reason", reason),
	)
	s.notify(Change{Reason: reason, HasToken: true, Identity: &ident})
}

func (s *Store) clearIf(gen uint64, reason Reason) {
	s.mu.RLock()
	current := s.gen == gen
	s.mu.RUnlock()
	if current {
		s.clear(reason)
	}
}

func (s *Store) clear(reason Reason) {
	s.mu.Lock()
	if s.token == "" && s.identity == nil {
		// Nothing in memory, but a file left by another process still goes.
		_ = s.tokens.Clear()
		s.mu.Unlock()
		return
	}
	s.gen++
	s.token = ""
	s.identity = nil
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("could not remove persisted token", zap.Error(err))
	}
	s.mu.Unlock()

	s.logger.Info("session cleared", zap.Stringer("reason", reason))
	s.notify(Change{Reason: reason})
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}
