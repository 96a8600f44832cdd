// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/jeranaias/bcard-tui/internal/util"
)

// ErrNoUserID is returned when a token carries no recognisable user id.
var ErrNoUserID = errors.New("token has no user id claim")

// TokenStore persists exactly one session token.
type TokenStore interface {
	// Load returns the stored token, or "" when none is stored.
	Load() (string, error)
	Save(token string) error
	// Clear removes the token. Clearing an empty store is not an error.
	Clear() error
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileTokenStore keeps the token in a single 0600 file.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore returns a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the backing file.
func (f *FileTokenStore) Path() string {
	return f.path
}

// Load reads the token file. A missing file means no token.
func (f *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token atomically with owner-only permissions.
func (f *FileTokenStore) Save(token string) error {
	if err := util.WriteFileAtomic(f.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear deletes the token file.
func (f *FileTokenStore) Clear() error {
	if err := util.RemoveIfExists(f.path); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryTokenStore is a TokenStore for tests and --no-persist runs.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// Load returns the held token.
func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Save replaces the held token.
func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear drops the held token.
func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// =============================================================================
// CLAIMS
// =============================================================================

// DecodeUserID reads the user id out of a JWT without verifying its
// signature. The server verifies on every request; the client only needs
// the id to know which record to fetch.
func DecodeUserID(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	for _, key := range []string{"_id", "id", "sub"} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", ErrNoUserID
}
