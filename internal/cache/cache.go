// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/bcard-tui/internal/api"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmpty means no directory fetch has been cached yet.
	ErrEmpty = errors.New("card cache is empty")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("card cache is closed")
)

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite card cache. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=2000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Replace swaps the cached directory for cards and records the sync time.
func (s *Store) Replace(ctx context.Context, cards []api.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cards"); err != nil {
		return fmt.Errorf("clear cards: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (id, position, title, subtitle, city, blocked, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, card := range cards {
		if err := insertCard(ctx, stmt, i, card); err != nil {
			return err
		}
	}

	synced := strconv.FormatInt(s.now().UnixMilli(), 10)
	if _, err := tx.ExecContext(ctx, "UPDATE metadata SET value = ? WHERE key = 'synced_at'", synced); err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return tx.Commit()
}

// Put updates one cached card in place, keeping its position. Cards not
// yet cached are appended. The sync time does not change.
func (s *Store) Put(ctx context.Context, card api.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", card.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cards (id, position, title, subtitle, city, blocked, data)
		VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM cards), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			subtitle = excluded.subtitle,
			city = excluded.city,
			blocked = excluded.blocked,
			data = excluded.data`,
		card.ID, fold(card.Title), fold(card.Subtitle), fold(card.Address.City), card.IsBlocked, string(data))
	if err != nil {
		return fmt.Errorf("put card %s: %w", card.ID, err)
	}
	return nil
}

// All returns the cached directory in server order with its sync time.
// It returns ErrEmpty when nothing was ever synced.
func (s *Store) All(ctx context.Context) ([]api.Card, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, time.Time{}, ErrClosed
	}

	synced, err := s.syncedAtLocked(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if synced.IsZero() {
		return nil, time.Time{}, ErrEmpty
	}

	cards, err := s.query(ctx, "SELECT data FROM cards ORDER BY position")
	if err != nil {
		return nil, time.Time{}, err
	}
	return cards, synced, nil
}

// Search returns cached cards whose title, subtitle or city contains
// query, ignoring case. An empty query matches everything.
func (s *Store) Search(ctx context.Context, query string) ([]api.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	q := fold(query)
	if q == "" {
		return s.query(ctx, "SELECT data FROM cards ORDER BY position")
	}
	pattern := "%" + escapeLike(q) + "%"
	return s.query(ctx, `
		SELECT data FROM cards
		WHERE title LIKE ? ESCAPE '\' OR subtitle LIKE ? ESCAPE '\' OR city LIKE ? ESCAPE '\'
		ORDER BY position`,
		pattern, pattern, pattern)
}

// SyncedAt reports when the directory was last replaced, or zero.
func (s *Store) SyncedAt(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return time.Time{}, ErrClosed
	}
	return s.syncedAtLocked(ctx)
}

func (s *Store) syncedAtLocked(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'synced_at'").Scan(&raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("read sync time: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]api.Card, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := []api.Card{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		var card api.Card
		if err := json.Unmarshal([]byte(data), &card); err != nil {
			return nil, fmt.Errorf("decode card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func insertCard(ctx context.Context, stmt *sql.Stmt, pos int, card api.Card) error {
	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", card.ID, err)
	}
	_, err = stmt.ExecContext(ctx, card.ID, pos,
		fold(card.Title), fold(card.Subtitle), fold(card.Address.City), card.IsBlocked, string(data))
	if err != nil {
		return fmt.Errorf("insert card %s: %w", card.ID, err)
	}
	return nil
}

// =============================================================================
// MATCHING
// =============================================================================

// Match reports whether card matches query the way Search does. It filters
// lists that never went through the database.
func Match(card api.Card, query string) bool {
	q := fold(query)
	if q == "" {
		return true
	}
	return strings.Contains(fold(card.Title), q) ||
		strings.Contains(fold(card.Subtitle), q) ||
		strings.Contains(fold(card.Address.City), q)
}

// Filter returns the cards that Match query.
func Filter(cards []api.Card, query string) []api.Card {
	out := make([]api.Card, 0, len(cards))
	for _, c := range cards {
		if Match(c, query) {
			out = append(out, c)
		}
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
