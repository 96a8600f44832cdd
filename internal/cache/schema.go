// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the card cache layout. Searchable fields are stored lowercased
// next to the full JSON record so LIKE queries need no per-row functions.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,  -- order the server returned
    title TEXT NOT NULL,        -- lowercased
    subtitle TEXT NOT NULL,     -- lowercased
    city TEXT NOT NULL,         -- lowercased
    blocked INTEGER NOT NULL DEFAULT 0,
    data TEXT NOT NULL          -- api.Card as JSON
);

CREATE INDEX IF NOT EXISTS idx_cards_position ON cards(position);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('synced_at', '0');
`
