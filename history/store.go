// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/converse/chat"
)

// ErrNotFound indicates that no stored conversation has the given ID.
var ErrNotFound = errors.New("conversation not found")

// schema creates the conversations table. The message sequence is stored
// as one CBOR blob; SQLite only indexes the metadata.
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	history    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);
`

// =============================================================================
// STORE
// =============================================================================

// Store is a SQLite-backed database of saved conversations.
type Store struct {
	db *sql.DB
}

// Meta is the listing row for one stored conversation.
type Meta struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// OpenStore opens (or creates) a conversation database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Save persists a history under the given ID, inserting or replacing.
// An empty ID allocates a new one; the allocated ID is returned.
func (s *Store) Save(ctx context.Context, id, title string, msgs []chat.Message) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	blob, err := EncodeBinary(msgs)
	if err != nil {
		return "", err
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, created_at, updated_at, history)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			history = excluded.history`,
		id, title, now, now, blob)
	if err != nil {
		return "", fmt.Errorf("failed to save conversation: %w", err)
	}
	return id, nil
}

// Load restores the history stored under the given ID.
func (s *Store) Load(ctx context.Context, id string) ([]chat.Message, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT history FROM conversations WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return DecodeBinary(blob)
}

// List returns metadata for every stored conversation, most recently
// updated first.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at, history
		FROM conversations
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		var m Meta
		var created, updated int64
		var blob []byte
		if err := rows.Scan(&m.ID, &m.Title, &created, &updated, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		m.CreatedAt = time.Unix(created, 0)
		m.UpdatedAt = time.Unix(updated, 0)
		if msgs, err := DecodeBinary(blob); err == nil {
			m.MessageCount = len(msgs)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// Delete removes a stored conversation.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
