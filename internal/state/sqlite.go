package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/metcalfc/cardr/internal/card"
)

const sqliteFileName = "sessions.db"

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	key        TEXT PRIMARY KEY,
	cards      BLOB NOT NULL,
	position   INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteBackend stores entries in a SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens or creates the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Get returns the entry stored under key.
func (b *SQLiteBackend) Get(key string) (Entry, bool, error) {
	var (
		blob    []byte
		pos     int
		updated int64
	)
	err := b.db.QueryRow(
		`SELECT cards, position, updated_at FROM sessions WHERE key = ?`, key,
	).Scan(&blob, &pos, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	var cards card.Sequence
	if err := json.Unmarshal(blob, &cards); err != nil {
		return Entry{}, false, fmt.Errorf("failed to decode cards: %w", err)
	}
	return Entry{Cards: cards, Position: pos, UpdatedAt: time.Unix(0, updated)}, true, nil
}

// Put replaces the entry stored under key.
func (b *SQLiteBackend) Put(key string, e Entry) error {
	blob, err := json.Marshal(e.Cards)
	if err != nil {
		return err
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	_, err = b.db.Exec(`
		INSERT INTO sessions (key, cards, position, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			cards = excluded.cards,
			position = excluded.position,
			updated_at = excluded.updated_at`,
		key, blob, e.Position, e.UpdatedAt.UnixNano())
	return err
}

// PutPosition updates the position stored under key.
func (b *SQLiteBackend) PutPosition(key string, position int) error {
	_, err := b.db.Exec(
		`UPDATE sessions SET position = ?, updated_at = ? WHERE key = ?`,
		position, time.Now().UnixNano(), key)
	return err
}

// Delete removes the entry stored under key.
func (b *SQLiteBackend) Delete(key string) error {
	_, err := b.db.Exec(`DELETE FROM sessions WHERE key = ?`, key)
	return err
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
