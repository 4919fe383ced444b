// Package state persists reading sessions between runs.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/metcalfc/cardr/internal/card"
)

const (
	appName   = "cardr"
	hashBytes = 8192 // First 8KB for content hash
)

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("state: unknown backend")

// Entry is the stored state of one document.
type Entry struct {
	Cards     card.Sequence `json:"cards"`
	Position  int           `json:"position"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Backend stores entries by key.
type Backend interface {
	Get(key string) (Entry, bool, error)
	Put(key string, e Entry) error
	// PutPosition updates the position of an existing entry. It is a no-op
	// when the key is not stored.
	PutPosition(key string, position int) error
	Delete(key string) error
	Close() error
}

// Open returns the named backend rooted at dir: "json" (the default) or
// "sqlite".
func Open(name, dir string) (Backend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	switch name {
	case "", "json":
		return NewFileBackend(dir)
	case "sqlite":
		return NewSQLiteBackend(filepath.Join(dir, sqliteFileName))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Dir returns XDG_STATE_HOME/cardr or ~/.local/state/cardr
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", appName)
}

// ComputeHash generates content hash for file identity
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	hash := sha256.Sum256(buf[:n])
	return hex.EncodeToString(hash[:16]), nil // First 16 bytes = 32 hex chars
}

// Key identifies a document as it was turned into cards: its content hash,
// the card length and whether front matter was skipped. Changing either
// setting starts a fresh session.
func Key(hash string, maxLength int, skipFrontMatter bool) string {
	if skipFrontMatter {
		return fmt.Sprintf("%s:%d:body", hash, maxLength)
	}
	return fmt.Sprintf("%s:%d", hash, maxLength)
}
