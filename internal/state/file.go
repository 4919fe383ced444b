package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/metcalfc/cardr/internal/card"
)

const (
	stateFileName = "sessions.json"
	cardsDirName  = "cards"
)

// position is one record of the index file. Card payloads live in their own
// files so that moving between cards only rewrites the small index.
type position struct {
	Position  int       `json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileBackend keeps an index of positions in one JSON file and each
// document's cards in a separate JSON file under cards/.
type FileBackend struct {
	path     string
	cardsDir string
	data     map[string]position
	mu       sync.RWMutex
}

// NewFileBackend creates or loads state from dir.
func NewFileBackend(dir string) (*FileBackend, error) {
	cardsDir := filepath.Join(dir, cardsDirName)
	if err := os.MkdirAll(cardsDir, 0755); err != nil {
		return nil, err
	}

	b := &FileBackend{
		path:     filepath.Join(dir, stateFileName),
		cardsDir: cardsDir,
		data:     make(map[string]position),
	}
	if err := b.load(); err != nil {
		// Non-fatal - start with empty state
		b.data = make(map[string]position)
	}
	return b, nil
}

// Get returns the entry stored under key. An index record whose card file
// is missing counts as not stored.
func (b *FileBackend) Get(key string) (Entry, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.data[key]
	if !ok {
		return Entry{}, false, nil
	}
	data, err := os.ReadFile(b.cardsPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var cards card.Sequence
	if err := json.Unmarshal(data, &cards); err != nil {
		return Entry{}, false, err
	}
	return Entry{Cards: cards, Position: p.Position, UpdatedAt: p.UpdatedAt}, true, nil
}

// Put replaces the entry stored under key.
func (b *FileBackend) Put(key string, e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(e.Cards)
	if err != nil {
		return err
	}
	if err := writeAtomic(b.cardsPath(key), data); err != nil {
		return err
	}
	b.data[key] = position{Position: e.Position, UpdatedAt: e.UpdatedAt}
	return b.save()
}

// PutPosition updates the position stored under key. Only the index is
// written.
func (b *FileBackend) PutPosition(key string, pos int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.data[key]; !ok {
		return nil
	}
	b.data[key] = position{Position: pos, UpdatedAt: time.Now()}
	return b.save()
}

// Delete removes the entry stored under key.
func (b *FileBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	if err := os.Remove(b.cardsPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return b.save()
}

// Close is a no-op; every write is flushed immediately.
func (b *FileBackend) Close() error { return nil }

func (b *FileBackend) cardsPath(key string) string {
	name := strings.NewReplacer(":", "-", "/", "-", `\`, "-").Replace(key)
	return filepath.Join(b.cardsDir, name+".json")
}

func (b *FileBackend) load() error {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &b.data)
}

func (b *FileBackend) save() error {
	data, err := json.MarshalIndent(b.data, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(b.path, data)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
