package state

import "github.com/metcalfc/cardr/internal/card"

// Binding exposes one backend key as the store of a single reader session.
type Binding struct {
	backend Backend
	key     string
}

// Bind returns a session store writing to key in b.
func Bind(b Backend, key string) *Binding {
	return &Binding{backend: b, key: key}
}

// Save replaces the stored sequence and position.
func (b *Binding) Save(seq card.Sequence, position int) error {
	return b.backend.Put(b.key, Entry{Cards: seq, Position: position})
}

// SavePosition updates the stored position.
func (b *Binding) SavePosition(position int) error {
	return b.backend.PutPosition(b.key, position)
}

// Load returns the stored sequence and position, or a nil sequence.
func (b *Binding) Load() (card.Sequence, int, error) {
	e, ok, err := b.backend.Get(b.key)
	if err != nil || !ok {
		return nil, 0, err
	}
	return e.Cards, e.Position, nil
}

// Clear erases the stored state.
func (b *Binding) Clear() error {
	return b.backend.Delete(b.key)
}
