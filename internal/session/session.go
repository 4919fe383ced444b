// Package session provides the paged reading state machine: a loaded card
// sequence, the current position, and the notifications sent to persistence
// and rendering collaborators as the position changes.
package session

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/metcalfc/cardr/internal/card"
)

// Direction is the visual direction of a transition between cards.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// Transition describes a completed move to a new card.
type Transition struct {
	Index     int
	Card      card.Card
	Direction Direction
}

// Store persists the session. Errors are logged by the session and never
// returned to callers.
type Store interface {
	// Save replaces the stored sequence and position.
	Save(seq card.Sequence, position int) error
	// SavePosition updates only the stored position.
	SavePosition(position int) error
	// Load returns the stored sequence and position. A nil sequence means
	// nothing is stored.
	Load() (card.Sequence, int, error)
	// Clear erases the stored state.
	Clear() error
}

// Renderer receives one-way display notifications.
type Renderer interface {
	OnFullRender(c card.Card)
	OnTransition(t Transition)
	OnCounterUpdate(text string)
}

// Session holds the loaded card sequence and the current position. It is not
// safe for concurrent use; callers serialize access through their event loop.
type Session struct {
	cards    card.Sequence
	position int

	store    Store
	renderer Renderer
	logger   *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithStore sets the persistence collaborator.
func WithStore(s Store) Option {
	return func(sess *Session) {
		if s != nil {
			sess.store = s
		}
	}
}

// WithRenderer sets the rendering collaborator.
func WithRenderer(r Renderer) Option {
	return func(sess *Session) {
		if r != nil {
			sess.renderer = r
		}
	}
}

// WithLogger sets the logger used for swallowed persistence errors.
func WithLogger(l *zap.Logger) Option {
	return func(sess *Session) {
		if l != nil {
			sess.logger = l
		}
	}
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		store:    nopStore{},
		renderer: nopRenderer{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRenderer replaces the rendering collaborator.
func (s *Session) SetRenderer(r Renderer) {
	if r == nil {
		r = nopRenderer{}
	}
	s.renderer = r
}

// SetStore replaces the persistence collaborator. The loaded sequence is
// left as is; call Restore or Load to sync with the new store.
func (s *Session) SetStore(st Store) {
	if st == nil {
		st = nopStore{}
	}
	s.store = st
}

// Load replaces the sequence and moves to the first card. Loading an empty
// sequence is the same as Reset.
func (s *Session) Load(seq card.Sequence) {
	if len(seq) == 0 {
		s.Reset()
		return
	}
	s.cards = seq.Clone()
	s.position = 0
	s.logger.Debug("loaded sequence", zap.Int("cards", len(s.cards)))

	if err := s.store.Save(s.cards, s.position); err != nil {
		s.logger.Warn("failed to save sequence", zap.Error(err))
	}
	s.renderFull()
}

// Restore adopts the stored sequence and position, if any. It reports
// whether anything was restored.
func (s *Session) Restore() bool {
	seq, pos, err := s.store.Load()
	if err != nil {
		s.logger.Warn("failed to load stored session", zap.Error(err))
		return false
	}
	if len(seq) == 0 {
		return false
	}
	s.cards = seq.Clone()
	s.position = clamp(pos, 0, len(s.cards)-1)
	s.logger.Debug("restored session",
		zap.Int("cards", len(s.cards)),
		zap.Int("position", s.position))
	s.renderFull()
	return true
}

// Next moves to the following card. It is a no-op on the last card.
func (s *Session) Next() bool {
	if s.position >= len(s.cards)-1 {
		return false
	}
	s.moveTo(s.position+1, Forward)
	return true
}

// Previous moves to the preceding card. It is a no-op on the first card.
func (s *Session) Previous() bool {
	if s.position <= 0 || len(s.cards) == 0 {
		return false
	}
	s.moveTo(s.position-1, Backward)
	return true
}

// JumpTo moves to a 1-based card number. Out of range targets are ignored.
// Jumping to the current card still emits a backward transition.
func (s *Session) JumpTo(target int) bool {
	if target < 1 || target > len(s.cards) {
		return false
	}
	idx := target - 1
	dir := Backward
	if idx > s.position {
		dir = Forward
	}
	s.moveTo(idx, dir)
	return true
}

// JumpToInput parses a user-entered card number and jumps to it. Input that
// is not an integer is ignored.
func (s *Session) JumpToInput(input string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	return s.JumpTo(n)
}

// Reset unloads the document and erases stored state.
func (s *Session) Reset() {
	s.cards = nil
	s.position = 0
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("failed to clear stored session", zap.Error(err))
	}
	s.renderFull()
}

// CurrentCard returns the card at the current position, or card.Empty.
func (s *Session) CurrentCard() card.Card {
	if len(s.cards) == 0 {
		return card.Empty
	}
	return s.cards[s.position]
}

// CounterText returns the "current / total" label.
func (s *Session) CounterText() string {
	if len(s.cards) == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", s.position+1, len(s.cards))
}

// Position returns the 0-based current position.
func (s *Session) Position() int { return s.position }

// Len returns the number of loaded cards.
func (s *Session) Len() int { return len(s.cards) }

// Sequence returns a copy of the loaded cards.
func (s *Session) Sequence() card.Sequence { return s.cards.Clone() }

// AtEnd reports whether the current card is the last one.
func (s *Session) AtEnd() bool {
	return s.position >= len(s.cards)-1
}

func (s *Session) moveTo(idx int, dir Direction) {
	s.position = idx
	s.renderer.OnTransition(Transition{
		Index:     idx,
		Card:      s.cards[idx],
		Direction: dir,
	})
	if err := s.store.SavePosition(idx); err != nil {
		s.logger.Warn("failed to save position", zap.Int("position", idx), zap.Error(err))
	}
	s.renderer.OnCounterUpdate(s.CounterText())
}

func (s *Session) renderFull() {
	s.renderer.OnFullRender(s.CurrentCard())
	s.renderer.OnCounterUpdate(s.CounterText())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type nopStore struct{}

func (nopStore) Save(card.Sequence, int) error     { return nil }
func (nopStore) SavePosition(int) error            { return nil }
func (nopStore) Load() (card.Sequence, int, error) { return nil, 0, nil }
func (nopStore) Clear() error                      { return nil }

type nopRenderer struct{}

func (nopRenderer) OnFullRender(card.Card)  {}
func (nopRenderer) OnTransition(Transition) {}
func (nopRenderer) OnCounterUpdate(string)  {}
