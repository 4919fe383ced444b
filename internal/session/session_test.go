package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/metcalfc/cardr/internal/card"
)

type recorder struct {
	full        []card.Card
	transitions []Transition
	counters    []string
}

func (r *recorder) OnFullRender(c card.Card)    { r.full = append(r.full, c) }
func (r *recorder) OnTransition(t Transition)   { r.transitions = append(r.transitions, t) }
func (r *recorder) OnCounterUpdate(text string) { r.counters = append(r.counters, text) }

type memStore struct {
	seq       card.Sequence
	position  int
	saves     int
	positions []int
	clears    int
	err       error
}

func (m *memStore) Save(seq card.Sequence, position int) error {
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.seq, m.position = seq.Clone(), position
	return nil
}

func (m *memStore) SavePosition(position int) error {
	m.positions = append(m.positions, position)
	if m.err != nil {
		return m.err
	}
	m.position = position
	return nil
}

func (m *memStore) Load() (card.Sequence, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.seq, m.position, nil
}

func (m *memStore) Clear() error {
	m.clears++
	m.seq, m.position = nil, 0
	return m.err
}

func texts(ss ...string) card.Sequence {
	seq := make(card.Sequence, 0, len(ss))
	for _, s := range ss {
		seq = append(seq, card.NewText(s))
	}
	return seq
}

func newTestSession(t *testing.T) (*Session, *recorder, *memStore) {
	t.Helper()
	r := &recorder{}
	st := &memStore{}
	return New(WithRenderer(r), WithStore(st)), r, st
}

func TestEmptySession(t *testing.T) {
	s, r, st := newTestSession(t)

	assert.Equal(t, "0 / 0", s.CounterText())
	assert.True(t, s.CurrentCard().IsEmpty())
	assert.False(t, s.Next())
	assert.False(t, s.Previous())
	assert.False(t, s.JumpTo(1))
	assert.Empty(t, r.transitions)
	assert.Empty(t, st.positions)
}

func TestLoad(t *testing.T) {
	s, r, st := newTestSession(t)
	s.Load(texts("a", "b", "c"))

	assert.Equal(t, 0, s.Position())
	assert.Equal(t, "1 / 3", s.CounterText())
	assert.Equal(t, "a", s.CurrentCard().Text)

	require.Len(t, r.full, 1)
	assert.Equal(t, "a", r.full[0].Text)
	assert.Empty(t, r.transitions)
	assert.Equal(t, []string{"1 / 3"}, r.counters)

	assert.Equal(t, 1, st.saves)
	assert.Equal(t, []string{"a", "b", "c"}, st.seq.Texts())
}

func TestLoadReplacesAndResetsPosition(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Load(texts("a", "b", "c"))
	s.Next()
	s.Next()
	s.Load(texts("x", "y"))

	assert.Equal(t, 0, s.Position())
	assert.Equal(t, "1 / 2", s.CounterText())
}

func TestLoadCopiesSequence(t *testing.T) {
	s, _, _ := newTestSession(t)
	seq := texts("a", "b")
	s.Load(seq)
	seq[0] = card.NewText("changed")

	assert.Equal(t, "a", s.CurrentCard().Text)
}

func TestLoadEmptyResets(t *testing.T) {
	s, r, st := newTestSession(t)
	s.Load(texts("a"))
	s.Load(nil)

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, st.clears)
	assert.True(t, r.full[len(r.full)-1].IsEmpty())
}

func TestNextAndPrevious(t *testing.T) {
	s, r, st := newTestSession(t)
	s.Load(texts("a", "b", "c"))

	require.True(t, s.Next())
	require.True(t, s.Next())
	assert.Equal(t, "3 / 3", s.CounterText())

	// Boundary: no event, no store write.
	assert.False(t, s.Next())
	assert.Len(t, r.transitions, 2)

	require.True(t, s.Previous())
	require.True(t, s.Previous())
	assert.False(t, s.Previous())

	assert.Equal(t, []Transition{
		{Index: 1, Card: card.NewText("b"), Direction: Forward},
		{Index: 2, Card: card.NewText("c"), Direction: Forward},
		{Index: 1, Card: card.NewText("b"), Direction: Backward},
		{Index: 0, Card: card.NewText("a"), Direction: Backward},
	}, r.transitions)
	assert.Equal(t, []int{1, 2, 1, 0}, st.positions)
	assert.Equal(t, []string{"1 / 3", "2 / 3", "3 / 3", "2 / 3", "1 / 3"}, r.counters)
}

func TestJumpTo(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		target    int
		ok        bool
		position  int
		direction Direction
	}{
		{name: "forward", start: 0, target: 4, ok: true, position: 3, direction: Forward},
		{name: "backward", start: 3, target: 2, ok: true, position: 1, direction: Backward},
		{name: "self jump is backward", start: 2, target: 3, ok: true, position: 2, direction: Backward},
		{name: "zero rejected", start: 1, target: 0, ok: false, position: 1},
		{name: "past end rejected", start: 1, target: 6, ok: false, position: 1},
		{name: "negative rejected", start: 0, target: -3, ok: false, position: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r, _ := newTestSession(t)
			s.Load(texts("a", "b", "c", "d", "e"))
			for i := 0; i < tt.start; i++ {
				s.Next()
			}
			r.transitions = nil

			assert.Equal(t, tt.ok, s.JumpTo(tt.target))
			assert.Equal(t, tt.position, s.Position())
			if !tt.ok {
				assert.Empty(t, r.transitions)
				return
			}
			require.Len(t, r.transitions, 1)
			assert.Equal(t, tt.position, r.transitions[0].Index)
			assert.Equal(t, tt.direction, r.transitions[0].Direction)
		})
	}
}

func TestJumpToInput(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Load(texts("a", "b", "c"))

	assert.False(t, s.JumpToInput("two"))
	assert.False(t, s.JumpToInput("2.5"))
	assert.False(t, s.JumpToInput(""))
	assert.Equal(t, 0, s.Position())

	assert.True(t, s.JumpToInput(" 3 "))
	assert.Equal(t, 2, s.Position())
}

func TestReset(t *testing.T) {
	s, r, st := newTestSession(t)
	s.Load(texts("a", "b"))
	s.Next()
	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Position())
	assert.Equal(t, "0 / 0", s.CounterText())
	assert.True(t, s.CurrentCard().IsEmpty())
	assert.Equal(t, 1, st.clears)
	assert.Nil(t, st.seq)
	assert.True(t, r.full[len(r.full)-1].IsEmpty())
	assert.Equal(t, "0 / 0", r.counters[len(r.counters)-1])
}

func TestRestore(t *testing.T) {
	st := &memStore{seq: texts("a", "b", "c"), position: 2}
	r := &recorder{}
	s := New(WithStore(st), WithRenderer(r))

	require.True(t, s.Restore())
	assert.Equal(t, 2, s.Position())
	assert.Equal(t, "3 / 3", s.CounterText())
	require.Len(t, r.full, 1)
	assert.Equal(t, "c", r.full[0].Text)
}

func TestRestoreClampsPosition(t *testing.T) {
	st := &memStore{seq: texts("a", "b"), position: 9}
	s := New(WithStore(st))

	require.True(t, s.Restore())
	assert.Equal(t, 1, s.Position())
}

func TestRestoreNothingStored(t *testing.T) {
	s := New(WithStore(&memStore{}))
	assert.False(t, s.Restore())
	assert.Equal(t, "0 / 0", s.CounterText())
}

func TestStoreErrorsAreSwallowed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	st := &memStore{err: errors.New("disk full")}
	r := &recorder{}
	s := New(WithStore(st), WithRenderer(r), WithLogger(zap.New(core)))

	assert.False(t, s.Restore())
	s.Load(texts("a", "b"))
	assert.True(t, s.Next())
	assert.Equal(t, "2 / 2", s.CounterText())
	s.Reset()
	assert.Equal(t, "0 / 0", s.CounterText())

	assert.Equal(t, 4, logs.Len())
	assert.Len(t, r.transitions, 1)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "forward", Forward.String())
	assert.Equal(t, "backward", Backward.String())
}

func TestSetStore(t *testing.T) {
	s, _, first := newTestSession(t)
	s.Load(texts("a", "b"))

	second := &memStore{seq: texts("x", "y", "z"), position: 1}
	s.SetStore(second)
	require.True(t, s.Restore())
	assert.Equal(t, "2 / 3", s.CounterText())

	s.Next()
	assert.Equal(t, 2, second.position)
	assert.Equal(t, 0, first.position)

	s.SetStore(nil)
	s.Reset()
	assert.NotNil(t, second.seq)
}
