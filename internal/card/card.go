// Package card defines the unit of paged content shown by the reader.
package card

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the card variants.
type Kind int

const (
	// KindEmpty is the sentinel returned when no document is loaded.
	KindEmpty Kind = iota
	KindText
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "empty"
	}
}

// Image is an opaque image payload extracted from a document.
type Image struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      []byte `json:"data"`
}

// Card is one unit of displayable content. Exactly one of Text or Image is
// meaningful, selected by Kind.
type Card struct {
	Kind  Kind
	Text  string
	Image *Image
}

// Empty is the card reported by a session with nothing loaded.
var Empty = Card{Kind: KindEmpty}

// NewText returns a text card.
func NewText(s string) Card {
	return Card{Kind: KindText, Text: s}
}

// NewImage returns an image card.
func NewImage(img Image) Card {
	return Card{Kind: KindImage, Image: &img}
}

// Equal reports whether c and other show the same content.
func (c Card) Equal(other Card) bool {
	if c.Kind != other.Kind || c.Text != other.Text {
		return false
	}
	if c.Image == nil || other.Image == nil {
		return c.Image == other.Image
	}
	a, b := c.Image, other.Image
	return a.ID == b.ID && a.Name == b.Name && a.MediaType == b.MediaType && bytes.Equal(a.Data, b.Data)
}

// IsEmpty reports whether c is the empty sentinel.
func (c Card) IsEmpty() bool { return c.Kind == KindEmpty }

// String renders a short description, used for logs and text-only views.
func (c Card) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindImage:
		name := c.Image.Name
		if name == "" {
			name = c.Image.ID
		}
		return fmt.Sprintf("[image %s, %s, %d bytes]", name, c.Image.MediaType, len(c.Image.Data))
	default:
		return ""
	}
}

type wireCard struct {
	Kind  string `json:"kind"`
	Text  string `json:"text,omitempty"`
	Image *Image `json:"image,omitempty"`
}

// MarshalJSON encodes the card with an explicit kind tag.
func (c Card) MarshalJSON() ([]byte, error) {
	w := wireCard{Kind: c.Kind.String()}
	switch c.Kind {
	case KindText:
		w.Text = c.Text
	case KindImage:
		w.Image = c.Image
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a card written by MarshalJSON.
func (c *Card) UnmarshalJSON(data []byte) error {
	var w wireCard
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "text":
		*c = NewText(w.Text)
	case "image":
		if w.Image == nil {
			return fmt.Errorf("image card without payload")
		}
		*c = NewImage(*w.Image)
	case "empty":
		*c = Empty
	default:
		return fmt.Errorf("unknown card kind %q", w.Kind)
	}
	return nil
}

// Sequence is an ordered list of cards; index order is reading order.
type Sequence []Card

// Clone returns a copy of s that shares no backing array with it.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Equal reports whether s and other hold the same cards in the same order.
// Images compare by content.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Texts returns the text of every text card, in order.
func (s Sequence) Texts() []string {
	var out []string
	for _, c := range s {
		if c.Kind == KindText {
			out = append(out, c.Text)
		}
	}
	return out
}
