// Package deck turns an extracted document into the card sequence a reader
// session pages through, along with a table of contents over it.
package deck

import (
	"strings"

	"github.com/metcalfc/cardr/internal/card"
	"github.com/metcalfc/cardr/internal/ingest"
	"github.com/metcalfc/cardr/internal/segment"
)

const previewWords = 10

// TOCEntry represents a single entry in a table of contents
type TOCEntry struct {
	Title   string
	Preview string
	Card    int // 0-based index of the section's first card
	Level   int
}

// Deck is a card sequence plus its table of contents.
type Deck struct {
	Title string
	Cards card.Sequence
	TOC   []TOCEntry
}

// Build segments each section separately, following its text cards with its
// image cards. Every titled section that produced cards gets a TOC entry.
func Build(doc ingest.Document, maxLength int) Deck {
	d := Deck{Title: doc.Title}
	for _, sec := range doc.Sections {
		start := len(d.Cards)
		d.Cards = append(d.Cards, segment.Cards(sec.Text, maxLength)...)
		for _, img := range sec.Images {
			d.Cards = append(d.Cards, card.NewImage(img))
		}
		if sec.Title == "" || len(d.Cards) == start {
			continue
		}
		d.TOC = append(d.TOC, TOCEntry{
			Title:   sec.Title,
			Preview: preview(sec.Text),
			Card:    start,
			Level:   sec.Level,
		})
	}
	return d
}

func preview(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > previewWords {
		return strings.Join(words[:previewWords], " ") + "..."
	}
	return strings.Join(words, " ")
}

// Chapter returns the index of the TOC entry covering card position pos, or
// -1 when pos lies before the first entry.
func (d Deck) Chapter(pos int) int {
	for i := len(d.TOC) - 1; i >= 0; i-- {
		if pos >= d.TOC[i].Card {
			return i
		}
	}
	return -1
}

// ChapterTitle returns the title of the entry covering pos.
func (d Deck) ChapterTitle(pos int) string {
	if i := d.Chapter(pos); i >= 0 {
		return d.TOC[i].Title
	}
	return ""
}
