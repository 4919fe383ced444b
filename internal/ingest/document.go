// Package ingest extracts raw text and images from documents for paging.
package ingest

import (
	"errors"
	"strings"

	"github.com/metcalfc/cardr/internal/card"
)

var (
	// ErrNoContent indicates the document parsed but held nothing readable.
	ErrNoContent = errors.New("ingest: no readable content")

	// ErrUnsupported indicates no registered format handles the file.
	ErrUnsupported = errors.New("ingest: unsupported format")
)

// Section is a titled run of text with the images that belong to it.
type Section struct {
	Title  string
	Level  int
	Text   string
	Images []card.Image
}

// Document is the output of an extraction.
type Document struct {
	Title    string
	Sections []Section
}

// FromText wraps plain text as a single untitled section.
func FromText(text string) Document {
	return Document{Sections: []Section{{Text: text}}}
}

// Text returns the text of all sections joined with spaces.
func (d Document) Text() string {
	parts := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Images returns the images of all sections in reading order.
func (d Document) Images() []card.Image {
	var out []card.Image
	for _, s := range d.Sections {
		out = append(out, s.Images...)
	}
	return out
}

// Empty reports whether the document has neither text nor images.
func (d Document) Empty() bool {
	for _, s := range d.Sections {
		if strings.TrimSpace(s.Text) != "" || len(s.Images) > 0 {
			return false
		}
	}
	return true
}
