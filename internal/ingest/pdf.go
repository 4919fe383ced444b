package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rsc.io/pdf"
)

// PDFFormat implements Format for PDF files. Only text is extracted.
type PDFFormat struct{}

func init() {
	Register(&PDFFormat{})
}

func (f *PDFFormat) Name() string         { return "PDF" }
func (f *PDFFormat) Extensions() []string { return []string{".pdf"} }

// Extract returns one section per page that carries text.
func (f *PDFFormat) Extract(ctx context.Context, filename string) (doc Document, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return Document{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Document{}, err
	}

	// rsc.io/pdf reports malformed content streams by panicking.
	defer func() {
		if r := recover(); r != nil {
			doc, err = Document{}, fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return Document{}, fmt.Errorf("failed to open pdf: %w", err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text := pageText(p.Content().Text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc.Sections = append(doc.Sections, Section{
			Title: fmt.Sprintf("Page %d", i),
			Text:  text,
		})
	}
	return doc, nil
}

// pageText joins positioned glyph runs, inserting a space on a new line or a
// visible horizontal gap.
func pageText(runs []pdf.Text) string {
	var sb strings.Builder
	for i, t := range runs {
		if i > 0 {
			prev := runs[i-1]
			if t.Y != prev.Y || t.X > prev.X+prev.W+t.FontSize*0.15 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(t.S)
	}
	return sb.String()
}
