package ingest

import (
	"context"
	"fmt"
	"io"
	"path"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/sync/errgroup"

	"github.com/metcalfc/cardr/internal/card"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Extract reads every spine item in order. Items are parsed concurrently;
// an item that cannot be read is skipped.
func (f *EPUBFormat) Extract(ctx context.Context, filename string) (Document, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return Document{}, fmt.Errorf("no rootfiles found in epub: %w", ErrNoContent)
	}

	book := rc.Rootfiles[0]
	titles := buildTOCHrefMap(book)
	items := manifestByHref(book)

	refs := book.Spine.Itemrefs
	sections := make([]Section, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, ref := range refs {
		if ref.Item == nil {
			continue
		}
		i, ref := i, ref
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sec, ok := readSpineItem(ref.Item, items)
			if !ok {
				return nil
			}
			if t, ok := lookupTitle(titles, ref.Item.HREF); ok {
				sec.Title, sec.Level = t.title, t.level
			}
			sections[i] = sec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Document{}, err
	}

	doc := Document{Title: strings.TrimSpace(book.Metadata.Title)}
	for _, sec := range sections {
		if strings.TrimSpace(sec.Text) == "" && len(sec.Images) == 0 {
			continue
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc, nil
}

func readSpineItem(item *epub.Item, items map[string]*epub.Item) (Section, bool) {
	data, err := readItem(item)
	if err != nil {
		return Section{}, false
	}
	content := extractXHTML(string(data))

	sec := Section{Title: content.heading, Level: content.level, Text: content.text}
	base := path.Dir(item.HREF)
	for _, ref := range content.images {
		img, ok := items[path.Join(base, ref)]
		if !ok {
			img, ok = items[path.Base(ref)]
		}
		if !ok || !strings.HasPrefix(img.MediaType, "image/") {
			continue
		}
		payload, err := readItem(img)
		if err != nil {
			continue
		}
		sec.Images = append(sec.Images, card.Image{
			ID:        imageID(payload),
			Name:      path.Base(img.HREF),
			MediaType: img.MediaType,
			Data:      payload,
		})
	}
	return sec, true
}

func readItem(item *epub.Item) ([]byte, error) {
	r, err := item.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// manifestByHref indexes manifest items by cleaned href and by base name.
func manifestByHref(book *epub.Rootfile) map[string]*epub.Item {
	m := make(map[string]*epub.Item)
	for i := range book.Manifest.Items {
		item := &book.Manifest.Items[i]
		m[path.Clean(item.HREF)] = item
		if _, exists := m[path.Base(item.HREF)]; !exists {
			m[path.Base(item.HREF)] = item
		}
	}
	return m
}

// imageID derives a stable identifier from image content.
func imageID(data []byte) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, data).String()
}
