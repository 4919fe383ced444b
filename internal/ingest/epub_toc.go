package ingest

import (
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// ncxDoc is the part of a toc.ncx file the reader uses: the nested
// navigation points, each with a label and a target href.
type ncxDoc struct {
	Points []ncxPoint `xml:"navMap>navPoint"`
}

type ncxPoint struct {
	Label    string     `xml:"navLabel>text"`
	Target   ncxTarget  `xml:"content"`
	Children []ncxPoint `xml:"navPoint"`
}

type ncxTarget struct {
	Src string `xml:"src,attr"`
}

type tocTitle struct {
	title string
	level int
}

// parseNCX maps each NCX target href to the first title that points at it.
// Targets are recorded as written, without their fragment, and by base name.
func parseNCX(data []byte) (map[string]tocTitle, error) {
	var toc ncxDoc
	if err := xml.Unmarshal(data, &toc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX: %w", err)
	}

	result := make(map[string]tocTitle)
	add := func(key string, t tocTitle) {
		if _, exists := result[key]; !exists {
			result[key] = t
		}
	}

	var extract func(points []ncxPoint, level int)
	extract = func(points []ncxPoint, level int) {
		for _, np := range points {
			href := np.Target.Src
			t := tocTitle{title: strings.TrimSpace(np.Label), level: level}

			add(href, t)
			if idx := strings.Index(href, "#"); idx != -1 {
				href = href[:idx]
				add(href, t)
			}
			add(path.Base(href), t)

			extract(np.Children, level+1)
		}
	}
	extract(toc.Points, 0)

	return result, nil
}

// buildTOCHrefMap parses the book's NCX, returning an empty map when it is
// missing or malformed.
func buildTOCHrefMap(book *epub.Rootfile) map[string]tocTitle {
	ncxData, err := readNCX(book)
	if err != nil {
		return map[string]tocTitle{}
	}
	titles, err := parseNCX(ncxData)
	if err != nil {
		return map[string]tocTitle{}
	}
	return titles
}

func lookupTitle(titles map[string]tocTitle, href string) (tocTitle, bool) {
	if href == "" {
		return tocTitle{}, false
	}
	if t, ok := titles[href]; ok {
		return t, true
	}
	t, ok := titles[path.Base(href)]
	return t, ok
}

const ncxMediaType = "application/x-dtbncx+xml"

// readNCX returns the contents of the book's NCX manifest item. Books
// without one report ErrNoContent.
func readNCX(book *epub.Rootfile) ([]byte, error) {
	var item *epub.Item
	for i := range book.Manifest.Items {
		it := &book.Manifest.Items[i]
		if it.MediaType == ncxMediaType || strings.EqualFold(path.Ext(it.HREF), ".ncx") {
			item = it
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("no NCX in manifest: %w", ErrNoContent)
	}

	rc, err := item.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open NCX %s: %w", item.HREF, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read NCX %s: %w", item.HREF, err)
	}
	return data, nil
}
