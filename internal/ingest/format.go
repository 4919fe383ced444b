package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format defines a file format reader for extracting documents.
type Format interface {
	Name() string
	Extensions() []string
	Extract(ctx context.Context, filename string) (Document, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Lookup returns the registered format for filename's extension.
func Lookup(filename string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f, true
			}
		}
	}
	return nil, false
}

// Extract reads a document using a registered format, falling back to plain
// text for unknown extensions. Binary files without a format are reported as
// ErrUnsupported and documents with nothing readable as ErrNoContent.
func Extract(ctx context.Context, filename string) (Document, error) {
	var (
		doc Document
		err error
	)
	if f, ok := Lookup(filename); ok {
		doc, err = f.Extract(ctx, filename)
	} else {
		doc, err = extractPlain(filename)
	}
	if err != nil {
		return Document{}, err
	}
	if doc.Empty() {
		return Document{}, fmt.Errorf("%s: %w", filepath.Base(filename), ErrNoContent)
	}
	return doc, nil
}

func extractPlain(filename string) (Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Document{}, err
	}
	if !utf8.Valid(data) {
		return Document{}, fmt.Errorf("%s: %w", filepath.Base(filename), ErrUnsupported)
	}
	return FromText(string(data)), nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
