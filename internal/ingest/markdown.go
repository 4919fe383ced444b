package ingest

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/metcalfc/cardr/internal/card"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// Extract splits the file into one section per heading. Local images the
// document links to are attached to the section they appear in.
func (f *MarkdownFormat) Extract(ctx context.Context, filename string) (Document, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	return parseMarkdown(src, filepath.Dir(filename)), nil
}

func parseMarkdown(src []byte, dir string) Document {
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var doc Document
	var cur Section
	var body strings.Builder

	flush := func() {
		cur.Text = strings.TrimSpace(body.String())
		if cur.Title != "" || cur.Text != "" || len(cur.Images) > 0 {
			doc.Sections = append(doc.Sections, cur)
		}
		cur = Section{}
		body.Reset()
	}

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if !entering {
				return ast.WalkContinue, nil
			}
			flush()
			title := strings.TrimSpace(inlineText(node, src))
			cur = Section{Title: title, Level: node.Level - 1} // h1 = level 0
			if doc.Title == "" && node.Level == 1 {
				doc.Title = title
			}
			body.WriteString(title)
			body.WriteString(" ")
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if entering {
				body.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					body.WriteString(" ")
				}
			}

		case *ast.String:
			if entering {
				body.Write(node.Value)
			}

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					body.Write(seg.Value(src))
					body.WriteString(" ")
				}
			}

		case *ast.Image:
			if entering {
				if img, ok := loadLocalImage(dir, string(node.Destination)); ok {
					cur.Images = append(cur.Images, img)
				}
			}

		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil

		default:
			if !entering && n.Type() == ast.TypeBlock {
				body.WriteString(" ")
			}
		}
		return ast.WalkContinue, nil
	})
	flush()

	return doc
}

// inlineText collects the literal text below n.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				sb.WriteString(" ")
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// loadLocalImage reads an image referenced by a relative path.
func loadLocalImage(dir, dest string) (card.Image, bool) {
	if dest == "" || strings.Contains(dest, "://") || strings.HasPrefix(dest, "data:") {
		return card.Image{}, false
	}
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(dest)))
	if !strings.HasPrefix(mediaType, "image/") {
		return card.Image{}, false
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(dest)))
	if err != nil {
		return card.Image{}, false
	}
	return card.Image{
		ID:        imageID(data),
		Name:      filepath.Base(dest),
		MediaType: mediaType,
		Data:      data,
	}, true
}
