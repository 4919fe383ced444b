package ingest

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// xhtmlContent is the readable content of one XHTML document.
type xhtmlContent struct {
	text    string
	heading string // first h1-h3, used when the book has no NCX entry
	level   int
	images  []string // image references in document order, as written
}

var headingLevels = map[string]int{"h1": 0, "h2": 1, "h3": 2}

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Head:   true,
	atom.Script: true,
	atom.Style:  true,
}

// blockTags separate the text before and after them. Inline elements keep
// their text joined to the surrounding words.
var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.Td: true, atom.Th: true, atom.Blockquote: true, atom.Section: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

func extractXHTML(s string) xhtmlContent {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return xhtmlContent{}
	}

	var out strings.Builder
	var c xhtmlContent
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			out.WriteString(n.Data)
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
			if ref := imageRef(n); ref != "" {
				c.images = append(c.images, ref)
			}
			if lvl, ok := headingLevels[n.Data]; ok && c.heading == "" {
				c.heading = collapseWhitespace(nodeText(n))
				c.level = lvl
			}
		}
		block := n.Type == html.ElementNode && blockTags[n.DataAtom]
		if block {
			out.WriteByte('\n')
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
		if block {
			out.WriteByte('\n')
		}
	}
	walk(doc)
	c.text = collapseWhitespace(out.String())
	return c
}

// nodeText concatenates the text below n as written.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && blockTags[ch.DataAtom] {
			sb.WriteByte(' ')
		}
		sb.WriteString(nodeText(ch))
	}
	return sb.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// imageRef returns the source of an <img> or SVG <image> element.
func imageRef(n *html.Node) string {
	var key string
	switch n.Data {
	case "img":
		key = "src"
	case "image":
		key = "href" // xlink:href parses as namespace xlink, key href
	default:
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key && a.Val != "" && !strings.HasPrefix(a.Val, "data:") {
			return a.Val
		}
	}
	return ""
}

func extractTextFromHTML(s string) string {
	return extractXHTML(s).text
}
