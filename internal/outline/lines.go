package outline

import (
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// TextLine is the flattened (text, size) view of one extracted line.
type TextLine struct {
	Text string
	Size float64
}

// PageLines holds the non-empty lines of one page in document order.
type PageLines []TextLine

// Normalize trims s and collapses every internal whitespace run to a single space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FlattenPage reduces a page to its normalized lines. Non-text blocks are
// ignored and lines whose text normalizes to "" are dropped.
func FlattenPage(p doctree.Page) PageLines {
	var out PageLines
	for _, b := range p.TextBlocks() {
		for _, l := range b.Lines {
			text := Normalize(l.Text())
			if text == "" {
				continue
			}
			out = append(out, TextLine{Text: text, Size: l.FontSize()})
		}
	}
	return out
}

// FlattenDocument flattens every page of doc, keeping one entry per page so
// that slice indexes stay aligned with page indexes.
func FlattenDocument(doc *doctree.Document) []PageLines {
	if doc == nil {
		return nil
	}
	pages := make([]PageLines, len(doc.Pages))
	for i, p := range doc.Pages {
		pages[i] = FlattenPage(p)
	}
	return pages
}
