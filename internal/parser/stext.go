package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// MuPDF structured-text JSON, as written by `mutool draw -F stext.json`.
type stextDocument struct {
	Pages []stextPage `json:"pages"`
}

type stextPage struct {
	Blocks []stextBlock `json:"blocks"`
}

type stextBlock struct {
	Type  string      `json:"type"`
	Lines []stextLine `json:"lines"`
}

type stextLine struct {
	Font stextFont `json:"font"`
	Text string    `json:"text"`
}

type stextFont struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// StextParser reads MuPDF structured-text JSON. Each stext line carries a
// single font, so it becomes a one-span line.
type StextParser struct{}

func (p *StextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	var src stextDocument
	if err := json.NewDecoder(r).Decode(&src); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrExtraction, filename, err)
	}

	doc := &doctree.Document{Pages: make([]doctree.Page, 0, len(src.Pages))}
	for i, sp := range src.Pages {
		page := doctree.Page{Index: i}
		for _, sb := range sp.Blocks {
			if sb.Type != "text" {
				page.Blocks = append(page.Blocks, doctree.Block{Kind: doctree.BlockImage})
				continue
			}
			block := doctree.Block{Kind: doctree.BlockText}
			for _, sl := range sb.Lines {
				block.Lines = append(block.Lines, doctree.Line{
					Spans: []doctree.Span{{Text: sl.Text, Font: sl.Font.Name, Size: sl.Font.Size}},
				})
			}
			page.Blocks = append(page.Blocks, block)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}
