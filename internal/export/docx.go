package export

import (
	"fmt"
	"io"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/fumiama/go-docx"
)

// Run sizes in half-points, indexed by level.
var docxSizes = map[outline.Level]string{
	outline.H1: "32",
	outline.H2: "28",
	outline.H3: "24",
	outline.H4: "22",
}

func writeDOCX(w io.Writer, res outline.Result) error {
	doc := docx.New().WithDefaultTheme()

	if res.Title != "" {
		doc.AddParagraph().AddText(res.Title).Size("44").Bold()
	}
	for _, e := range res.Outline {
		size, ok := docxSizes[e.Level]
		if !ok {
			size = "22"
		}
		p := doc.AddParagraph()
		for i := outline.H1; i < e.Level; i++ {
			p.AddTab()
		}
		run := p.AddText(fmt.Sprintf("%s (p. %d)", e.Text, e.Page)).Size(size)
		if e.Level == outline.H1 {
			run.Bold()
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
