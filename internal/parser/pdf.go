package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

const (
	// Glyphs whose baselines differ by less than this share a line.
	rowTolerance = 2.0

	// A horizontal gap wider than this fraction of the font size is a word break.
	wordGapRatio = 0.25

	// A vertical gap wider than this multiple of the font size starts a new block.
	blockGapRatio = 2.0
)

// PDFParser handles PDF files. It reads glyph runs with ledongthuc/pdf and,
// when enabled, falls back to MuPDF's structured-text export.
type PDFParser struct {
	FallbackMutool bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docoutline-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	doc, err := extractPDF(tmpPath)
	if err != nil && p.FallbackMutool {
		doc, err = extractMutool(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	return doc, nil
}

func extractPDF(path string) (*doctree.Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrExtraction, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	doc := &doctree.Document{Pages: make([]doctree.Page, 0, numPages)}
	for i := 1; i <= numPages; i++ {
		page := doctree.Page{Index: i - 1}
		p := reader.Page(i)
		if !p.V.IsNull() {
			texts, err := pageTexts(p)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i-1, err)
			}
			page.Blocks = groupTexts(texts)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

// pageTexts reads the glyph runs of one page. The library panics on some
// malformed content streams; that is reported as an extraction error.
func pageTexts(p pdflib.Page) (texts []pdflib.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts = nil
			err = fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()
	return p.Content().Text, nil
}

type glyphLine struct {
	y      float64
	glyphs []pdflib.Text
}

// groupTexts turns glyph runs in content-stream order into blocks of lines.
func groupTexts(texts []pdflib.Text) []doctree.Block {
	var rows []*glyphLine
	var cur *glyphLine
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if cur == nil || math.Abs(t.Y-cur.y) > rowTolerance {
			cur = &glyphLine{y: t.Y}
			rows = append(rows, cur)
		}
		cur.glyphs = append(cur.glyphs, t)
	}

	var blocks []doctree.Block
	var prev *glyphLine
	var prevSize float64
	for _, row := range rows {
		sort.SliceStable(row.glyphs, func(i, j int) bool { return row.glyphs[i].X < row.glyphs[j].X })
		line := buildLine(row.glyphs)
		if strings.TrimSpace(line.Text()) == "" {
			continue
		}
		size := line.FontSize()
		if prev == nil || math.Abs(prev.y-row.y) > blockGapRatio*math.Max(size, prevSize) {
			blocks = append(blocks, doctree.Block{Kind: doctree.BlockText})
		}
		last := &blocks[len(blocks)-1]
		last.Lines = append(last.Lines, line)
		prev, prevSize = row, size
	}
	return blocks
}

// buildLine merges X-ordered glyphs into spans of one font and size.
func buildLine(glyphs []pdflib.Text) doctree.Line {
	var line doctree.Line
	var sb strings.Builder
	var span doctree.Span
	var prevEnd float64
	flush := func() {
		if sb.Len() > 0 {
			span.Text = norm.NFC.String(sb.String())
			line.Spans = append(line.Spans, span)
		}
		sb.Reset()
	}

	for i, g := range glyphs {
		size := roundSize(g.FontSize)
		if i == 0 || g.Font != span.Font || size != span.Size {
			gap := i > 0 && g.X-prevEnd > wordGapRatio*size
			flush()
			span = doctree.Span{Font: g.Font, Size: size}
			if gap {
				sb.WriteByte(' ')
			}
		} else if g.X-prevEnd > wordGapRatio*size {
			sb.WriteByte(' ')
		}
		sb.WriteString(g.S)
		prevEnd = g.X + glyphWidth(g)
	}
	flush()
	return line
}

// glyphWidth falls back to an average advance when the font carries no widths.
func glyphWidth(g pdflib.Text) float64 {
	if g.W > 0 {
		return g.W
	}
	return 0.5 * math.Abs(g.FontSize) * float64(utf8.RuneCountInString(g.S))
}

// roundSize trims matrix arithmetic noise (11.999999 -> 12) from reported sizes.
func roundSize(size float64) float64 {
	return math.Round(math.Abs(size)*100) / 100
}

// extractMutool runs MuPDF's structured-text export and parses its JSON.
func extractMutool(path string) (*doctree.Document, error) {
	out := filepath.Join(filepath.Dir(path), strings.TrimSuffix(filepath.Base(path), ".pdf")+".stext.json")
	defer os.Remove(out)

	cmd := exec.Command("mutool", "draw", "-q", "-F", "stext.json", "-o", out, path)
	if msg, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: mutool: %v: %s", ErrExtraction, err, strings.TrimSpace(string(msg)))
	}
	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("%w: mutool output: %v", ErrExtraction, err)
	}
	defer f.Close()
	return (&StextParser{}).Parse(f, filepath.Base(path))
}
