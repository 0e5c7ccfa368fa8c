package doctree

// Document is the positioned-text view of a source file as produced by a parser.
type Document struct {
	Pages []Page
}

// Page holds the blocks of one page in extraction order. Index is zero-based.
type Page struct {
	Index  int
	Blocks []Block
}

// BlockKind distinguishes text blocks from non-text content such as images.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockImage
)

// Block is a group of lines the extraction layer reported together.
type Block struct {
	Kind  BlockKind
	Lines []Line
}

// Line is one visual text line.
type Line struct {
	Spans []Span
}

// Span is a run of text sharing one font and size.
type Span struct {
	Text string
	Font string
	Size float64 // points
}

// Text returns the concatenated span text in order.
func (l Line) Text() string {
	switch len(l.Spans) {
	case 0:
		return ""
	case 1:
		return l.Spans[0].Text
	}
	n := 0
	for _, s := range l.Spans {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range l.Spans {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// FontSize returns the largest span size on the line, or 0 for an empty line.
func (l Line) FontSize() float64 {
	var max float64
	for _, s := range l.Spans {
		if s.Size > max {
			max = s.Size
		}
	}
	return max
}

// TextBlocks returns only the text blocks of the page.
func (p Page) TextBlocks() []Block {
	out := make([]Block, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		if b.Kind == BlockText {
			out = append(out, b)
		}
	}
	return out
}
