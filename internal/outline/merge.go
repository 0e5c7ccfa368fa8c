package outline

import "strings"

// Candidate is a merged heading line awaiting classification.
type Candidate struct {
	Text string
	Size float64
	Page int
}

// pendingHeading accumulates consecutive same-size lines.
type pendingHeading struct {
	parts  []string
	size   float64
	active bool
}

func (p *pendingHeading) start(line TextLine) {
	p.parts = append(p.parts[:0], line.Text)
	p.size = line.Size
	p.active = true
}

func (p *pendingHeading) extend(line TextLine) {
	p.parts = append(p.parts, line.Text)
}

func (p *pendingHeading) flush(page int) Candidate {
	c := Candidate{
		Text: Normalize(strings.Join(p.parts, " ")),
		Size: p.size,
		Page: page,
	}
	p.parts = p.parts[:0]
	p.active = false
	return c
}

// MergeHeadings scans one page and coalesces runs of plausible heading lines
// that share a font size into single candidates. Implausible lines are
// skipped without breaking the current run. The run keeps the size of its
// first line.
func MergeHeadings(lines PageLines, page int) []Candidate {
	var (
		out     []Candidate
		pending pendingHeading
	)
	for _, line := range lines {
		if !IsHeadingCandidate(line.Text) {
			continue
		}
		switch {
		case !pending.active:
			pending.start(line)
		case sameSize(line.Size, pending.size):
			pending.extend(line)
		default:
			out = append(out, pending.flush(page))
			pending.start(line)
		}
	}
	if pending.active {
		out = append(out, pending.flush(page))
	}
	return out
}
