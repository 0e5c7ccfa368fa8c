// Package outline infers a document title and a leveled heading outline from
// the font sizes and numbering of extracted text lines.
package outline

import (
	"github.com/dgallion1/docoutline/internal/doctree"
)

// Entry is one heading in the outline. Page is zero-based.
type Entry struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Result is the inferred structure of one document.
type Result struct {
	Title   string  `json:"title"`
	Outline []Entry `json:"outline"`
}

// Stats describes what the builder saw while producing a Result.
type Stats struct {
	Pages      int       `json:"pages"`
	Lines      int       `json:"lines"`
	Levels     []float64 `json:"levels"`
	Candidates int       `json:"candidates"`
	Dropped    int       `json:"dropped"`
	Rule       string    `json:"rule,omitempty"`
}

// Builder assembles outlines. It holds no per-document state and is safe for
// concurrent use.
type Builder struct {
	rules []Rule
}

// Option configures a Builder.
type Option func(*Builder)

// WithRules replaces the override rule table.
func WithRules(rules ...Rule) Option {
	return func(b *Builder) {
		b.rules = rules
	}
}

// NewBuilder returns a Builder using DefaultRules unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{rules: DefaultRules}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build infers the title and outline of doc.
func (b *Builder) Build(doc *doctree.Document) Result {
	res, _ := b.BuildWithStats(doc)
	return res
}

// BuildWithStats is Build plus the intermediate statistics.
func (b *Builder) BuildWithStats(doc *doctree.Document) (Result, Stats) {
	pages := FlattenDocument(doc)
	hist := CollectFontSizes(pages)
	levels := hist.Levels(MaxLevels)

	stats := Stats{Pages: len(pages), Levels: levels}
	for _, p := range pages {
		stats.Lines += len(p)
	}

	res := Result{Outline: []Entry{}}
	if len(pages) == 0 {
		return res, stats
	}
	res.Title = ExtractTitle(pages[0], levels)
	res.Outline = b.assemble(pages, levels, &stats)
	return res, stats
}

// assemble walks every page after the cover. Page 0 is reserved for the title.
func (b *Builder) assemble(pages []PageLines, levels []float64, stats *Stats) []Entry {
	entries := []Entry{}
	for pageNum := 1; pageNum < len(pages); pageNum++ {
		for _, c := range MergeHeadings(pages[pageNum], pageNum) {
			stats.Candidates++
			if !IsHeadingCandidate(c.Text) {
				stats.Dropped++
				continue
			}
			if rule, ok := matchRule(b.rules, c); ok {
				stats.Rule = rule.Name
				replaced := rule.Replace(c)
				if replaced == nil {
					replaced = []Entry{}
				}
				return replaced
			}
			level, ok := Classify(c.Text, c.Size, levels)
			if !ok {
				stats.Dropped++
				continue
			}
			entries = append(entries, Entry{Level: level, Text: c.Text, Page: c.Page})
		}
	}
	return entries
}
