package outline

import (
	"fmt"
	"regexp"
	"strings"
)

// Level is a heading depth, H1 through H4.
type Level int

const (
	H1 Level = iota + 1
	H2
	H3
	H4
)

func (l Level) String() string {
	if l < H1 || l > H4 {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return fmt.Sprintf("H%d", int(l))
}

// Valid reports whether l is one of H1..H4.
func (l Level) Valid() bool {
	return l >= H1 && l <= H4
}

// MarshalText encodes the level as "H1".."H4".
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid heading level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes "H1".."H4".
func (l *Level) UnmarshalText(b []byte) error {
	lv, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = lv
	return nil
}

// ParseLevel parses "H1".."H4" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "H1":
		return H1, nil
	case "H2":
		return H2, nil
	case "H3":
		return H3, nil
	case "H4":
		return H4, nil
	}
	return 0, fmt.Errorf("invalid heading level %q", s)
}

func levelForDepth(depth int) Level {
	if depth > int(H4) {
		return H4
	}
	return Level(depth)
}

// numberingPrefix matches "4 ", "3. ", "2.1 ", "2.1.3.4." and the like.
var numberingPrefix = regexp.MustCompile(`^(\d+(?:\.\d+){0,3})[.\s]`)

// NumberingDepth returns the number of dotted numeric components that prefix
// text, or 0 when there is no numbering prefix.
func NumberingDepth(text string) int {
	m := numberingPrefix.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return strings.Count(m[1], ".") + 1
}

// Classify assigns a heading level. An explicit numbering prefix wins over
// font size; otherwise the first level size within tolerance decides. When
// neither applies the candidate is not a heading and ok is false.
func Classify(text string, size float64, levels []float64) (level Level, ok bool) {
	if depth := NumberingDepth(text); depth > 0 {
		return levelForDepth(depth), true
	}
	for i, s := range levels {
		if sameSize(size, s) {
			return levelForDepth(i + 1), true
		}
	}
	return 0, false
}
