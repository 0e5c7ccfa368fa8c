package outline

import "strings"

// ExtractTitle joins every first-page line set at the dominant size
// (levels[0]). The heading filter is not applied: short cover lines are
// legitimate title fragments.
func ExtractTitle(first PageLines, levels []float64) string {
	if len(first) == 0 || len(levels) == 0 {
		return ""
	}
	titleSize := levels[0]
	var parts []string
	for _, line := range first {
		if sameSize(line.Size, titleSize) {
			parts = append(parts, line.Text)
		}
	}
	return Normalize(strings.Join(parts, " "))
}
