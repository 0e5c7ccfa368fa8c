package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/yuin/goldmark"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`&`, `\&`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`#`, `\#`,
	`<`, `\<`,
	`>`, `\>`,
	`|`, `\|`,
)

// A line opening with one of these would start a nested list.
var listMarker = regexp.MustCompile(`^(\d{1,9}[.)]|[-+])(\s|$)`)

func escapeMarkdown(s string) string {
	s = markdownEscaper.Replace(s)
	if listMarker.MatchString(s) {
		if s[0] == '-' || s[0] == '+' {
			return `\` + s
		}
		i := strings.IndexAny(s, ".)")
		return s[:i] + `\` + s[i:]
	}
	return s
}

// renderMarkdown writes the title as a top-level heading followed by the
// outline as a bullet list nested by level.
func renderMarkdown(res outline.Result) string {
	var b strings.Builder
	if res.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(res.Title))
	}
	if len(res.Outline) == 0 {
		b.WriteString("_No headings found._\n")
		return b.String()
	}
	// Items nest at most one step below the previous item.
	prev := -1
	for _, e := range res.Outline {
		depth := max(int(e.Level)-1, 0)
		depth = min(depth, prev+1)
		prev = depth
		fmt.Fprintf(&b, "%s- %s (p. %d)\n", strings.Repeat("  ", depth), escapeMarkdown(e.Text), e.Page)
	}
	return b.String()
}

func writeHTML(w io.Writer, res outline.Result) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(renderMarkdown(res)), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	title := res.Title
	if title == "" {
		title = "Outline"
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(title), body.String())
	return err
}
