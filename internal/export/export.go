// Package export renders outline results in the formats served by the API
// and written by the batch CLI.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/outline"
)

// ErrUnknownFormat is returned by ParseFormat for unrecognized format names.
var ErrUnknownFormat = errors.New("docoutline: unknown export format")

// Format names an output encoding.
type Format string

const (
	JSON     Format = "json"
	Markdown Format = "markdown"
	HTML     Format = "html"
	DOCX     Format = "docx"
	XLSX     Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{JSON, Markdown, HTML, DOCX, XLSX}

// ParseFormat maps a format name (or common alias) to a Format. An empty name
// selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "markdown", "md":
		return Markdown, nil
	case "html", "htm":
		return HTML, nil
	case "docx", "word":
		return DOCX, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case Markdown:
		return "text/markdown; charset=utf-8"
	case HTML:
		return "text/html; charset=utf-8"
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return ".md"
	case HTML:
		return ".html"
	case DOCX:
		return ".docx"
	case XLSX:
		return ".xlsx"
	default:
		return ".json"
	}
}

// Write encodes res to w in format f.
func Write(w io.Writer, res outline.Result, f Format) error {
	if res.Outline == nil {
		res.Outline = []outline.Entry{}
	}
	switch f {
	case JSON:
		return writeJSON(w, res)
	case Markdown:
		_, err := io.WriteString(w, renderMarkdown(res))
		return err
	case HTML:
		return writeHTML(w, res)
	case DOCX:
		return writeDOCX(w, res)
	case XLSX:
		return writeXLSX(w, res)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

func writeJSON(w io.Writer, res outline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
