package parser

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser reads positioned-text HTML such as `mutool draw -F html`
// produces: one div per page (id "page<N>"), one p per line, spans styled
// with font-size.
type HTMLParser struct{}

var (
	pageIDRe   = regexp.MustCompile(`^page\d+$`)
	fontSizeRe = regexp.MustCompile(`font-size\s*:\s*([0-9]*\.?[0-9]+)\s*(pt|px)?`)
)

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html %s: %v", ErrExtraction, filename, err)
	}

	pages := findPages(root)
	if len(pages) == 0 {
		if body := findElement(root, "body"); body != nil {
			pages = []*html.Node{body}
		}
	}

	doc := &doctree.Document{Pages: make([]doctree.Page, 0, len(pages))}
	for i, pn := range pages {
		doc.Pages = append(doc.Pages, htmlPage(pn, i))
	}
	return doc, nil
}

func htmlPage(n *html.Node, index int) doctree.Page {
	page := doctree.Page{Index: index}
	text := doctree.Block{Kind: doctree.BlockText}

	var walk func(*html.Node, float64)
	walk = func(n *html.Node, size float64) {
		if n.Type != html.ElementNode {
			return
		}
		size = styleFontSize(n, size)
		switch n.Data {
		case "img", "svg":
			page.Blocks = append(page.Blocks, doctree.Block{Kind: doctree.BlockImage})
			return
		case "script", "style":
			return
		case "p":
			text.Lines = append(text.Lines, htmlLine(n, size))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, size)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, styleFontSize(n, 0))
	}

	if len(text.Lines) > 0 {
		page.Blocks = append([]doctree.Block{text}, page.Blocks...)
	}
	return page
}

// htmlLine collects the text runs of a p element. Adjacent runs with the
// same size share a span.
func htmlLine(p *html.Node, size float64) doctree.Line {
	var line doctree.Line
	var collect func(*html.Node, float64)
	collect = func(n *html.Node, size float64) {
		switch n.Type {
		case html.TextNode:
			if n.Data == "" {
				return
			}
			if k := len(line.Spans); k > 0 && line.Spans[k-1].Size == size {
				line.Spans[k-1].Text += n.Data
				return
			}
			line.Spans = append(line.Spans, doctree.Span{Text: n.Data, Size: size})
		case html.ElementNode:
			if n.Data == "br" {
				collect(&html.Node{Type: html.TextNode, Data: " "}, size)
				return
			}
			size = styleFontSize(n, size)
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				collect(c, size)
			}
		}
	}
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		collect(c, size)
	}
	return line
}

// styleFontSize returns the font size declared in n's style attribute in
// points, or inherited when none is declared.
func styleFontSize(n *html.Node, inherited float64) float64 {
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		m := fontSizeRe.FindStringSubmatch(strings.ToLower(a.Val))
		if m == nil {
			return inherited
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return inherited
		}
		if m[2] == "px" {
			v *= 0.75
		}
		return v
	}
	return inherited
}

func findPages(n *html.Node) []*html.Node {
	var pages []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" && pageIDRe.MatchString(attr(n, "id")) {
			pages = append(pages, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return pages
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
