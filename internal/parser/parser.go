// Package parser loads documents of various formats into anchorable HTML
// trees. Whatever the source format, the result is a parsed HTML body whose
// text leaves carry the document's content, so selectors built against one
// parse can be resolved against a later re-parse of the same bytes.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed, anchorable document: the body element of an HTML
// tree plus a display title.
type Document struct {
	Title string
	Root  *html.Node
}

// Parser converts raw document bytes into an anchorable Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this package can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// fromMarkup parses generated HTML markup into a Document. The non-HTML
// parsers render their content to markup and funnel through here.
func fromMarkup(markup, title string) (*Document, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse generated markup: %w", err)
	}
	body := findBody(doc)
	if body == nil {
		return nil, fmt.Errorf("generated markup has no body")
	}
	return &Document{Title: title, Root: body}, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// firstHeadingText returns the text of the first h1-h6 under n, if any.
func firstHeadingText(n *html.Node) string {
	if n.Type == html.ElementNode && isHeading(n.Data) {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstHeadingText(c); t != "" {
			return t
		}
	}
	return ""
}

func isHeading(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// stripExt removes a filename extension for use as a fallback title.
func stripExt(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
