package parser

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. The input is already the target
// representation, so parsing is direct: no markup generation step.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	body := findBody(doc)
	if body == nil {
		return nil, fmt.Errorf("document has no body")
	}

	title := findTitle(doc)
	if title == "" {
		title = firstHeadingText(body)
	}
	if title == "" {
		title = stripExt(filename)
	}

	return &Document{Title: title, Root: body}, nil
}
