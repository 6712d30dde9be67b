package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
)

// MarkdownParser handles Markdown files using goldmark. The markdown is
// rendered to HTML so headings, lists, and emphasis all become structure the
// range selector can address.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rendered bytes.Buffer
	if err := goldmark.New().Convert(src, &rendered); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	doc, err := fromMarkup(rendered.String(), "")
	if err != nil {
		return nil, err
	}
	doc.Title = firstHeadingText(doc.Root)
	if doc.Title == "" {
		doc.Title = stripExt(filename)
	}
	return doc, nil
}
