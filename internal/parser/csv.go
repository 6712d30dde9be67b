package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// CSVParser handles CSV files. The records are rendered as an HTML table,
// so individual cells are addressable elements.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var markup strings.Builder
	markup.WriteString("<table>")
	for i, row := range records {
		cell := "td"
		if i == 0 {
			// First row is headers.
			cell = "th"
		}
		markup.WriteString("<tr>")
		for _, field := range row {
			markup.WriteString("<" + cell + ">")
			markup.WriteString(html.EscapeString(field))
			markup.WriteString("</" + cell + ">")
		}
		markup.WriteString("</tr>")
	}
	markup.WriteString("</table>")

	return fromMarkup(markup.String(), stripExt(filename))
}
