package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/reanchor/internal/textpos"
	"golang.org/x/net/html"
)

func TestTextParser_ParagraphsBecomeElements(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}

	stream := textpos.Stream(doc.Root)
	if !strings.Contains(stream, "First paragraph line two.") {
		t.Errorf("expected stream to contain first paragraph, got %q", stream)
	}
	if !strings.Contains(stream, "Second paragraph.") {
		t.Errorf("expected stream to contain second paragraph, got %q", stream)
	}

	paragraphs := countElements(doc, "p")
	if paragraphs != 2 {
		t.Errorf("expected 2 paragraph elements, got %d", paragraphs)
	}
}

func TestTextParser_EscapesMarkupCharacters(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader("a < b && b > c"), "cmp.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stream := textpos.Stream(doc.Root)
	if stream != "a < b && b > c" {
		t.Errorf("expected literal text back, got %q", stream)
	}
}

func TestHTMLParser_TitleAndBody(t *testing.T) {
	input := "<html><head><title>My Page</title></head><body><p>content here</p></body></html>"
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "My Page" {
		t.Errorf("expected title %q, got %q", "My Page", doc.Title)
	}
	if got := textpos.Stream(doc.Root); got != "content here" {
		t.Errorf("expected stream %q, got %q", "content here", got)
	}
}

func TestMarkdownParser_HeadingsBecomeStructure(t *testing.T) {
	input := "# Document Title\n\nSome intro text.\n\n## Section\n\nBody of the section."
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "readme.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Document Title" {
		t.Errorf("expected title from first heading, got %q", doc.Title)
	}
	if countElements(doc, "h2") != 1 {
		t.Errorf("expected one h2 element")
	}
	stream := textpos.Stream(doc.Root)
	if !strings.Contains(stream, "Body of the section.") {
		t.Errorf("expected section body in stream, got %q", stream)
	}
}

func TestCSVParser_CellsAreAddressable(t *testing.T) {
	input := "name,age\nalice,30\nbob,25\n"
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countElements(doc, "th") != 2 {
		t.Errorf("expected 2 header cells, got %d", countElements(doc, "th"))
	}
	if countElements(doc, "td") != 4 {
		t.Errorf("expected 4 data cells, got %d", countElements(doc, "td"))
	}
	stream := textpos.Stream(doc.Root)
	if !strings.Contains(stream, "alice") || !strings.Contains(stream, "25") {
		t.Errorf("expected cell contents in stream, got %q", stream)
	}
}

func TestForFile_Dispatch(t *testing.T) {
	cases := map[string]bool{
		"a.txt":  true,
		"b.md":   true,
		"c.html": true,
		"d.pdf":  true,
		"e.docx": true,
		"f.csv":  true,
		"g.xyz":  false,
	}
	for filename, ok := range cases {
		_, err := ForFile(filename)
		if ok && err != nil {
			t.Errorf("%s: unexpected error: %v", filename, err)
		}
		if !ok && err == nil {
			t.Errorf("%s: expected an error", filename)
		}
	}
}

func countElements(doc *Document, tag string) int {
	count := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.Root)
	return count
}
