package treepath

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseBody(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	var body *html.Node
	var find func(n *html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	if body == nil {
		t.Fatalf("no body element in %q", src)
	}
	return body
}

func nthElement(parent *html.Node, tag string, n int) *html.Node {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			n--
			if n == 0 {
				return c
			}
		}
	}
	return nil
}

func TestBuild_CountsSameTagSiblingsOnly(t *testing.T) {
	body := parseBody(t, "<h1>t</h1><p>a</p><div>x</div><p>b</p>")
	second := nthElement(body, "p", 2)

	path, err := Build(second, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(path))
	}
	// The h1 and div between the two paragraphs must not bump the index.
	if path[0].Name != "p" || path[0].Index != 2 {
		t.Errorf("expected p[2], got %s", path[0])
	}
}

func TestBuild_NestedPathIsRootFirst(t *testing.T) {
	body := parseBody(t, "<div><ul><li>a</li><li>b</li></ul></div>")
	li := nthElement(nthElement(nthElement(body, "div", 1), "ul", 1), "li", 2)

	path, err := Build(li, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Segment{{"div", 1}, {"ul", 1}, {"li", 2}}
	if len(path) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(path))
	}
	for i, seg := range want {
		if path[i] != seg {
			t.Errorf("segment %d: expected %s, got %s", i, seg, path[i])
		}
	}
}

func TestBuild_NotDescendant(t *testing.T) {
	body := parseBody(t, "<p>a</p>")
	other := parseBody(t, "<p>b</p>")

	_, err := Build(nthElement(other, "p", 1), body)
	if !errors.Is(err, ErrNotDescendant) {
		t.Fatalf("expected ErrNotDescendant, got %v", err)
	}
}

func TestLocate_RoundTripsBuild(t *testing.T) {
	body := parseBody(t, "<div><p>a</p></div><div><p>b</p><p>c</p></div>")
	target := nthElement(nthElement(body, "div", 2), "p", 2)

	path, err := Build(target, body)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := Locate(body, path)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if got != target {
		t.Errorf("locate returned a different element")
	}
}

func TestLocate_EmptyPathIsRoot(t *testing.T) {
	body := parseBody(t, "<p>a</p>")
	got, err := Locate(body, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != body {
		t.Errorf("expected root itself")
	}
}

func TestLocate_OutOfRangeIndex(t *testing.T) {
	body := parseBody(t, "<p>a</p>")
	_, err := Locate(body, []Segment{{Name: "p", Index: 3}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocate_CaseInsensitiveTagNames(t *testing.T) {
	body := parseBody(t, "<div><p>a</p></div>")
	got, err := Locate(body, []Segment{{Name: "DIV", Index: 1}, {Name: "P", Index: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Data != "p" {
		t.Errorf("expected p element, got %q", got.Data)
	}
}

func TestLocate_FindsReplacementElementAtSamePath(t *testing.T) {
	// Replace a paragraph with an equivalent one at the same position:
	// the structural path still resolves, to the new element.
	body := parseBody(t, "<p>old text</p>")
	original := nthElement(body, "p", 1)
	path, err := Build(original, body)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	replacement := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: original.DataAtom}
	replacement.AppendChild(&html.Node{Type: html.TextNode, Data: "new text"})
	body.InsertBefore(replacement, original)
	body.RemoveChild(original)

	got, err := Locate(body, path)
	if err != nil {
		t.Fatalf("locate after replacement: %v", err)
	}
	if got != replacement {
		t.Errorf("expected the replacement element at the original path")
	}
}
