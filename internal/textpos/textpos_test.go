package textpos

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// parseBody parses an HTML fragment and returns its <body> element.
func parseBody(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	body := findElement(doc, "body")
	if body == nil {
		t.Fatalf("no body element in %q", src)
	}
	return body
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if e := findElement(c, tag); e != nil {
			return e
		}
	}
	return nil
}

func TestStream_ConcatenatesTextLeavesInDocumentOrder(t *testing.T) {
	body := parseBody(t, "<p>Hello <b>bold</b> world</p><p>second</p>")
	got := Stream(body)
	want := "Hello bold worldsecond"
	if got != want {
		t.Errorf("expected stream %q, got %q", want, got)
	}
}

func TestStream_IgnoresComments(t *testing.T) {
	body := parseBody(t, "<p>before<!-- hidden -->after</p>")
	got := Stream(body)
	if got != "beforeafter" {
		t.Errorf("expected comments excluded, got %q", got)
	}
}

func TestOffsetToPosition_RoundTripsAllOffsets(t *testing.T) {
	body := parseBody(t, "<p>one <i>two</i></p><div>three <span>four</span></div>")
	stream := Stream(body)

	for o := 0; o <= len(stream); o++ {
		pos, err := OffsetToPosition(body, o)
		if err != nil {
			t.Fatalf("offset %d: unexpected error: %v", o, err)
		}
		back, err := PositionToOffset(body, pos.Node, pos.Local)
		if err != nil {
			t.Fatalf("offset %d: position to offset: %v", o, err)
		}
		if back != o {
			t.Errorf("offset %d: round trip returned %d", o, back)
		}
	}
}

func TestOffsetToPosition_StreamLengthResolvesToEndOfLastLeaf(t *testing.T) {
	body := parseBody(t, "<p>abc</p><p>def</p>")
	stream := Stream(body)

	pos, err := OffsetToPosition(body, len(stream))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Node.Data != "def" {
		t.Errorf("expected last leaf %q, got %q", "def", pos.Node.Data)
	}
	if pos.Local != len("def") {
		t.Errorf("expected local offset %d, got %d", len("def"), pos.Local)
	}
}

func TestResolveOffsets_EmptyStreamZeroOffsetAnchorsToRoot(t *testing.T) {
	body := parseBody(t, "<p></p>")
	if n := StreamLength(body); n != 0 {
		t.Fatalf("expected empty stream, got length %d", n)
	}

	positions, err := ResolveOffsets(body, []int{0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	for i, pos := range positions {
		if pos.Node != body || pos.Local != 0 {
			t.Errorf("position %d: expected root boundary, got %+v", i, pos)
		}
		back, err := PositionToOffset(body, pos.Node, pos.Local)
		if err != nil {
			t.Fatalf("position %d: position to offset: %v", i, err)
		}
		if back != 0 {
			t.Errorf("position %d: expected offset 0, got %d", i, back)
		}
	}
}

func TestOffsetToPosition_BeyondStreamFails(t *testing.T) {
	body := parseBody(t, "<p>abc</p>")
	_, err := OffsetToPosition(body, 100)
	if !errors.Is(err, ErrOffsetOutOfRange) {
		t.Fatalf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestResolveOffsets_PartialResultsSurviveError(t *testing.T) {
	// Stream is 50 characters long.
	body := parseBody(t, "<p>"+strings.Repeat("x", 50)+"</p>")
	if n := StreamLength(body); n != 50 {
		t.Fatalf("expected stream length 50, got %d", n)
	}

	positions, err := ResolveOffsets(body, []int{0, 5, 100})
	if !errors.Is(err, ErrOffsetOutOfRange) {
		t.Fatalf("expected ErrOffsetOutOfRange, got %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 resolved positions alongside the error, got %d", len(positions))
	}
	if positions[0].Local != 0 || positions[1].Local != 5 {
		t.Errorf("expected locals 0 and 5, got %d and %d", positions[0].Local, positions[1].Local)
	}
}

func TestResolveOffsets_NegativeOffsetFails(t *testing.T) {
	body := parseBody(t, "<p>abc</p>")
	_, err := ResolveOffsets(body, []int{-1, 2})
	if !errors.Is(err, ErrInvalidOffset) {
		t.Fatalf("expected ErrInvalidOffset, got %v", err)
	}
}

func TestResolveOffsets_SpansMultipleLeaves(t *testing.T) {
	body := parseBody(t, "<p>abc<b>def</b>ghi</p>")

	positions, err := ResolveOffsets(body, []int{1, 4, 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLeaves := []string{"abc", "def", "ghi"}
	wantLocals := []int{1, 1, 1}
	for i, pos := range positions {
		if pos.Node.Data != wantLeaves[i] {
			t.Errorf("offset %d: expected leaf %q, got %q", i, wantLeaves[i], pos.Node.Data)
		}
		if pos.Local != wantLocals[i] {
			t.Errorf("offset %d: expected local %d, got %d", i, wantLocals[i], pos.Local)
		}
	}
}

func TestPositionToOffset_ElementBoundary(t *testing.T) {
	body := parseBody(t, "<p>abc</p><p>def</p>")
	second := body.FirstChild.NextSibling

	// Boundary before the second paragraph's first child.
	off, err := PositionToOffset(body, second, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off != 3 {
		t.Errorf("expected offset 3, got %d", off)
	}

	// Boundary after the second paragraph's last child.
	off, err = PositionToOffset(body, second, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off != 6 {
		t.Errorf("expected offset 6, got %d", off)
	}
}

func TestPositionToOffset_DetachedNodeFails(t *testing.T) {
	body := parseBody(t, "<p>abc</p>")
	other := parseBody(t, "<p>elsewhere</p>")
	leaf := other.FirstChild.FirstChild

	_, err := PositionToOffset(body, leaf, 0)
	if !errors.Is(err, ErrDetachedNode) {
		t.Fatalf("expected ErrDetachedNode, got %v", err)
	}
}

func TestText_CoversMultipleLeaves(t *testing.T) {
	body := parseBody(t, "<p>abc<b>def</b>ghi</p>")
	positions, err := ResolveOffsets(body, []int{1, 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Text(Span{Start: positions[0], End: positions[1]})
	if got != "bcdefgh" {
		t.Errorf("expected %q, got %q", "bcdefgh", got)
	}
}

func TestNormalize_MovesBoundariesOffRunEdges(t *testing.T) {
	body := parseBody(t, "<p>abc<b>def</b></p>")
	first := body.FirstChild.FirstChild           // "abc"
	bold := first.NextSibling                     // <b>
	second := bold.FirstChild                     // "def"

	s := Normalize(Span{
		Start: Position{Node: first, Local: 3},
		End:   Position{Node: second, Local: 2},
	})
	if s.Start.Node != second || s.Start.Local != 0 {
		t.Errorf("expected start at beginning of %q, got %q at %d", "def", s.Start.Node.Data, s.Start.Local)
	}

	s = Normalize(Span{
		Start: Position{Node: first, Local: 1},
		End:   Position{Node: second, Local: 0},
	})
	if s.End.Node != first || s.End.Local != 3 {
		t.Errorf("expected end at end of %q, got %q at %d", "abc", s.End.Node.Data, s.End.Local)
	}
}
