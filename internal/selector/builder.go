package selector

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dgallion1/reanchor/internal/textpos"
	"github.com/dgallion1/reanchor/internal/treepath"
	"golang.org/x/net/html"
)

// Selection is a freshly made selection on the live tree. Boundary nodes may
// be text leaves (offset into the leaf) or elements (offset as child index).
type Selection struct {
	StartNode   *html.Node
	StartOffset int
	EndNode     *html.Node
	EndOffset   int
}

// Build derives all three selector kinds for a selection. The position and
// quote selectors are always produced for a mappable, non-empty selection;
// the range selector falls away silently when a structural path cannot be
// built (detached boundary), since a Location with fewer kinds is valid.
func Build(root *html.Node, sel Selection) (Location, error) {
	start, err := textpos.PositionToOffset(root, sel.StartNode, sel.StartOffset)
	if err != nil {
		return Location{}, fmt.Errorf("map selection start: %w", err)
	}
	end, err := textpos.PositionToOffset(root, sel.EndNode, sel.EndOffset)
	if err != nil {
		return Location{}, fmt.Errorf("map selection end: %w", err)
	}
	if end < start {
		start, end = end, start
	}

	loc := Location{
		Position: &TextPositionSelector{Start: start, End: end},
	}

	stream := textpos.Stream(root)
	exact := stream[start:end]
	if exact != "" {
		loc.Quote = &TextQuoteSelector{
			Exact:  exact,
			Prefix: contextPrefix(stream[:start]),
			Suffix: contextSuffix(stream[end:]),
		}
	}

	if r := buildRange(root, sel); r != nil {
		loc.Range = r
	}
	return loc, nil
}

// buildRange constructs the structural selector, or nil when either boundary
// cannot be anchored to an element under root.
func buildRange(root *html.Node, sel Selection) *RangeSelector {
	startEl := enclosingElement(sel.StartNode)
	endEl := enclosingElement(sel.EndNode)
	if startEl == nil || endEl == nil {
		return nil
	}

	startPath, err := treepath.Build(startEl, root)
	if err != nil {
		return nil
	}
	endPath, err := treepath.Build(endEl, root)
	if err != nil {
		return nil
	}

	// Boundary offsets are relative to each element's own text stream.
	startOff, err := textpos.PositionToOffset(startEl, sel.StartNode, sel.StartOffset)
	if err != nil {
		return nil
	}
	endOff, err := textpos.PositionToOffset(endEl, sel.EndNode, sel.EndOffset)
	if err != nil {
		return nil
	}

	return &RangeSelector{
		StartPath:   startPath,
		StartOffset: startOff,
		EndPath:     endPath,
		EndOffset:   endOff,
	}
}

func enclosingElement(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			return n
		}
	}
	return nil
}

// contextPrefix returns the trailing ContextLength characters of the
// whitespace-collapsed text before the selection, left-trimmed.
func contextPrefix(before string) string {
	collapsed := collapseWhitespace(before)
	runes := []rune(collapsed)
	if len(runes) > ContextLength {
		runes = runes[len(runes)-ContextLength:]
	}
	return strings.TrimLeftFunc(string(runes), unicode.IsSpace)
}

// contextSuffix returns the leading ContextLength characters of the
// whitespace-collapsed text after the selection, right-trimmed.
func contextSuffix(after string) string {
	collapsed := collapseWhitespace(after)
	runes := []rune(collapsed)
	if len(runes) > ContextLength {
		runes = runes[:ContextLength]
	}
	return strings.TrimRightFunc(string(runes), unicode.IsSpace)
}

// collapseWhitespace folds every run of whitespace into a single space.
// Interior spacing survives as one space each, which keeps snippets clean
// without losing the disambiguating word boundaries.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inRun = true
			continue
		}
		if inRun {
			b.WriteByte(' ')
		}
		inRun = false
		b.WriteRune(r)
	}
	if inRun {
		b.WriteByte(' ')
	}
	return b.String()
}
