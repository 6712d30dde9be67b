// Package textpos maps between flat character offsets in a document's text
// stream and (node, local offset) positions on the underlying HTML tree.
//
// The text stream of a root is the concatenation of every text leaf under it
// in document order. Comments and processing instructions carry no text leaves
// and are therefore never part of the stream. The stream is derived on demand;
// it is never stored. All offsets are byte offsets into the UTF-8 stream.
package textpos

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var (
	// ErrInvalidOffset indicates a negative offset.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrOffsetOutOfRange indicates an offset beyond the stream length.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrDetachedNode indicates a node that is not under the given root.
	ErrDetachedNode = errors.New("node is not under root")
)

// Position is a point inside a text leaf: the leaf and a byte offset into it.
// Local may equal len(Node.Data), which denotes the end of the leaf. Node may
// also be an element, in which case Local is a child index and the position
// is the boundary before that child.
type Position struct {
	Node  *html.Node
	Local int
}

// Span is a contiguous region between two positions, start inclusive,
// end exclusive. Spans are computed functionally; resolving one never
// mutates the tree.
type Span struct {
	Start Position
	End   Position
}

// Stream returns the full text stream under root.
func Stream(root *html.Node) string {
	var b strings.Builder
	walkText(root, func(n *html.Node) bool {
		b.WriteString(n.Data)
		return true
	})
	return b.String()
}

// StreamLength returns the length of the text stream under root.
func StreamLength(root *html.Node) int {
	total := 0
	walkText(root, func(n *html.Node) bool {
		total += len(n.Data)
		return true
	})
	return total
}

// walkText visits every text leaf under root in document order.
// The visitor returns false to stop the walk early.
func walkText(root *html.Node, visit func(n *html.Node) bool) bool {
	if root.Type == html.TextNode {
		return visit(root)
	}
	if root.Type == html.CommentNode {
		return true
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if !walkText(c, visit) {
			return false
		}
	}
	return true
}

// OffsetToPosition resolves a single stream offset to a position.
// An offset equal to the stream length resolves to the end of the last
// text leaf rather than failing.
func OffsetToPosition(root *html.Node, offset int) (Position, error) {
	positions, err := ResolveOffsets(root, []int{offset})
	if err != nil {
		return Position{}, err
	}
	return positions[0], nil
}

// ResolveOffsets resolves several stream offsets in a single forward pass
// over the text leaves. Offsets must be sorted ascending. The returned slice
// holds the positions resolved before the first failure; when an offset is
// negative or beyond the stream, those positions are returned alongside the
// error so callers lose neither.
func ResolveOffsets(root *html.Node, offsets []int) ([]Position, error) {
	positions := make([]Position, 0, len(offsets))
	if len(offsets) == 0 {
		return positions, nil
	}

	if offsets[0] < 0 {
		return positions, fmt.Errorf("resolve offset %d: %w", offsets[0], ErrInvalidOffset)
	}
	i := 0

	at := 0
	var last *html.Node
	walkText(root, func(n *html.Node) bool {
		end := at + len(n.Data)
		for i < len(offsets) && offsets[i] < end {
			positions = append(positions, Position{Node: n, Local: offsets[i] - at})
			i++
		}
		at = end
		last = n
		return i < len(offsets)
	})

	// Offsets equal to the stream length land at the end of the last leaf.
	// A root with no text leaves still has the zero-length boundary; anchor
	// it to the root element itself (local is a child index there).
	for i < len(offsets) && offsets[i] == at {
		if last != nil {
			positions = append(positions, Position{Node: last, Local: len(last.Data)})
		} else {
			positions = append(positions, Position{Node: root, Local: 0})
		}
		i++
	}
	if i < len(offsets) {
		return positions, fmt.Errorf("resolve offset %d in stream of length %d: %w",
			offsets[i], at, ErrOffsetOutOfRange)
	}
	return positions, nil
}

// PositionToOffset maps a position back to a flat stream offset under root.
// For a text leaf, local is a byte offset into the leaf. For an element,
// local is interpreted as a child index and the boundary before that child
// (or the end of the element, when local equals the child count) is used.
func PositionToOffset(root, node *html.Node, local int) (int, error) {
	if local < 0 {
		return 0, fmt.Errorf("local offset %d: %w", local, ErrInvalidOffset)
	}

	switch node.Type {
	case html.TextNode:
		if local > len(node.Data) {
			return 0, fmt.Errorf("local offset %d in text of length %d: %w",
				local, len(node.Data), ErrOffsetOutOfRange)
		}
		start, err := offsetOfSubtreeStart(root, node)
		if err != nil {
			return 0, err
		}
		return start + local, nil

	case html.ElementNode, html.DocumentNode:
		child := node.FirstChild
		for range local {
			if child == nil {
				return 0, fmt.Errorf("child index %d: %w", local, ErrOffsetOutOfRange)
			}
			child = child.NextSibling
		}
		if child != nil {
			return offsetOfSubtreeStart(root, child)
		}
		// Boundary after the last child: start of the element plus all
		// of its own text.
		start, err := offsetOfSubtreeStart(root, node)
		if err != nil {
			return 0, err
		}
		return start + StreamLength(node), nil

	default:
		return 0, fmt.Errorf("node type %d: %w", node.Type, ErrDetachedNode)
	}
}

// offsetOfSubtreeStart counts the text strictly before target in document
// order under root.
func offsetOfSubtreeStart(root, target *html.Node) (int, error) {
	at := 0
	found := false
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n == target {
			found = true
			return false
		}
		if n.Type == html.TextNode {
			at += len(n.Data)
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)
	if !found {
		return 0, ErrDetachedNode
	}
	return at, nil
}

// Text returns the stream content covered by a span.
func Text(s Span) string {
	if s.Start.Node == nil || s.End.Node == nil {
		return ""
	}
	if s.Start.Node == s.End.Node {
		start, end := s.Start.Local, s.End.Local
		if start > end {
			return ""
		}
		return clamp(s.Start.Node.Data, start, end)
	}

	var b strings.Builder
	b.WriteString(clamp(s.Start.Node.Data, s.Start.Local, len(s.Start.Node.Data)))
	for n := nextTextLeaf(s.Start.Node); n != nil; n = nextTextLeaf(n) {
		if n == s.End.Node {
			b.WriteString(clamp(n.Data, 0, s.End.Local))
			return b.String()
		}
		b.WriteString(n.Data)
	}
	return b.String()
}

// Normalize nudges span boundaries onto the most natural leaves: a start
// sitting at the very end of a leaf moves to the beginning of the next
// non-empty leaf, and an end sitting at the very beginning of a leaf moves
// to the end of the previous non-empty leaf. Collapsed spans are returned
// unchanged.
func Normalize(s Span) Span {
	if s.Start == s.End {
		return s
	}
	for s.Start.Node != nil && s.Start.Local == len(s.Start.Node.Data) {
		next := nextTextLeaf(s.Start.Node)
		if next == nil || s.Start.Node == s.End.Node {
			break
		}
		s.Start = Position{Node: next, Local: 0}
	}
	for s.End.Node != nil && s.End.Local == 0 && s.End.Node != s.Start.Node {
		prev := prevTextLeaf(s.End.Node)
		if prev == nil {
			break
		}
		s.End = Position{Node: prev, Local: len(prev.Data)}
	}
	return s
}

// nextTextLeaf returns the text leaf following n in document order, or nil.
func nextTextLeaf(n *html.Node) *html.Node {
	for n != nil {
		if n.NextSibling != nil {
			if leaf := firstTextLeaf(n.NextSibling); leaf != nil {
				return leaf
			}
			n = n.NextSibling
			continue
		}
		n = n.Parent
	}
	return nil
}

// prevTextLeaf returns the text leaf preceding n in document order, or nil.
func prevTextLeaf(n *html.Node) *html.Node {
	for n != nil {
		if n.PrevSibling != nil {
			if leaf := lastTextLeaf(n.PrevSibling); leaf != nil {
				return leaf
			}
			n = n.PrevSibling
			continue
		}
		n = n.Parent
	}
	return nil
}

func firstTextLeaf(n *html.Node) *html.Node {
	if n.Type == html.TextNode {
		return n
	}
	if n.Type == html.CommentNode {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if leaf := firstTextLeaf(c); leaf != nil {
			return leaf
		}
	}
	return nil
}

func lastTextLeaf(n *html.Node) *html.Node {
	if n.Type == html.TextNode {
		return n
	}
	if n.Type == html.CommentNode {
		return nil
	}
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if leaf := lastTextLeaf(c); leaf != nil {
			return leaf
		}
	}
	return nil
}

func clamp(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}
