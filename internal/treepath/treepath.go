// Package treepath builds and resolves structural paths: root-relative
// sequences of (tag name, occurrence index) segments identifying an element
// inside an HTML tree. Paths survive re-parsing an unchanged document and
// tolerate attribute churn, but they do not survive structural edits — that
// is what the quote-assertion fallback in the resolution engine is for.
package treepath

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var (
	// ErrNotDescendant indicates a path build attempted across a root that
	// is not an ancestor of the element.
	ErrNotDescendant = errors.New("element is not a descendant of root")

	// ErrNotFound indicates a path segment with no matching element.
	ErrNotFound = errors.New("no element at path")
)

// Segment is one step of a structural path: a tag name and the 1-based
// occurrence index among same-tag siblings at that level. Tag names are
// compared case-insensitively.
type Segment struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

func (s Segment) String() string {
	return fmt.Sprintf("%s[%d]", s.Name, s.Index)
}

// Build walks parent pointers from element up to root and returns the path
// from root down to element. Only elements of the same tag name increment
// the occurrence counter; siblings of other names are skipped.
func Build(element, root *html.Node) ([]Segment, error) {
	var path []Segment
	for n := element; n != root; n = n.Parent {
		if n == nil {
			return nil, ErrNotDescendant
		}
		if n.Type != html.ElementNode {
			continue
		}
		path = append(path, Segment{Name: strings.ToLower(n.Data), Index: occurrence(n)})
	}

	// Built bottom-up; reverse into root-first order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// occurrence counts the element's 1-based position among preceding siblings
// of the same tag name.
func occurrence(n *html.Node) int {
	index := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && strings.EqualFold(sib.Data, n.Data) {
			index++
		}
	}
	return index
}

// Locate replays a path from root, taking the Nth matching child at each
// level. An empty path resolves to root itself.
func Locate(root *html.Node, path []Segment) (*html.Node, error) {
	current := root
	for _, seg := range path {
		next := nthChild(current, seg)
		if next == nil {
			return nil, fmt.Errorf("segment %s: %w", seg, ErrNotFound)
		}
		current = next
	}
	return current, nil
}

func nthChild(parent *html.Node, seg Segment) *html.Node {
	remaining := seg.Index
	if remaining < 1 {
		return nil
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, seg.Name) {
			remaining--
			if remaining == 0 {
				return c
			}
		}
	}
	return nil
}
