// Package selector defines the serializable description of a document
// location. A Location carries up to three selector kinds, all describing
// the same span: a structural range, a pair of character offsets, and the
// quoted text with surrounding context. Selectors are created once and never
// mutated; resolving one is a pure read.
package selector

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/reanchor/internal/treepath"
	"github.com/tidwall/gjson"
)

// ContextLength is the number of characters of surrounding context captured
// for a quote selector at build time.
const ContextLength = 32

// Wire-format type discriminators.
const (
	TypeRange    = "RangeSelector"
	TypePosition = "TextPositionSelector"
	TypeQuote    = "TextQuoteSelector"
)

// ErrInvalidOffset indicates a negative offset in an offset-bearing
// selector. It is raised at construction or decode time, never at
// resolution.
var ErrInvalidOffset = errors.New("selector has negative offset")

// RangeSelector identifies a span by structural paths to its boundary
// elements plus character offsets into each element's own text stream.
type RangeSelector struct {
	StartPath   []treepath.Segment `json:"startPath"`
	StartOffset int                `json:"startOffset"`
	EndPath     []treepath.Segment `json:"endPath"`
	EndOffset   int                `json:"endOffset"`
}

func (s *RangeSelector) Validate() error {
	if s.StartOffset < 0 || s.EndOffset < 0 {
		return fmt.Errorf("range selector: %w", ErrInvalidOffset)
	}
	return nil
}

// TextPositionSelector identifies a span by character offsets into the
// root's whole text stream. Start > End is tolerated and collapses at
// resolution rather than failing.
type TextPositionSelector struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s *TextPositionSelector) Validate() error {
	if s.Start < 0 || s.End < 0 {
		return fmt.Errorf("position selector: %w", ErrInvalidOffset)
	}
	return nil
}

// TextQuoteSelector identifies a span by its literal text plus optional
// whitespace-normalized context snippets.
type TextQuoteSelector struct {
	Exact  string `json:"exact"`
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// Absent reports whether the selector carries no resolvable quote.
func (s *TextQuoteSelector) Absent() bool {
	return s == nil || s.Exact == ""
}

// Location is the persisted unit: an id plus the selectors for one span.
type Location struct {
	ID       string
	Range    *RangeSelector
	Position *TextPositionSelector
	Quote    *TextQuoteSelector
}

// wire mirrors the JSON shape: each selector object carries a type
// discriminator alongside its fields.
type wireLocation struct {
	ID       string          `json:"id"`
	Range    json.RawMessage `json:"rangeSelector,omitempty"`
	Position json.RawMessage `json:"textPositionSelector,omitempty"`
	Quote    json.RawMessage `json:"textQuoteSelector,omitempty"`
}

func (l Location) MarshalJSON() ([]byte, error) {
	out := map[string]any{"id": l.ID}
	if l.Range != nil {
		out["rangeSelector"] = struct {
			Type string `json:"type"`
			*RangeSelector
		}{TypeRange, l.Range}
	}
	if l.Position != nil {
		out["textPositionSelector"] = struct {
			Type string `json:"type"`
			*TextPositionSelector
		}{TypePosition, l.Position}
	}
	if !l.Quote.Absent() {
		out["textQuoteSelector"] = struct {
			Type string `json:"type"`
			*TextQuoteSelector
		}{TypeQuote, l.Quote}
	}
	return json.Marshal(out)
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var w wireLocation
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode location: %w", err)
	}
	*l = Location{ID: w.ID}

	if w.Range != nil {
		if err := checkType(w.Range, TypeRange); err != nil {
			return err
		}
		l.Range = &RangeSelector{}
		if err := json.Unmarshal(w.Range, l.Range); err != nil {
			return fmt.Errorf("decode range selector: %w", err)
		}
	}
	if w.Position != nil {
		if err := checkType(w.Position, TypePosition); err != nil {
			return err
		}
		l.Position = &TextPositionSelector{}
		if err := json.Unmarshal(w.Position, l.Position); err != nil {
			return fmt.Errorf("decode position selector: %w", err)
		}
	}
	if w.Quote != nil {
		if err := checkType(w.Quote, TypeQuote); err != nil {
			return err
		}
		l.Quote = &TextQuoteSelector{}
		if err := json.Unmarshal(w.Quote, l.Quote); err != nil {
			return fmt.Errorf("decode quote selector: %w", err)
		}
		if l.Quote.Absent() {
			l.Quote = nil
		}
	}
	return nil
}

// checkType peeks at the discriminator before committing to a full decode.
func checkType(raw json.RawMessage, want string) error {
	got := gjson.GetBytes(raw, "type").String()
	if got != want {
		return fmt.Errorf("selector type %q, expected %q", got, want)
	}
	return nil
}

// Empty reports whether the location carries no selector at all.
func (l Location) Empty() bool {
	return l.Range == nil && l.Position == nil && l.Quote.Absent()
}
