// Package resolve anchors a Location's selectors back onto a live document
// tree. Selector kinds are tried in a fixed priority order — structural
// range, then character offsets, then quoted text — because that order runs
// cheapest-and-most-precise first on unchanged documents and degrades to the
// most tolerant strategy as the document drifts. Range- and offset-resolved
// spans are cross-checked against the stored exact quote so silent structural
// drift is caught instead of returned.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/reanchor/internal/fuzzy"
	"github.com/dgallion1/reanchor/internal/selector"
	"github.com/dgallion1/reanchor/internal/textpos"
	"github.com/dgallion1/reanchor/internal/treepath"
	"golang.org/x/net/html"
)

// Method identifies which selector kind produced an anchor.
type Method string

const (
	MethodRange    Method = "range"
	MethodPosition Method = "text-position"
	MethodQuote    Method = "text-quote"
)

var (
	// ErrNoAnchor indicates that every present selector kind failed.
	// It is the only resolution error surfaced to callers; per-kind
	// failures are logged, not returned.
	ErrNoAnchor = errors.New("no anchor found")

	// ErrQuoteNotFound indicates the approximate matcher found nothing or
	// the context check rejected its best candidate.
	ErrQuoteNotFound = errors.New("quote not found")

	errQuoteMismatch = errors.New("resolved text does not match stored quote")
)

// Anchor is a successfully resolved span plus the method that produced it.
type Anchor struct {
	Span   textpos.Span
	Method Method
}

// Text returns the document text covered by the anchor.
func (a Anchor) Text() string {
	return textpos.Text(a.Span)
}

// Resolver anchors Locations against document roots. The zero value is not
// usable; construct with New.
type Resolver struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{log: log}
}

// Resolve tries the location's selector kinds in priority order and returns
// the first span that survives quote assertion. Absent kinds are skipped.
// When every present kind fails, the single error returned is ErrNoAnchor.
func (r *Resolver) Resolve(root *html.Node, loc selector.Location) (Anchor, error) {
	if loc.Empty() {
		return Anchor{}, fmt.Errorf("location %s has no selectors: %w", loc.ID, ErrNoAnchor)
	}
	log := r.log.With("location_id", loc.ID)

	if loc.Range != nil {
		span, err := r.resolveRange(root, loc)
		if err == nil {
			return Anchor{Span: span, Method: MethodRange}, nil
		}
		log.Debug("range selector failed", "error", err)
	}

	if loc.Position != nil {
		span, err := r.resolvePosition(root, loc)
		if err == nil {
			return Anchor{Span: span, Method: MethodPosition}, nil
		}
		log.Debug("position selector failed", "error", err)
	}

	if !loc.Quote.Absent() {
		span, err := r.resolveQuote(root, loc)
		if err == nil {
			return Anchor{Span: span, Method: MethodQuote}, nil
		}
		log.Debug("quote selector failed", "error", err)
	}

	return Anchor{}, fmt.Errorf("location %s: %w", loc.ID, ErrNoAnchor)
}

// resolveRange locates both boundary elements by structural path and places
// the offsets inside each element's own text stream.
func (r *Resolver) resolveRange(root *html.Node, loc selector.Location) (textpos.Span, error) {
	sel := loc.Range
	if err := sel.Validate(); err != nil {
		return textpos.Span{}, err
	}

	startEl, err := treepath.Locate(root, sel.StartPath)
	if err != nil {
		return textpos.Span{}, fmt.Errorf("start path: %w", err)
	}
	endEl, err := treepath.Locate(root, sel.EndPath)
	if err != nil {
		return textpos.Span{}, fmt.Errorf("end path: %w", err)
	}

	start, err := textpos.OffsetToPosition(startEl, sel.StartOffset)
	if err != nil {
		return textpos.Span{}, fmt.Errorf("start offset: %w", err)
	}
	end, err := textpos.OffsetToPosition(endEl, sel.EndOffset)
	if err != nil {
		return textpos.Span{}, fmt.Errorf("end offset: %w", err)
	}

	span := textpos.Normalize(textpos.Span{Start: start, End: end})
	if err := assertQuote(span, loc.Quote); err != nil {
		return textpos.Span{}, err
	}
	return span, nil
}

// resolvePosition maps the stream offsets directly. A reversed pair
// collapses to the end boundary rather than failing, matching the
// click-without-dragging case.
func (r *Resolver) resolvePosition(root *html.Node, loc selector.Location) (textpos.Span, error) {
	sel := loc.Position
	if err := sel.Validate(); err != nil {
		return textpos.Span{}, err
	}

	start, end := sel.Start, sel.End
	if start > end {
		start = end
	}
	positions, err := textpos.ResolveOffsets(root, []int{start, end})
	if err != nil {
		return textpos.Span{}, err
	}

	span := textpos.Normalize(textpos.Span{Start: positions[0], End: positions[1]})
	if err := assertQuote(span, loc.Quote); err != nil {
		return textpos.Span{}, err
	}
	return span, nil
}

// resolveQuote re-finds the stored exact text, using the position selector's
// start as a locality hint when present. No quote assertion follows: the
// matcher's result is its own evidence.
func (r *Resolver) resolveQuote(root *html.Node, loc selector.Location) (textpos.Span, error) {
	quote := loc.Quote
	stream := textpos.Stream(root)

	ctx := &fuzzy.Context{Prefix: quote.Prefix, Suffix: quote.Suffix}
	if loc.Position != nil && loc.Position.Start >= 0 {
		ctx.Hint = loc.Position.Start
		ctx.HasHint = true
	}

	m := fuzzy.Match(stream, quote.Exact, ctx)
	if m == nil {
		return textpos.Span{}, ErrQuoteNotFound
	}

	positions, err := textpos.ResolveOffsets(root, []int{m.Start, m.End})
	if err != nil {
		return textpos.Span{}, fmt.Errorf("map quote match: %w", err)
	}
	return textpos.Normalize(textpos.Span{Start: positions[0], End: positions[1]}), nil
}

// assertQuote rejects a structurally or positionally resolved span whose
// text has drifted from the stored exact quote.
func assertQuote(span textpos.Span, quote *selector.TextQuoteSelector) error {
	if quote.Absent() {
		return nil
	}
	if got := textpos.Text(span); got != quote.Exact {
		return fmt.Errorf("%w: got %q, want %q", errQuoteMismatch, got, quote.Exact)
	}
	return nil
}
