// Package fuzzy re-finds quoted text inside a document's flat text stream,
// tolerating a bounded number of character edits. Candidates are ranked by a
// weighted blend of quote similarity, surrounding-context similarity, and
// distance from an optional positional hint, but surrounding context is also
// verified literally: approximate scoring ranks candidates, it never accepts
// a context mismatch.
package fuzzy

import "strings"

const (
	// maxErrorBudget caps the edit-distance allowance regardless of quote
	// length, bounding worst-case search cost.
	maxErrorBudget = 256

	// strictContextWindow is the fixed window, in characters, for the
	// literal prefix/suffix containment check applied to the winner.
	strictContextWindow = 64

	quoteWeight  = 50.0
	prefixWeight = 20.0
	suffixWeight = 20.0
	posWeight    = 2.0
	totalWeight  = quoteWeight + prefixWeight + suffixWeight + posWeight
)

// Context carries optional disambiguation hints for a quote match.
type Context struct {
	Prefix  string
	Suffix  string
	Hint    int  // expected start offset in the text
	HasHint bool // whether Hint is meaningful
}

// Result is the best-scoring placement of a quote in the text.
type Result struct {
	Start  int
	End    int
	Errors int
	Score  float64 // in [0, 1]
}

// Match finds the best occurrence of quote in text. It returns nil when
// quote or text is empty, when no occurrence fits the error budget, or when
// a supplied prefix/suffix does not literally appear next to the winner.
func Match(text, quote string, ctx *Context) *Result {
	if quote == "" || text == "" {
		return nil
	}

	// Exact occurrences short-circuit the edit-distance search.
	cands := exactOccurrences(text, quote)
	if len(cands) == 0 {
		budget := len(quote) / 2
		if budget > maxErrorBudget {
			budget = maxErrorBudget
		}
		cands = findMatches(text, quote, budget)
	}
	if len(cands) == 0 {
		return nil
	}

	best := cands[0]
	bestScore := score(text, quote, best, ctx)
	for _, c := range cands[1:] {
		if s := score(text, quote, c, ctx); s > bestScore {
			best, bestScore = c, s
		}
	}

	if ctx != nil && !literalContextCheck(text, best, ctx) {
		return nil
	}
	return &Result{Start: best.start, End: best.end, Errors: best.errors, Score: bestScore}
}

// score blends quote, context, and positional similarity into [0, 1].
func score(text, quote string, c candidate, ctx *Context) float64 {
	quoteScore := 1.0 - float64(c.errors)/float64(len(quote))

	prefixScore, suffixScore, posScore := 1.0, 1.0, 1.0
	if ctx != nil {
		if ctx.Prefix != "" {
			window := text[max(0, c.start-len(ctx.Prefix)):c.start]
			prefixScore = similarity(window, ctx.Prefix)
		}
		if ctx.Suffix != "" {
			window := text[c.end:min(len(text), c.end+len(ctx.Suffix))]
			suffixScore = similarity(window, ctx.Suffix)
		}
		if ctx.HasHint {
			drift := ctx.Hint - c.start
			if drift < 0 {
				drift = -drift
			}
			posScore = 1.0 - float64(drift)/float64(len(text))
			if posScore < 0 {
				posScore = 0
			}
		}
	}

	sum := quoteScore*quoteWeight + prefixScore*prefixWeight + suffixScore*suffixWeight + posScore*posWeight
	return sum / totalWeight
}

// similarity scores how well s matches inside window, using the same
// exact-then-approximate machinery as the main quote search, normalized
// to [0, 1].
func similarity(window, s string) float64 {
	if window == "" {
		return 0
	}
	if strings.Contains(window, s) {
		return 1
	}
	budget := len(s) / 2
	if budget > maxErrorBudget {
		budget = maxErrorBudget
	}
	cands := findMatches(window, s, budget)
	if len(cands) == 0 {
		return 0
	}
	minErrors := cands[0].errors
	for _, c := range cands[1:] {
		if c.errors < minErrors {
			minErrors = c.errors
		}
	}
	return 1.0 - float64(minErrors)/float64(len(s))
}

// literalContextCheck requires the stored prefix/suffix to appear verbatim
// within a fixed window next to the winning candidate. A failed check means
// strong contradicting evidence: better to find nothing than the wrong span.
func literalContextCheck(text string, c candidate, ctx *Context) bool {
	if ctx.Prefix != "" {
		before := text[max(0, c.start-strictContextWindow):c.start]
		if !strings.Contains(before, ctx.Prefix) {
			return false
		}
	}
	if ctx.Suffix != "" {
		after := text[c.end:min(len(text), c.end+strictContextWindow)]
		if !strings.Contains(after, ctx.Suffix) {
			return false
		}
	}
	return true
}
