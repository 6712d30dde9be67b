package fuzzy

import "strings"

// candidate is one possible placement of the pattern in the text.
type candidate struct {
	start  int
	end    int
	errors int
}

// exactOccurrences scans for verbatim occurrences of pattern in text.
// This is the cheap fast path: when the document is unchanged, every quote
// still occurs exactly and the edit-distance search never runs.
func exactOccurrences(text, pattern string) []candidate {
	var out []candidate
	for from := 0; ; {
		i := strings.Index(text[from:], pattern)
		if i < 0 {
			return out
		}
		start := from + i
		out = append(out, candidate{start: start, end: start + len(pattern), errors: 0})
		from = start + 1
	}
}

// findMatches performs a semi-global edit-distance search: it finds
// substrings of text matching pattern with at most maxErrors insertions,
// deletions, or substitutions. End positions within the error budget form
// contiguous runs, one run per textual occurrence; each run contributes its
// best placement, so the caller scores one candidate per occurrence.
//
// Cost is O(len(text) * len(pattern)) time and O(len(pattern)) space.
func findMatches(text, pattern string, maxErrors int) []candidate {
	m, n := len(pattern), len(text)
	if m == 0 || n == 0 {
		return nil
	}

	// dist[i] is the edit distance of pattern[:i] against the best substring
	// of text ending at the current column; from[i] is where that substring
	// begins.
	dist := make([]int, m+1)
	from := make([]int, m+1)
	prevDist := make([]int, m+1)
	prevFrom := make([]int, m+1)
	for i := 0; i <= m; i++ {
		dist[i] = i
	}

	var out []candidate
	inRun := false
	var runBest candidate

	for j := 1; j <= n; j++ {
		copy(prevDist, dist)
		copy(prevFrom, from)
		dist[0] = 0
		from[0] = j
		for i := 1; i <= m; i++ {
			sub := prevDist[i-1]
			if pattern[i-1] != text[j-1] {
				sub++
			}
			del := prevDist[i] + 1
			ins := dist[i-1] + 1

			d, f := sub, prevFrom[i-1]
			if del < d {
				d, f = del, prevFrom[i]
			}
			if ins < d {
				d, f = ins, from[i-1]
			}
			dist[i], from[i] = d, f
		}

		if dist[m] <= maxErrors {
			c := candidate{start: from[m], end: j, errors: dist[m]}
			if !inRun || c.errors < runBest.errors {
				runBest = c
			}
			inRun = true
		} else if inRun {
			out = append(out, runBest)
			inRun = false
		}
	}
	if inRun {
		out = append(out, runBest)
	}
	return out
}
