// Package fuzzy scores and ranks path candidates against a typed query.
package fuzzy

import (
	"sort"
	"strings"
)

// Score rates how well path matches query. Higher is better; -1 means not
// every query character appears in order. An empty query scores 0.
//
// Exact matches score 300. A contiguous substring scores 100, plus 50 at the
// start of the path or 30 right after a separator. Otherwise each matched
// character scores 10, plus 5 when it follows the previous match and 10 when
// it follows a separator.
func Score(path, query string) int {
	if query == "" {
		return 0
	}
	p := []rune(strings.ToLower(path))
	q := []rune(strings.ToLower(query))

	if string(p) == string(q) {
		return 300
	}
	if idx := strings.Index(string(p), string(q)); idx >= 0 {
		score := 100
		runeIdx := len([]rune(string(p)[:idx]))
		switch {
		case runeIdx == 0:
			score += 50
		case p[runeIdx-1] == '/':
			score += 30
		}
		return score
	}

	score, qi, last := 0, 0, -1
	for i := 0; i < len(p) && qi < len(q); i++ {
		if p[i] != q[qi] {
			continue
		}
		score += 10
		if last == i-1 {
			score += 5
		}
		if i > 0 && p[i-1] == '/' {
			score += 10
		}
		last = i
		qi++
	}
	if qi < len(q) {
		return -1
	}
	return score
}

// Candidate is something that can be jumped to. Weight carries a secondary
// ranking signal such as frecency.
type Candidate struct {
	Path   string
	Weight float64
	Match  int
}

// Rank drops candidates that do not match query and orders the rest by match
// score, then weight, then path. An empty query keeps every candidate in its
// incoming order.
func Rank(candidates []Candidate, query string) []Candidate {
	if query == "" {
		return append([]Candidate(nil), candidates...)
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Match = Score(c.Path, query)
		if c.Match >= 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Match != b.Match {
			return a.Match > b.Match
		}
		if d := a.Weight - b.Weight; d > 0.1 || d < -0.1 {
			return a.Weight > b.Weight
		}
		return a.Path < b.Path
	})
	return out
}
