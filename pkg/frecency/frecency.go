// Package frecency keeps the visit history that ranks frecency-jump targets.
package frecency

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mattsolo1/grove-terminus/pkg/fuzzy"
)

// ErrMalformed is returned when stored history cannot be trusted.
var ErrMalformed = errors.New("malformed frecency data")

// Entry is the visit record for one path. LastAccess is epoch milliseconds;
// zero means "now" when scoring.
type Entry struct {
	Count      int64 `json:"count"`
	LastAccess int64 `json:"lastAccess"`
}

// Map is the full history keyed by display path.
type Map map[string]Entry

// Clone returns an independent copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func millis(t time.Time) int64 { return t.UnixMilli() }

// Score weights an entry's count by how recently it was visited.
func Score(e Entry, now time.Time) float64 {
	last := e.LastAccess
	if last == 0 {
		last = millis(now)
	}
	elapsed := time.Duration(millis(now)-last) * time.Millisecond

	var mult float64
	switch {
	case elapsed < time.Hour:
		mult = 4
	case elapsed < 24*time.Hour:
		mult = 2
	case elapsed < 7*24*time.Hour:
		mult = 0.5
	default:
		mult = 0.25
	}
	return float64(e.Count) * mult
}

// Visit returns a copy of m with path's count bumped and its access time set.
func Visit(m Map, path string, now time.Time) Map {
	out := m.Clone()
	e := out[path]
	e.Count++
	e.LastAccess = millis(now)
	out[path] = e
	return out
}

// Seed is the history a fresh player starts with.
func Seed(now time.Time) Map {
	ago := func(d time.Duration) int64 { return millis(now.Add(-d)) }
	return Map{
		"/home/guest/datastore":            {Count: 42, LastAccess: ago(time.Hour)},
		"/home/guest/incoming":             {Count: 35, LastAccess: ago(30 * time.Minute)},
		"/home/guest/workspace":            {Count: 28, LastAccess: ago(2 * time.Hour)},
		"/home/guest/.config":              {Count: 30, LastAccess: ago(15 * time.Minute)},
		"/home/guest/.config/vault":        {Count: 25, LastAccess: ago(800 * time.Second)},
		"/home/guest/.config/vault/active": {Count: 10, LastAccess: ago(10 * time.Minute)},
		"/tmp":                             {Count: 15, LastAccess: ago(30 * time.Minute)},
		"/etc":                             {Count: 8, LastAccess: ago(24 * time.Hour)},
		"/daemons":                         {Count: 12, LastAccess: ago(12 * time.Hour)},
		"/daemons/systemd-core":            {Count: 5, LastAccess: ago(6 * time.Hour)},
	}
}

// EnsureRoots adds the paths later levels rely on when they are missing from
// m. The returned map is a copy.
func EnsureRoots(m Map, now time.Time) Map {
	out := m.Clone()
	ago := func(d time.Duration) int64 { return millis(now.Add(-d)) }
	defaults := map[string]Entry{
		"/daemons":              {Count: 1, LastAccess: ago(12 * time.Hour)},
		"/daemons/systemd-core": {Count: 1, LastAccess: ago(6 * time.Hour)},
		"/tmp":                  {Count: 15, LastAccess: ago(30 * time.Minute)},
	}
	for p, e := range defaults {
		if _, ok := out[p]; !ok {
			out[p] = e
		}
	}
	return out
}

// Validate rejects the whole map if any entry is unusable.
func Validate(m Map) error {
	if m == nil {
		return fmt.Errorf("%w: no entries", ErrMalformed)
	}
	for p, e := range m {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%w: path %q is not absolute", ErrMalformed, p)
		}
		if e.Count < 0 || e.LastAccess < 0 {
			return fmt.Errorf("%w: negative values for %q", ErrMalformed, p)
		}
	}
	return nil
}

// Decode parses a JSON object of path to entry. Every value must be an object
// carrying numeric count and lastAccess fields.
func Decode(data []byte) (Map, error) {
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	out := make(Map, len(raw))
	for p, fields := range raw {
		if fields == nil {
			return nil, fmt.Errorf("%w: entry %q is not an object", ErrMalformed, p)
		}
		var e Entry
		for name, dst := range map[string]*int64{"count": &e.Count, "lastAccess": &e.LastAccess} {
			v, ok := fields[name]
			if !ok {
				return nil, fmt.Errorf("%w: entry %q has no %s", ErrMalformed, p, name)
			}
			var f float64
			if err := json.Unmarshal(v, &f); err != nil {
				return nil, fmt.Errorf("%w: entry %q field %s is not a number", ErrMalformed, p, name)
			}
			*dst = int64(f)
		}
		out[p] = e
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Encode is the inverse of Decode.
func Encode(m Map) ([]byte, error) {
	return json.Marshal(m)
}

// Ranked is a path with its current score.
type Ranked struct {
	Path  string
	Score float64
	Entry Entry
}

// Rank orders every entry by score, highest first, with path as tiebreak.
func Rank(m Map, now time.Time) []Ranked {
	out := make([]Ranked, 0, len(m))
	for p, e := range m {
		out = append(out, Ranked{Path: p, Score: Score(e, now), Entry: e})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Candidates returns the history as fuzzy candidates weighted by score, in
// score order, keeping only paths accepted by exists.
func Candidates(m Map, now time.Time, exists func(path string) bool) []fuzzy.Candidate {
	ranked := Rank(m, now)
	out := make([]fuzzy.Candidate, 0, len(ranked))
	for _, r := range ranked {
		if exists != nil && !exists(r.Path) {
			continue
		}
		out = append(out, fuzzy.Candidate{Path: r.Path, Weight: r.Score})
	}
	return out
}
