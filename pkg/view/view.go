// Package view projects a directory of the virtual filesystem into the
// ordered list of entries the player sees, and runs recursive name searches.
package view

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

// HiddenPrefix marks names that are dropped unless hidden entries are shown.
const HiddenPrefix = "."

// Options controls a single projection.
type Options struct {
	Filter     string
	ShowHidden bool
	Sort       SortKey
	Direction  Direction
}

// Visible returns the children of the directory at path after hidden
// exclusion, case-insensitive substring filtering, and a stable total sort,
// in that order. A path that does not resolve to a container yields nil.
func Visible(root *tree.Node, path tree.Path, opts Options) []*tree.Node {
	dir, ok := tree.NodeAt(root, path)
	if !ok || !dir.Kind.IsContainer() {
		return nil
	}
	m := newMatcher(opts.Filter)
	out := make([]*tree.Node, 0, len(dir.Children))
	for _, c := range dir.Children {
		if !opts.ShowHidden && IsHidden(c) {
			continue
		}
		if !m.match(c.Name) {
			continue
		}
		out = append(out, c)
	}
	Sort(out, opts.Sort, opts.Direction)
	return out
}

// IsHidden reports whether n is hidden by name.
func IsHidden(n *tree.Node) bool {
	return strings.HasPrefix(n.Name, HiddenPrefix)
}

// Match is a recursive search hit. Path runs from the true root so the hit
// can be navigated to directly.
type Match struct {
	Node    *tree.Node
	Display string
	Path    tree.Path
}

// Search collects every descendant of start, files and containers alike,
// whose name contains query case-insensitively. Archives are descended into
// like directories. Hidden entries and their subtrees are skipped unless
// showHidden is set. An empty query matches nothing.
func Search(root *tree.Node, start tree.Path, query string, showHidden bool) []Match {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if len(start) == 0 {
		start = tree.Path{root.ID}
	}
	startNode, ok := tree.NodeAt(root, start)
	if !ok {
		return nil
	}
	m := newMatcher(query)
	base := tree.DisplayPath(root, start)
	if base == "/" {
		base = ""
	}

	var out []Match
	var visit func(n *tree.Node, path tree.Path, display string)
	visit = func(n *tree.Node, path tree.Path, display string) {
		for _, c := range n.Children {
			if !showHidden && IsHidden(c) {
				continue
			}
			cp := path.Append(c.ID)
			cd := display + "/" + c.Name
			if m.match(c.Name) {
				out = append(out, Match{Node: c, Display: cd, Path: cp})
			}
			if c.Kind.IsContainer() {
				visit(c, cp, cd)
			}
		}
	}
	visit(startNode, append(tree.Path(nil), start...), base)
	return out
}

// ActiveFilterMatches reports whether a filter is set for the directory at
// path, the filtered view is non-empty, and every visible entry satisfies pred.
func ActiveFilterMatches(root *tree.Node, path tree.Path, filters map[string]string, showHidden bool, pred func(*tree.Node) bool) bool {
	filter := filters[path.Last()]
	if filter == "" {
		return false
	}
	entries := Visible(root, path, Options{Filter: filter, ShowHidden: showHidden})
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !pred(e) {
			return false
		}
	}
	return true
}

// matcher does case-insensitive substring matching using Unicode case folding.
type matcher struct {
	needle string
	fold   cases.Caser
}

func newMatcher(query string) matcher {
	fold := cases.Fold()
	return matcher{needle: fold.String(query), fold: fold}
}

func (m matcher) match(name string) bool {
	if m.needle == "" {
		return true
	}
	return strings.Contains(m.fold.String(name), m.needle)
}
