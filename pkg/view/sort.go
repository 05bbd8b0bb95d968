package view

import (
	"path"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

// SortKey selects the ordering of a directory listing.
type SortKey string

const (
	SortNatural      SortKey = "natural"
	SortAlphabetical SortKey = "alphabetical"
	SortModified     SortKey = "modified"
	SortSize         SortKey = "size"
	SortExtension    SortKey = "extension"
)

// Direction is the sort direction within a key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Toggle flips the direction.
func (d Direction) Toggle() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// DefaultDirection is the direction a sort key starts in: newest and largest
// first, everything else ascending.
func DefaultDirection(k SortKey) Direction {
	if k == SortModified || k == SortSize {
		return Descending
	}
	return Ascending
}

// ParseSortKey maps the second key of a sort command to a SortKey.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(s) {
	case "n":
		return SortNatural, true
	case "a":
		return SortAlphabetical, true
	case "m":
		return SortModified, true
	case "s":
		return SortSize, true
	case "e":
		return SortExtension, true
	}
	return "", false
}

// Sort orders nodes in place. Every key except alphabetical groups
// directories, then archives, then files. Ties fall back to the raw name and
// then the id so no two distinct nodes compare equal.
func Sort(nodes []*tree.Node, key SortKey, dir Direction) {
	if key == "" {
		key = SortNatural
	}
	col := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if key != SortAlphabetical {
			if ra, rb := a.Kind.Rank(), b.Kind.Rank(); ra != rb {
				return ra < rb
			}
		}
		if key == SortModified {
			// Nodes without a timestamp sort last in either direction.
			if za, zb := a.ModTime.IsZero(), b.ModTime.IsZero(); za != zb {
				return zb
			}
		}
		c := compareBy(col, key, a, b)
		if dir == Descending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

func compareBy(col *collate.Collator, key SortKey, a, b *tree.Node) int {
	switch key {
	case SortAlphabetical:
		return strings.Compare(a.Name, b.Name)
	case SortModified:
		return a.ModTime.Compare(b.ModTime)
	case SortSize:
		return a.Size() - b.Size()
	case SortExtension:
		if c := col.CompareString(path.Ext(a.Name), path.Ext(b.Name)); c != 0 {
			return c
		}
	}
	return col.CompareString(a.Name, b.Name)
}
