package view

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

var day = 24 * time.Hour
var base = time.Date(2015, 5, 31, 0, 0, 0, 0, time.UTC)

func file(id, name, content string, age time.Duration) *tree.Node {
	n := tree.NewFile(id, name, content)
	if age >= 0 {
		n.ModTime = base.Add(-age)
	}
	return n
}

func listing() *tree.Node {
	return tree.MustValid(tree.NewDir("root", "root",
		tree.NewDir("dir", "incoming",
			file("f10", "file10.log", "0123456789", 3*day),
			file("f2", "File2.log", "01", day),
			file("fz", "zeta.txt", "", -1),
			file("hid", ".secret", "s", 2*day),
			tree.NewArchive("arc", "backup.zip", file("inner", "file_in_zip.log", "", -1)),
			tree.NewDir("sub", "batch_logs",
				tree.NewDir("deep", ".cache", file("deepfile", "file_hidden_deep.log", "", -1)),
				file("s1", "exfil_01.log", "", -1),
			),
			tree.NewDir("Asub", "Alpha", file("a1", "x", "", -1)),
		),
	))
}

var dirPath = tree.Path{"root", "dir"}

func names(nodes []*tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestVisibleSortKeys(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "natural groups kinds and compares numerically",
			opts: Options{Sort: SortNatural},
			want: []string{"Alpha", "batch_logs", "backup.zip", "File2.log", "file10.log", "zeta.txt"},
		},
		{
			name: "natural descending keeps groups",
			opts: Options{Sort: SortNatural, Direction: Descending},
			want: []string{"batch_logs", "Alpha", "backup.zip", "zeta.txt", "file10.log", "File2.log"},
		},
		{
			name: "alphabetical ignores kind",
			opts: Options{Sort: SortAlphabetical},
			want: []string{"Alpha", "File2.log", "backup.zip", "batch_logs", "file10.log", "zeta.txt"},
		},
		{
			name: "modified puts missing timestamps last",
			opts: Options{Sort: SortModified, Direction: Descending},
			want: []string{"Alpha", "batch_logs", "backup.zip", "File2.log", "file10.log", "zeta.txt"},
		},
		{
			name: "size uses child count and content length",
			opts: Options{Sort: SortSize, Direction: Descending},
			want: []string{"batch_logs", "Alpha", "backup.zip", "file10.log", "File2.log", "zeta.txt"},
		},
		{
			name: "default sort is natural",
			opts: Options{},
			want: []string{"Alpha", "batch_logs", "backup.zip", "File2.log", "file10.log", "zeta.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Visible(listing(), dirPath, tt.opts)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestVisibleFilterIsCaseInsensitiveSubstring(t *testing.T) {
	got := Visible(listing(), dirPath, Options{Filter: "FILE"})
	assert.Equal(t, []string{"File2.log", "file10.log"}, names(got))

	got = Visible(listing(), dirPath, Options{Filter: ".log"})
	assert.Equal(t, []string{"File2.log", "file10.log"}, names(got))

	// Regex metacharacters are literal.
	got = Visible(listing(), dirPath, Options{Filter: "file.*"})
	assert.Empty(t, got)
}

func TestVisibleHiddenIsSuperset(t *testing.T) {
	for _, key := range []SortKey{SortNatural, SortAlphabetical, SortModified, SortSize, SortExtension} {
		for _, filter := range []string{"", "s", "log"} {
			hidden := Visible(listing(), dirPath, Options{Filter: filter, Sort: key})
			shown := Visible(listing(), dirPath, Options{Filter: filter, Sort: key, ShowHidden: true})

			for _, n := range hidden {
				assert.False(t, strings.HasPrefix(n.Name, HiddenPrefix), "hidden entry %s leaked", n.Name)
				assert.Contains(t, names(shown), n.Name)
			}
			assert.GreaterOrEqual(t, len(shown), len(hidden))
		}
	}

	shown := Visible(listing(), dirPath, Options{ShowHidden: true})
	assert.Contains(t, names(shown), ".secret")
}

func TestVisibleUnresolvable(t *testing.T) {
	assert.Nil(t, Visible(listing(), tree.Path{"root", "gone"}, Options{}))
	assert.Nil(t, Visible(listing(), tree.Path{"root", "dir", "f2"}, Options{}))
}

func TestSortIsTotal(t *testing.T) {
	twins := []*tree.Node{
		tree.NewFile("b", "same.txt", ""),
		tree.NewFile("a", "same.txt", ""),
		tree.NewFile("c", "SAME.txt", ""),
	}
	Sort(twins, SortNatural, Ascending)
	assert.Equal(t, []string{"c", "a", "b"}, []string{twins[0].ID, twins[1].ID, twins[2].ID})
}

func TestSearch(t *testing.T) {
	root := listing()

	assert.Empty(t, Search(root, dirPath, "", false))
	assert.Empty(t, Search(root, dirPath, "   ", false))

	got := Search(root, dirPath, "FILE", false)
	var displays []string
	for _, m := range got {
		displays = append(displays, m.Display)
	}
	assert.Equal(t, []string{
		"/incoming/file10.log",
		"/incoming/File2.log",
		"/incoming/backup.zip/file_in_zip.log",
	}, displays)

	for _, m := range got {
		require.Equal(t, "root", m.Path[0], "paths must start at the true root")
		n, ok := tree.NodeAt(root, m.Path)
		require.True(t, ok)
		assert.Equal(t, m.Node.ID, n.ID)
	}

	withHidden := Search(root, dirPath, "file", true)
	assert.Len(t, withHidden, 4)
}

func TestSearchMatchesContainers(t *testing.T) {
	got := Search(listing(), tree.Path{"root"}, "batch", false)
	require.Len(t, got, 1)
	assert.Equal(t, tree.KindDir, got[0].Node.Kind)
	assert.Equal(t, "/incoming/batch_logs", got[0].Display)
}

func TestSearchWithoutStartBeginsAtRoot(t *testing.T) {
	root := listing()
	got := Search(root, nil, "batch", false)
	require.Len(t, got, 1)
	assert.Equal(t, "/incoming/batch_logs", got[0].Display)
	assert.Equal(t, "root", got[0].Path[0])
	n, ok := tree.NodeAt(root, got[0].Path)
	require.True(t, ok)
	assert.Equal(t, got[0].Node.ID, n.ID)
}

func TestSearchIsSubsetOfDescendants(t *testing.T) {
	root := listing()
	start := tree.Path{"root", "dir", "sub"}
	descendants := map[string]bool{}
	sub, _ := tree.NodeAt(root, start)
	tree.Walk(sub, func(n *tree.Node, _ tree.Path) bool {
		if n.ID != sub.ID {
			descendants[n.ID] = true
		}
		return true
	})

	for _, q := range []string{"e", "log", "X", "cache"} {
		for _, m := range Search(root, start, q, true) {
			assert.True(t, descendants[m.Node.ID], "%s is not under start", m.Display)
			assert.Contains(t, strings.ToLower(m.Node.Name), strings.ToLower(q))
		}
	}
}

func TestActiveFilterMatches(t *testing.T) {
	root := listing()
	isLog := func(n *tree.Node) bool { return strings.HasSuffix(n.Name, ".log") }

	assert.False(t, ActiveFilterMatches(root, dirPath, map[string]string{}, false, isLog), "no filter")
	assert.True(t, ActiveFilterMatches(root, dirPath, map[string]string{"dir": "file"}, false, isLog))
	assert.False(t, ActiveFilterMatches(root, dirPath, map[string]string{"dir": "a"}, false, isLog), "mixed set")
	assert.False(t, ActiveFilterMatches(root, dirPath, map[string]string{"dir": "nothing"}, false, isLog), "empty set")
	assert.False(t, ActiveFilterMatches(root, dirPath, map[string]string{"other": "file"}, false, isLog), "filter for another dir")
}

func TestParseSortKey(t *testing.T) {
	for in, want := range map[string]SortKey{"n": SortNatural, "A": SortAlphabetical, "m": SortModified, "s": SortSize, "e": SortExtension} {
		got, ok := ParseSortKey(in)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := ParseSortKey("q")
	assert.False(t, ok)

	assert.Equal(t, Descending, DefaultDirection(SortModified))
	assert.Equal(t, Ascending, DefaultDirection(SortNatural))
	assert.Equal(t, Descending, Ascending.Toggle())
}
