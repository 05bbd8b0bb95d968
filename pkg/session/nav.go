package session

import (
	"fmt"

	"github.com/mattsolo1/grove-terminus/pkg/frecency"
	"github.com/mattsolo1/grove-terminus/pkg/fuzzy"
	"github.com/mattsolo1/grove-terminus/pkg/task"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
	"github.com/mattsolo1/grove-terminus/pkg/view"
)

// Target is a g-prefix shortcut.
type Target struct {
	Key     string
	Display string
	Label   string
	usage   task.Usage
}

// Targets are the g-prefix destinations, in help order.
var Targets = []Target{
	{Key: "h", Display: tree.HomeDisplay, Label: "home", usage: task.UsedGH},
	{Key: "c", Display: "/home/guest/.config", Label: "config", usage: task.UsedGC},
	{Key: "w", Display: "/home/guest/workspace", Label: "workspace", usage: task.UsedGW},
	{Key: "i", Display: "/home/guest/incoming", Label: "incoming", usage: task.UsedGI},
	{Key: "d", Display: "/home/guest/datastore", Label: "datastore"},
	{Key: "t", Display: "/tmp", Label: "tmp"},
	{Key: "r", Display: "/", Label: "root", usage: task.UsedGR},
	{Key: "l", Display: "/var/log", Label: "logs"},
	{Key: "m", Display: "/var/mail", Label: "mail"},
}

// Entries is the listing under the cursor: the search hits while a search
// is active, otherwise the projected current directory.
func (s *Session) Entries() []*tree.Node {
	if s.search != nil {
		out := make([]*tree.Node, len(s.search.matches))
		for i, m := range s.search.matches {
			out[i] = m.Node
		}
		return out
	}
	return view.Visible(s.root, s.path, view.Options{
		Filter:     s.filters[s.path.Last()],
		ShowHidden: s.showHidden,
		Sort:       s.sortKey,
		Direction:  s.direction,
	})
}

// Matches returns the active search hits, nil when no search is active.
func (s *Session) Matches() []view.Match {
	if s.search == nil {
		return nil
	}
	return s.search.matches
}

// SearchQuery returns the active search query.
func (s *Session) SearchQuery() string {
	if s.search == nil {
		return ""
	}
	return s.search.query
}

// CursorIndex is the position of the cursor in Entries.
func (s *Session) CursorIndex() int { return s.cursor }

// Cursor returns the entry under the cursor, nil for an empty listing.
func (s *Session) Cursor() *tree.Node {
	entries := s.Entries()
	if len(entries) == 0 {
		return nil
	}
	return entries[min(s.cursor, len(entries)-1)]
}

func (s *Session) clamp() {
	n := len(s.Entries())
	switch {
	case n == 0:
		s.cursor = 0
	case s.cursor >= n:
		s.cursor = n - 1
	case s.cursor < 0:
		s.cursor = 0
	}
}

func (s *Session) moveTo(i int) {
	if i != s.cursor {
		s.preview = 0
	}
	s.cursor = i
	s.clamp()
}

// place puts the cursor on the entry with id, if it is listed.
func (s *Session) place(id string) {
	for i, n := range s.Entries() {
		if n.ID == id {
			s.moveTo(i)
			return
		}
	}
	s.clamp()
}

// Down moves the cursor down by n entries.
func (s *Session) Down(n int) {
	s.record(task.UsedDown)
	s.moveTo(s.cursor + n)
}

// Up moves the cursor up by n entries.
func (s *Session) Up(n int) {
	s.record(task.UsedUp)
	s.moveTo(s.cursor - n)
}

// Top moves the cursor to the first entry.
func (s *Session) Top() {
	s.record(task.UsedGG)
	s.moveTo(0)
}

// Bottom moves the cursor to the last entry.
func (s *Session) Bottom() {
	s.record(task.UsedG)
	s.moveTo(len(s.Entries()) - 1)
}

// navigate changes directory, remembering the old one for history.
func (s *Session) navigate(p tree.Path) {
	if !p.Equal(s.path) {
		s.back = append(s.back, s.path)
		s.forward = nil
	}
	s.enterPath(p)
}

func (s *Session) enterPath(p tree.Path) {
	s.path = p
	s.search = nil
	s.selected = make(map[string]bool)
	s.cursor = 0
	s.preview = 0
	s.visit()
}

// Enter opens the container under the cursor. On a search hit it goes to
// the hit itself, or to the directory holding it for a file.
func (s *Session) Enter() error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.search != nil {
		if len(s.search.matches) == 0 {
			return ErrNoTarget
		}
		m := s.search.matches[min(s.cursor, len(s.search.matches)-1)]
		if m.Node.Kind.IsContainer() {
			s.navigate(m.Path)
			return nil
		}
		s.navigate(m.Path.Parent())
		s.place(m.Node.ID)
		return nil
	}
	n := s.Cursor()
	if n == nil {
		return ErrNoTarget
	}
	if !n.Kind.IsContainer() {
		return fmt.Errorf("%s: %w", n.Name, tree.ErrNotContainer)
	}
	s.navigate(s.path.Append(n.ID))
	return nil
}

// Parent goes up one directory and puts the cursor on the one just left.
// With a search active it only ends the search.
func (s *Session) Parent() {
	if s.search != nil {
		s.ClearSearch()
		return
	}
	if len(s.path) <= 1 {
		return
	}
	from := s.path.Last()
	s.navigate(s.path.Parent())
	s.place(from)
}

// GoTo runs the g-prefix shortcut for key.
func (s *Session) GoTo(key string) error {
	if err := s.guard(); err != nil {
		return err
	}
	for _, t := range Targets {
		if t.Key != key {
			continue
		}
		if t.usage != "" {
			s.record(t.usage)
		}
		p, ok := tree.Lookup(s.root, t.Display)
		if !ok {
			return fmt.Errorf("%s: %w", t.Display, tree.ErrNotFound)
		}
		s.navigate(p)
		return nil
	}
	return fmt.Errorf("g%s: unknown target", key)
}

// Back returns to the previous directory in history.
func (s *Session) Back() {
	s.record(task.UsedHistoryBack)
	for len(s.back) > 0 {
		p := s.back[len(s.back)-1]
		s.back = s.back[:len(s.back)-1]
		if n, ok := tree.NodeAt(s.root, p); ok && n.Kind.IsContainer() {
			s.forward = append(s.forward, s.path)
			s.enterPath(p)
			return
		}
	}
}

// Forward undoes a Back.
func (s *Session) Forward() {
	for len(s.forward) > 0 {
		p := s.forward[len(s.forward)-1]
		s.forward = s.forward[:len(s.forward)-1]
		if n, ok := tree.NodeAt(s.root, p); ok && n.Kind.IsContainer() {
			s.back = append(s.back, s.path)
			s.enterPath(p)
			return
		}
	}
}

// ToggleHidden shows or hides dot entries, keeping the cursor on the same
// node when it stays listed.
func (s *Session) ToggleHidden() {
	cur := s.Cursor()
	s.showHidden = !s.showHidden
	if s.search != nil {
		s.Search(s.search.query)
	}
	if cur != nil {
		s.place(cur.ID)
	}
}

// ToggleInfo opens or closes the info panel.
func (s *Session) ToggleInfo() { s.showInfo = !s.showInfo }

// SetSort orders the listing by key, in its default direction or reversed.
func (s *Session) SetSort(key view.SortKey, reverse bool) {
	cur := s.Cursor()
	s.sortKey = key
	s.direction = view.DefaultDirection(key)
	if reverse {
		s.direction = s.direction.Toggle()
	}
	if key == view.SortModified {
		s.record(task.UsedSortM)
	}
	if cur != nil {
		s.place(cur.ID)
	}
}

// SetFilter narrows the current directory to names containing text. The
// filter stays with the directory until cleared. It ends an active search.
func (s *Session) SetFilter(text string) {
	s.search = nil
	dir := s.path.Last()
	if text == "" {
		delete(s.filters, dir)
	} else {
		s.filters[dir] = text
		s.record(task.UsedFilter)
	}
	s.moveTo(0)
}

// ClearFilter drops the filter of the current directory.
func (s *Session) ClearFilter() {
	s.SetFilter("")
}

// Search lists every descendant of the current directory whose name
// contains query. An empty query ends the search.
func (s *Session) Search(query string) {
	if query == "" {
		s.ClearSearch()
		return
	}
	s.record(task.UsedSearch)
	s.search = &searchState{query: query, matches: view.Search(s.root, s.path, query, s.showHidden)}
	s.selected = make(map[string]bool)
	s.moveTo(0)
}

// ClearSearch ends the active search.
func (s *Session) ClearSearch() {
	if s.search == nil {
		return
	}
	s.search = nil
	s.moveTo(0)
}

// Escape clears the search if one is active, otherwise the filter.
func (s *Session) Escape() {
	if s.search != nil {
		s.ClearSearch()
		return
	}
	s.ClearFilter()
}

// ScrollPreview moves the preview pane by delta lines.
func (s *Session) ScrollPreview(delta int) {
	if delta > 0 {
		s.record(task.UsedPreviewDown)
	} else {
		s.record(task.UsedPreviewUp)
	}
	s.preview = max(0, s.preview+delta)
}

// FindCandidates ranks every node below the current directory against
// query, for the fuzzy finder.
func (s *Session) FindCandidates(query string) []fuzzy.Candidate {
	base := s.Display()
	if base == "/" {
		base = ""
	}
	start, _ := tree.NodeAt(s.root, s.path)
	var out []fuzzy.Candidate
	var walk func(n *tree.Node, prefix string)
	walk = func(n *tree.Node, prefix string) {
		for _, c := range n.Children {
			if !s.showHidden && view.IsHidden(c) {
				continue
			}
			p := prefix + "/" + c.Name
			out = append(out, fuzzy.Candidate{Path: p})
			if c.Kind.IsContainer() {
				walk(c, p)
			}
		}
	}
	if start != nil {
		walk(start, base)
	}
	return fuzzy.Rank(out, query)
}

// Find jumps to a fuzzy-finder hit: into it for a container, or to its
// directory with the cursor on it for a file.
func (s *Session) Find(display string) error {
	if err := s.guard(); err != nil {
		return err
	}
	p, ok := tree.Lookup(s.root, display)
	if !ok {
		return fmt.Errorf("%s: %w", display, tree.ErrNotFound)
	}
	s.stats.FzfFinds++
	n, _ := tree.NodeAt(s.root, p)
	if n.Kind.IsContainer() {
		s.navigate(p)
		return nil
	}
	s.navigate(p.Parent())
	s.place(n.ID)
	return nil
}

// JumpCandidates ranks the visit history against query, keeping only
// directories that exist.
func (s *Session) JumpCandidates(query string) []fuzzy.Candidate {
	exists := func(display string) bool {
		p, ok := tree.Lookup(s.root, display)
		if !ok {
			return false
		}
		n, _ := tree.NodeAt(s.root, p)
		return n.Kind.IsContainer()
	}
	return fuzzy.Rank(frecency.Candidates(s.frecency, s.now(), exists), query)
}

// Jump goes to a directory from the visit history.
func (s *Session) Jump(display string) error {
	if err := s.guard(); err != nil {
		return err
	}
	p, ok := tree.Lookup(s.root, display)
	if !ok {
		return fmt.Errorf("%s: %w", display, tree.ErrNotFound)
	}
	if n, _ := tree.NodeAt(s.root, p); !n.Kind.IsContainer() {
		return fmt.Errorf("%s: %w", display, tree.ErrNotContainer)
	}
	s.stats.FuzzyJumps++
	s.navigate(p)
	return nil
}

// ToggleSelect flips the selection of the entry under the cursor and moves
// down.
func (s *Session) ToggleSelect() {
	n := s.Cursor()
	if n == nil {
		return
	}
	if s.selected[n.ID] {
		delete(s.selected, n.ID)
	} else {
		s.selected[n.ID] = true
	}
	s.moveTo(s.cursor + 1)
}

// SelectAll selects every listed entry.
func (s *Session) SelectAll() {
	s.record(task.UsedCtrlA)
	for _, n := range s.Entries() {
		s.selected[n.ID] = true
	}
}

// InvertSelection flips the selection of every listed entry.
func (s *Session) InvertSelection() {
	s.record(task.UsedCtrlR)
	next := make(map[string]bool)
	for _, n := range s.Entries() {
		if !s.selected[n.ID] {
			next[n.ID] = true
		}
	}
	s.selected = next
}

// targets are the selected listed entries, or the entry under the cursor
// when nothing is selected.
func (s *Session) targets() []*tree.Node {
	var out []*tree.Node
	for _, n := range s.Entries() {
		if s.selected[n.ID] {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		if n := s.Cursor(); n != nil {
			out = append(out, n)
		}
	}
	return out
}
