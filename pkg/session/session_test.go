package session

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mattsolo1/grove-terminus/pkg/level"
	"github.com/mattsolo1/grove-terminus/pkg/replay"
	"github.com/mattsolo1/grove-terminus/pkg/task"
	"github.com/mattsolo1/grove-terminus/pkg/telemetry"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
	"github.com/mattsolo1/grove-terminus/pkg/view"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type fixture struct {
	s     *Session
	clock *clock
	sink  *telemetry.Memory
}

func start(t *testing.T, n int, tasks ...string) fixture {
	t.Helper()
	c := &clock{t: replay.BaseTime}
	sink := &telemetry.Memory{}
	ids := 0
	s, err := New(Config{
		Sink: sink,
		Now:  c.Now,
		Factory: tree.Factory{
			NewID: func() string { ids++; return fmt.Sprintf("new-%d", ids) },
			Now:   c.Now,
		},
	}, Options{Level: n, Tasks: tasks})
	if err != nil {
		t.Fatalf("failed to start level %d: %v", n, err)
	}
	return fixture{s: s, clock: c, sink: sink}
}

// point puts the cursor on the listed entry called name.
func point(t *testing.T, s *Session, name string) *tree.Node {
	t.Helper()
	for i, n := range s.Entries() {
		if n.Name == name {
			s.moveTo(i)
			return n
		}
	}
	t.Fatalf("%s is not listed in %s", name, s.Display())
	return nil
}

func goTo(t *testing.T, s *Session, display string) {
	t.Helper()
	p, ok := tree.Lookup(s.root, display)
	if !ok {
		t.Fatalf("%s does not exist", display)
	}
	s.navigate(p)
}

func exists(s *Session, display string) bool {
	_, ok := tree.Lookup(s.Root(), display)
	return ok
}

func TestNew(t *testing.T) {
	f := start(t, 0)
	if f.s.Level().ID != 1 {
		t.Errorf("Expected level 1, got %d", f.s.Level().ID)
	}
	if f.s.Display() != "/home/guest" {
		t.Errorf("Expected /home/guest, got %s", f.s.Display())
	}
	if f.s.Complete() {
		t.Error("Expected a fresh level to be incomplete")
	}
	if got := f.sink.Tags(); len(got) != 1 || got[0] != telemetry.TagLevelStart {
		t.Errorf("Expected one level start event, got %v", got)
	}

	f = start(t, 3)
	if f.s.Display() != "/home/guest/incoming" {
		t.Errorf("Expected level 3 to start in incoming, got %s", f.s.Display())
	}
	if !f.s.tracker.Done(2, "delete-watcher") {
		t.Error("Expected earlier level tasks to be marked done")
	}
	if f.s.TaskDone("data-harvest-1") {
		t.Error("Expected start level tasks to be open")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	testCases := []struct {
		name string
		opts Options
		want error
	}{
		{"level too high", Options{Level: 16}, ErrNoLevel},
		{"negative level", Options{Level: -1}, ErrNoLevel},
		{"unknown task", Options{Level: 2, Tasks: []string{"nope"}}, ErrNoTask},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(Config{}, tc.opts)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewMarksTasks(t *testing.T) {
	f := start(t, 2, "recon-watchdog", "explore-mail")
	if !f.s.TaskDone("recon-watchdog") || !f.s.TaskDone("explore-mail") {
		t.Error("Expected listed tasks to be done")
	}
	if f.s.TaskDone("goto-incoming") {
		t.Error("Expected unlisted task to be open")
	}

	f = start(t, 2, AllTasks)
	if r := f.s.Evaluate(); !r.Complete {
		t.Errorf("Expected all tasks to complete the level, got %+v", r)
	}
}

func TestParseTasks(t *testing.T) {
	got := ParseTasks(" a, b ,,c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Expected [a b c], got %v", got)
	}
	if got := ParseTasks(""); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}

func TestNavigation(t *testing.T) {
	s := start(t, 1).s

	point(t, s, "datastore")
	if err := s.Enter(); err != nil {
		t.Fatalf("failed to enter datastore: %v", err)
	}
	if s.Display() != "/home/guest/datastore" {
		t.Fatalf("Expected datastore, got %s", s.Display())
	}
	point(t, s, "personnel_list.txt")
	if err := s.Enter(); !errors.Is(err, tree.ErrNotContainer) {
		t.Errorf("Expected ErrNotContainer, got %v", err)
	}

	s.Parent()
	if s.Display() != "/home/guest" {
		t.Errorf("Expected /home/guest, got %s", s.Display())
	}
	if c := s.Cursor(); c == nil || c.Name != "datastore" {
		t.Errorf("Expected cursor on datastore, got %v", c)
	}

	s.Bottom()
	if s.CursorIndex() != len(s.Entries())-1 {
		t.Errorf("Expected cursor at bottom, got %d", s.CursorIndex())
	}
	s.Down(5)
	if s.CursorIndex() != len(s.Entries())-1 {
		t.Errorf("Expected cursor clamped at bottom, got %d", s.CursorIndex())
	}
	s.Top()
	s.Up(1)
	if s.CursorIndex() != 0 {
		t.Errorf("Expected cursor clamped at top, got %d", s.CursorIndex())
	}
	for _, u := range []task.Usage{task.UsedG, task.UsedGG, task.UsedDown, task.UsedUp} {
		if !s.Stats().Has(u) {
			t.Errorf("Expected %s to be recorded", u)
		}
	}
}

func TestParentAtRoot(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("r"); err != nil {
		t.Fatalf("failed to go to root: %v", err)
	}
	s.Parent()
	if s.Display() != "/" {
		t.Errorf("Expected to stay at /, got %s", s.Display())
	}
}

func TestGoTo(t *testing.T) {
	testCases := []struct {
		key   string
		want  string
		usage task.Usage
	}{
		{"h", "/home/guest", task.UsedGH},
		{"c", "/home/guest/.config", task.UsedGC},
		{"w", "/home/guest/workspace", task.UsedGW},
		{"i", "/home/guest/incoming", task.UsedGI},
		{"d", "/home/guest/datastore", ""},
		{"t", "/tmp", ""},
		{"r", "/", task.UsedGR},
		{"l", "/var/log", ""},
		{"m", "/var/mail", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			s := start(t, 1).s
			if err := s.GoTo(tc.key); err != nil {
				t.Fatalf("failed to go to g%s: %v", tc.key, err)
			}
			if s.Display() != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, s.Display())
			}
			if tc.usage != "" && !s.Stats().Has(tc.usage) {
				t.Errorf("Expected %s to be recorded", tc.usage)
			}
		})
	}

	s := start(t, 1).s
	if err := s.GoTo("q"); err == nil {
		t.Error("Expected an error for an unknown target")
	}
}

func TestHistory(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	if err := s.GoTo("t"); err != nil {
		t.Fatalf("failed to go to tmp: %v", err)
	}

	s.Back()
	if s.Display() != "/home/guest/datastore" {
		t.Errorf("Expected datastore, got %s", s.Display())
	}
	s.Back()
	if s.Display() != "/home/guest" {
		t.Errorf("Expected home, got %s", s.Display())
	}
	s.Back()
	if s.Display() != "/home/guest" {
		t.Errorf("Expected empty history to stay home, got %s", s.Display())
	}
	s.Forward()
	s.Forward()
	if s.Display() != "/tmp" {
		t.Errorf("Expected /tmp, got %s", s.Display())
	}
	if !s.Stats().Has(task.UsedHistoryBack) {
		t.Error("Expected history back to be recorded")
	}

	s.Back()
	if err := s.GoTo("w"); err != nil {
		t.Fatalf("failed to go to workspace: %v", err)
	}
	s.Forward()
	if s.Display() != "/home/guest/workspace" {
		t.Errorf("Expected new navigation to drop forward history, got %s", s.Display())
	}
}

func TestFilterStaysWithDirectory(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	s.SetFilter("notes_v")
	if got := len(s.Entries()); got != 2 {
		t.Errorf("Expected 2 filtered entries, got %d", got)
	}
	if !s.Stats().Has(task.UsedFilter) {
		t.Error("Expected filter to be recorded")
	}

	s.Parent()
	if s.Filter() != "" {
		t.Errorf("Expected no filter in home, got %q", s.Filter())
	}
	point(t, s, "datastore")
	if err := s.Enter(); err != nil {
		t.Fatalf("failed to enter datastore: %v", err)
	}
	if s.Filter() != "notes_v" {
		t.Errorf("Expected filter to persist, got %q", s.Filter())
	}

	s.Escape()
	if s.Filter() != "" {
		t.Errorf("Expected escape to clear filter, got %q", s.Filter())
	}
}

func TestSearch(t *testing.T) {
	s := start(t, 2).s
	if err := s.GoTo("h"); err != nil {
		t.Fatalf("failed to go home: %v", err)
	}
	s.Search("watcher")
	if s.SearchQuery() != "watcher" {
		t.Errorf("Expected query watcher, got %q", s.SearchQuery())
	}
	if len(s.Matches()) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(s.Matches()))
	}

	if err := s.Enter(); err != nil {
		t.Fatalf("failed to open search hit: %v", err)
	}
	if s.Display() != "/home/guest/incoming" {
		t.Errorf("Expected incoming, got %s", s.Display())
	}
	if c := s.Cursor(); c == nil || c.Name != "watcher_agent.sys" {
		t.Errorf("Expected cursor on watcher_agent.sys, got %v", c)
	}
	if s.Matches() != nil {
		t.Error("Expected search to end on navigation")
	}

	s.Search("zzz-nothing")
	if err := s.Enter(); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Expected ErrNoTarget, got %v", err)
	}
	s.Parent()
	if s.SearchQuery() != "" || s.Display() != "/home/guest/incoming" {
		t.Errorf("Expected parent to only end the search, got %q at %s", s.SearchQuery(), s.Display())
	}

	s.Search("watcher")
	s.SetFilter("app")
	if s.SearchQuery() != "" {
		t.Errorf("Expected a filter to end the search, got %q", s.SearchQuery())
	}
	for _, n := range s.Entries() {
		if !strings.Contains(n.Name, "app") {
			t.Errorf("Expected only filtered entries, got %s", n.Name)
		}
	}
}

func TestToggleHiddenKeepsCursor(t *testing.T) {
	s := start(t, 1).s
	point(t, s, "workspace")
	s.ToggleHidden()
	if !s.ShowHidden() {
		t.Fatal("Expected hidden entries to be shown")
	}
	if c := s.Cursor(); c == nil || c.Name != "workspace" {
		t.Errorf("Expected cursor to stay on workspace, got %v", c)
	}
	found := false
	for _, n := range s.Entries() {
		if n.Name == ".config" {
			found = true
		}
	}
	if !found {
		t.Error("Expected .config to be listed")
	}
}

func TestSetSort(t *testing.T) {
	s := start(t, 1).s
	s.SetSort(view.SortModified, false)
	key, dir := s.Sort()
	if key != view.SortModified || dir != view.DefaultDirection(view.SortModified) {
		t.Errorf("Expected modified in its default direction, got %s %v", key, dir)
	}
	if !s.Stats().Has(task.UsedSortM) {
		t.Error("Expected sort by modified to be recorded")
	}
	s.SetSort(view.SortAlphabetical, true)
	if _, dir := s.Sort(); dir != view.DefaultDirection(view.SortAlphabetical).Toggle() {
		t.Errorf("Expected reversed direction, got %v", dir)
	}
}

func TestPreviewScroll(t *testing.T) {
	s := start(t, 1).s
	s.ScrollPreview(3)
	s.ScrollPreview(-1)
	if s.PreviewOffset() != 2 {
		t.Errorf("Expected offset 2, got %d", s.PreviewOffset())
	}
	s.ScrollPreview(-10)
	if s.PreviewOffset() != 0 {
		t.Errorf("Expected offset clamped at 0, got %d", s.PreviewOffset())
	}
	s.Down(1)
	if s.PreviewOffset() != 0 {
		t.Errorf("Expected cursor move to reset preview, got %d", s.PreviewOffset())
	}
}

func TestSelection(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	total := len(s.Entries())

	s.ToggleSelect()
	if s.SelectionCount() != 1 || s.CursorIndex() != 1 {
		t.Errorf("Expected one selection and cursor moved down, got %d at %d", s.SelectionCount(), s.CursorIndex())
	}
	s.InvertSelection()
	if s.SelectionCount() != total-1 {
		t.Errorf("Expected %d selected after invert, got %d", total-1, s.SelectionCount())
	}
	s.SelectAll()
	if s.SelectionCount() != total {
		t.Errorf("Expected %d selected, got %d", total, s.SelectionCount())
	}
	if !s.Stats().Has(task.UsedCtrlA) || !s.Stats().Has(task.UsedCtrlR) {
		t.Error("Expected select all and invert to be recorded")
	}

	s.Parent()
	if s.SelectionCount() != 0 {
		t.Errorf("Expected selection to clear on directory change, got %d", s.SelectionCount())
	}
}

func TestFindAndJump(t *testing.T) {
	s := start(t, 2).s
	if err := s.GoTo("h"); err != nil {
		t.Fatalf("failed to go home: %v", err)
	}
	found := false
	for _, c := range s.FindCandidates("watcher") {
		if c.Path == "/home/guest/incoming/watcher_agent.sys" {
			found = true
		}
	}
	if !found {
		t.Error("Expected watcher_agent.sys among find candidates")
	}

	if err := s.Find("/home/guest/incoming/watcher_agent.sys"); err != nil {
		t.Fatalf("failed to find watcher: %v", err)
	}
	if s.Display() != "/home/guest/incoming" || s.Cursor().Name != "watcher_agent.sys" {
		t.Errorf("Expected cursor on the watcher in incoming, got %s", s.Display())
	}
	if s.Stats().FzfFinds != 1 {
		t.Errorf("Expected 1 find, got %d", s.Stats().FzfFinds)
	}
	if err := s.Find("/nowhere"); !errors.Is(err, tree.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	jumpable := false
	for _, c := range s.JumpCandidates("incoming") {
		if c.Path == "/home/guest/incoming" {
			jumpable = true
		}
	}
	if !jumpable {
		t.Error("Expected visited incoming among jump candidates")
	}
	if err := s.Jump("/var/log"); err != nil {
		t.Fatalf("failed to jump: %v", err)
	}
	if s.Display() != "/var/log" || s.Stats().FuzzyJumps != 1 {
		t.Errorf("Expected one jump to /var/log, got %s and %d", s.Display(), s.Stats().FuzzyJumps)
	}
	if err := s.Jump("/home/guest/incoming/watcher_agent.sys"); !errors.Is(err, tree.ErrNotContainer) {
		t.Errorf("Expected ErrNotContainer, got %v", err)
	}
}

func TestFrecencyUpdate(t *testing.T) {
	s := start(t, 1).s
	if _, ok := s.FrecencyUpdate(); !ok {
		t.Fatal("Expected the start directory visit to be pending")
	}
	if _, ok := s.FrecencyUpdate(); ok {
		t.Error("Expected no update without a visit")
	}
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	m, ok := s.FrecencyUpdate()
	if !ok {
		t.Fatal("Expected an update after navigation")
	}
	if _, ok := m["/home/guest/datastore"]; !ok {
		t.Error("Expected datastore in the visit history")
	}
}

func TestCutPasteMovesNode(t *testing.T) {
	s := start(t, 3).s
	node := point(t, s, "sector_map.png")
	if err := s.Cut(); err != nil {
		t.Fatalf("failed to cut: %v", err)
	}
	if !s.Clipboard().IsCut() {
		t.Fatal("Expected a cut on the clipboard")
	}
	goTo(t, s, "/home/guest/media")
	if err := s.Paste(false); err != nil {
		t.Fatalf("failed to paste: %v", err)
	}

	moved, p := tree.FindByID(s.Root(), node.ID)
	if moved == nil || tree.DisplayPath(s.Root(), p) != "/home/guest/media/sector_map.png" {
		t.Errorf("Expected the same node in media, got %v", p)
	}
	if exists(s, "/home/guest/incoming/sector_map.png") {
		t.Error("Expected the source to be gone")
	}
	if s.Clipboard() != nil {
		t.Error("Expected a cut paste to clear the clipboard")
	}
	if c := s.Cursor(); c == nil || c.ID != node.ID {
		t.Errorf("Expected cursor on the pasted node, got %v", c)
	}
	if err := s.Paste(false); !errors.Is(err, ErrEmptyClipboard) {
		t.Errorf("Expected ErrEmptyClipboard, got %v", err)
	}
	if r := s.Evaluate(); !contains(r.Satisfied, "data-harvest-4") {
		t.Errorf("Expected data-harvest-4 to be satisfied, got %v", r.Satisfied)
	}
}

func TestYankPasteCopies(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	node := point(t, s, "notes_v1.txt")
	if err := s.Yank(); err != nil {
		t.Fatalf("failed to yank: %v", err)
	}
	if err := s.Paste(false); err != nil {
		t.Fatalf("failed to paste: %v", err)
	}
	if err := s.Paste(false); err != nil {
		t.Fatalf("failed to paste again: %v", err)
	}

	for _, display := range []string{
		"/home/guest/datastore/notes_v1.txt",
		"/home/guest/datastore/notes_v1_1.txt",
		"/home/guest/datastore/notes_v1_2.txt",
	} {
		if !exists(s, display) {
			t.Errorf("Expected %s to exist", display)
		}
	}
	copy1, _ := tree.FindByName(s.Root(), "notes_v1_1.txt", tree.KindFile)
	if copy1 == nil || copy1.ID == node.ID || copy1.Content != node.Content {
		t.Errorf("Expected a fresh-id copy, got %+v", copy1)
	}
	if !s.Clipboard().IsYank() {
		t.Error("Expected a yank to stay on the clipboard")
	}
	s.ClearClipboard()
	if s.Clipboard() != nil {
		t.Error("Expected the clipboard to be cleared")
	}
}

func TestPasteOverwrite(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	point(t, s, "notes_v2.txt")
	if err := s.Yank(); err != nil {
		t.Fatalf("failed to yank: %v", err)
	}
	if err := s.GoTo("w"); err != nil {
		t.Fatalf("failed to go to workspace: %v", err)
	}
	if err := s.Create("notes_v2.txt"); err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if err := s.Paste(true); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	n, _ := tree.FindByName(s.Root(), "notes_v2.txt", tree.KindFile)
	p, _ := tree.Lookup(s.Root(), "/home/guest/workspace/notes_v2.txt")
	got, _ := tree.NodeAt(s.Root(), p)
	if got == nil || got.Content != "second draft" {
		t.Errorf("Expected the pasted content, got %+v", got)
	}
	if exists(s, "/home/guest/workspace/notes_v2_1.txt") {
		t.Error("Expected no renamed copy")
	}
	if n == nil || !s.Stats().Has(task.UsedShiftP) {
		t.Error("Expected overwrite paste to be recorded")
	}
}

func TestPasteOverwriteRespectsProtection(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("w"); err != nil {
		t.Fatalf("failed to go to workspace: %v", err)
	}
	if err := s.Create("datastore/"); err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	point(t, s, "datastore")
	if err := s.Yank(); err != nil {
		t.Fatalf("failed to yank: %v", err)
	}
	if err := s.GoTo("h"); err != nil {
		t.Fatalf("failed to go home: %v", err)
	}

	before := s.Root()
	if err := s.Paste(true); !errors.Is(err, ErrProtected) {
		t.Fatalf("Expected ErrProtected, got %v", err)
	}
	if s.Root() != before {
		t.Error("Expected the tree to be unchanged")
	}
	p, ok := tree.Lookup(s.Root(), "/home/guest/datastore")
	if !ok {
		t.Fatal("failed to find datastore")
	}
	ds, _ := tree.NodeAt(s.Root(), p)
	if !ds.Protected || len(ds.Children) == 0 {
		t.Errorf("Expected the protected datastore to survive, got %d children", len(ds.Children))
	}
	if s.Clipboard() == nil {
		t.Error("Expected the clipboard to be kept")
	}
}

func TestPasteOverwriteRunsLevelGuard(t *testing.T) {
	s := start(t, 9).s
	if err := s.Create("tmp_pid/"); err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	point(t, s, "tmp_pid")
	if err := s.Enter(); err != nil {
		t.Fatalf("failed to enter: %v", err)
	}
	if err := s.Create("system_monitor.pid"); err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	point(t, s, "system_monitor.pid")
	if err := s.Yank(); err != nil {
		t.Fatalf("failed to yank: %v", err)
	}
	s.Parent()

	if err := s.Paste(true); !errors.Is(err, ErrLockedOut) {
		t.Fatalf("Expected ErrLockedOut, got %v", err)
	}
	if _, locked := s.LockedOut(); !locked {
		t.Error("Expected the guard to lock the player out")
	}
}

func TestPasteIntoSelf(t *testing.T) {
	s := start(t, 1).s
	if err := s.Create("box/inner/"); err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	point(t, s, "box")
	if err := s.Cut(); err != nil {
		t.Fatalf("failed to cut: %v", err)
	}
	if err := s.Enter(); err != nil {
		t.Fatalf("failed to enter: %v", err)
	}
	if err := s.Paste(false); !errors.Is(err, ErrPasteIntoSelf) {
		t.Errorf("Expected ErrPasteIntoSelf, got %v", err)
	}
}

func TestProtection(t *testing.T) {
	s := start(t, 1).s
	point(t, s, "datastore")
	if err := s.Cut(); !errors.Is(err, ErrProtected) {
		t.Errorf("Expected cut to be refused, got %v", err)
	}
	if _, err := s.PrepareDelete(); !errors.Is(err, ErrProtected) {
		t.Errorf("Expected delete to be refused, got %v", err)
	}
	if err := s.Rename("vault"); !errors.Is(err, ErrProtected) {
		t.Errorf("Expected rename to be refused, got %v", err)
	}
	if err := s.ConfirmDelete(false); !errors.Is(err, ErrNoPending) {
		t.Errorf("Expected ErrNoPending, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := start(t, 2).s
	goTo(t, s, "/home/guest/incoming")
	point(t, s, "watcher_agent.sys")
	s.ToggleInfo()
	if r := s.Evaluate(); !contains(r.Satisfied, "locate-watcher") {
		t.Errorf("Expected locate-watcher, got %v", r.Satisfied)
	}

	nodes, err := s.PrepareDelete()
	if err != nil {
		t.Fatalf("failed to prepare delete: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "watcher_agent.sys" {
		t.Fatalf("Expected the watcher pending, got %v", nodes)
	}
	s.CancelDelete()
	if err := s.ConfirmDelete(false); !errors.Is(err, ErrNoPending) {
		t.Errorf("Expected cancel to drop pending, got %v", err)
	}

	if _, err := s.PrepareDelete(); err != nil {
		t.Fatalf("failed to prepare delete: %v", err)
	}
	if err := s.ConfirmDelete(true); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if exists(s, "/home/guest/incoming/watcher_agent.sys") {
		t.Error("Expected the watcher to be gone")
	}
	if !s.Stats().Has(task.UsedD) {
		t.Error("Expected permanent delete to be recorded")
	}
	if s.TakeNotice() == "" {
		t.Error("Expected a notice")
	}
	if r := s.Evaluate(); !contains(r.Satisfied, "delete-watcher") {
		t.Errorf("Expected delete-watcher, got %v", r.Satisfied)
	}
}

func TestDeleteSelection(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	s.SetFilter("notes_v")
	s.SelectAll()
	nodes, err := s.PrepareDelete()
	if err != nil {
		t.Fatalf("failed to prepare delete: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 pending, got %d", len(nodes))
	}
	if err := s.ConfirmDelete(false); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if exists(s, "/home/guest/datastore/notes_v1.txt") || exists(s, "/home/guest/datastore/notes_v2.txt") {
		t.Error("Expected both notes to be gone")
	}
	if len(s.Entries()) != 0 || s.Cursor() != nil {
		t.Errorf("Expected an empty filtered listing, got %d", len(s.Entries()))
	}
}

func TestDeleteReportsVanishedTargets(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	s.SetFilter("notes_v")
	s.SelectAll()
	nodes, err := s.PrepareDelete()
	if err != nil {
		t.Fatalf("failed to prepare delete: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 pending, got %d", len(nodes))
	}
	s.root, err = tree.Delete(s.root, s.path, nodes[0].ID)
	if err != nil {
		t.Fatalf("failed to remove %s: %v", nodes[0].Name, err)
	}

	if err := s.ConfirmDelete(false); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if got := s.TakeNotice(); got != "Deleted 1 item(s), 1 already gone" {
		t.Errorf("Expected the vanished item to be reported, got %q", got)
	}

	s.ClearFilter()
	s.SetFilter("personnel")
	s.SelectAll()
	nodes, err = s.PrepareDelete()
	if err != nil {
		t.Fatalf("failed to prepare delete: %v", err)
	}
	before := s.root
	for _, n := range nodes {
		if s.root, err = tree.Delete(s.root, s.path, n.ID); err != nil {
			t.Fatalf("failed to remove %s: %v", n.Name, err)
		}
	}
	if err := s.ConfirmDelete(false); !errors.Is(err, tree.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if before == s.root {
		t.Error("Expected the removal above to change the tree")
	}
	if err := s.ConfirmDelete(false); !errors.Is(err, ErrNoPending) {
		t.Errorf("Expected pending to be dropped, got %v", err)
	}
}

func TestDeleteGuards(t *testing.T) {
	t.Run("trap locks out", func(t *testing.T) {
		f := start(t, 9)
		s := f.s
		point(t, s, "system_monitor.pid")
		if _, err := s.PrepareDelete(); !errors.Is(err, ErrLockedOut) {
			t.Fatalf("Expected ErrLockedOut, got %v", err)
		}
		reason, locked := s.LockedOut()
		if !locked || reason == "" {
			t.Fatal("Expected the player to be locked out")
		}
		if err := s.Cut(); !errors.Is(err, ErrLockedOut) {
			t.Errorf("Expected commands to be refused, got %v", err)
		}
		if !contains(f.sink.Tags(), telemetry.TagLockout) {
			t.Errorf("Expected a lockout event, got %v", f.sink.Tags())
		}

		s.Restart()
		if _, locked := s.LockedOut(); locked {
			t.Error("Expected restart to lift the lockout")
		}
	})

	t.Run("refusal without trip", func(t *testing.T) {
		s := start(t, 14).s
		if err := s.GoTo("h"); err != nil {
			t.Fatalf("failed to go home: %v", err)
		}
		if !s.ShowHidden() {
			s.ToggleHidden()
		}
		point(t, s, ".purge_lock")
		if _, err := s.PrepareDelete(); !errors.Is(err, ErrHoneypot) {
			t.Errorf("Expected ErrHoneypot, got %v", err)
		}
		if _, locked := s.LockedOut(); locked {
			t.Error("Expected no lockout")
		}
	})
}

func TestRename(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	node := point(t, s, "notes_v1.txt")

	for _, bad := range []string{"", "  ", "a/b", ".", ".."} {
		if err := s.Rename(bad); !errors.Is(err, tree.ErrInvalidName) {
			t.Errorf("Expected ErrInvalidName for %q, got %v", bad, err)
		}
	}
	if err := s.Rename("notes_v2.txt"); !errors.Is(err, tree.ErrCollision) {
		t.Errorf("Expected ErrCollision, got %v", err)
	}
	if err := s.Rename("draft.txt"); err != nil {
		t.Fatalf("failed to rename: %v", err)
	}
	if c := s.Cursor(); c == nil || c.ID != node.ID || c.Name != "draft.txt" {
		t.Errorf("Expected cursor on the renamed node, got %v", c)
	}
}

func TestCreate(t *testing.T) {
	s := start(t, 4).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	if err := s.Create("protocols/"); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if c := s.Cursor(); c == nil || c.Name != "protocols" || c.Kind != tree.KindDir {
		t.Errorf("Expected cursor on the new directory, got %v", c)
	}
	if err := s.Create("protocols/uplink_v1.conf"); err != nil {
		t.Fatalf("failed to create nested file: %v", err)
	}
	if !exists(s, "/home/guest/datastore/protocols/uplink_v1.conf") {
		t.Error("Expected the nested file")
	}
	if err := s.Create("protocols/"); !errors.Is(err, tree.ErrCollision) {
		t.Errorf("Expected ErrCollision, got %v", err)
	}
	if err := s.Create("~/media/note.txt"); err != nil {
		t.Fatalf("failed to create home-relative file: %v", err)
	}
	if !exists(s, "/home/guest/media/note.txt") {
		t.Error("Expected the home-relative file")
	}
	if s.Display() != "/home/guest/datastore" {
		t.Errorf("Expected to stay in datastore, got %s", s.Display())
	}
}

func TestOverwrite(t *testing.T) {
	s := start(t, 1).s
	if err := s.GoTo("d"); err != nil {
		t.Fatalf("failed to go to datastore: %v", err)
	}
	old := point(t, s, "notes_v1.txt")
	if err := s.Overwrite("notes_v1.txt"); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}
	n, _ := tree.FindByName(s.Root(), "notes_v1.txt", tree.KindFile)
	if n == nil || n.ID == old.ID || n.Content != "" {
		t.Errorf("Expected a fresh empty file, got %+v", n)
	}

	if err := s.Overwrite("mission_log.md"); !errors.Is(err, ErrProtected) {
		t.Errorf("Expected protected asset to survive, got %v", err)
	}
}

func TestHoneypots(t *testing.T) {
	f := start(t, 9)
	s := f.s
	point(t, s, "mysockfile.txt")
	if err := s.Yank(); err != nil {
		t.Fatalf("failed to yank: %v", err)
	}
	if s.Stats().Honeypots != 1 {
		t.Errorf("Expected 1 honeypot touch, got %d", s.Stats().Honeypots)
	}
	if !contains(f.sink.Tags(), telemetry.TagHoneypot) {
		t.Errorf("Expected a honeypot event, got %v", f.sink.Tags())
	}
	if _, locked := s.LockedOut(); locked {
		t.Fatal("Expected grabbing a honeypot to only warn")
	}

	if err := s.GoTo("h"); err != nil {
		t.Fatalf("failed to go home: %v", err)
	}
	if err := s.Paste(false); !errors.Is(err, ErrHoneypot) {
		t.Errorf("Expected ErrHoneypot, got %v", err)
	}
	if _, locked := s.LockedOut(); !locked {
		t.Error("Expected pasting a honeypot to lock out")
	}
	if exists(s, "/home/guest/mysockfile.txt") {
		t.Error("Expected nothing to be pasted")
	}
}

func TestDaemonChoiceFlags(t *testing.T) {
	testCases := []struct {
		name string
		file string
		flag string
	}{
		{"honeypot", "/usr/lib/systemd/audit-daemon.service", level.FlagTriggeredHoneypot},
		{"modern", "/daemons/network/network-manager.service", level.FlagSelectedModern},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := start(t, 11).s
			if len(s.Flags()) != 0 {
				t.Fatalf("Expected no flags, got %v", s.Flags())
			}
			if err := s.Find(tc.file); err != nil {
				t.Fatalf("failed to find %s: %v", tc.file, err)
			}
			if err := s.Cut(); err != nil {
				t.Fatalf("failed to cut: %v", err)
			}
			if !s.Flags()[tc.flag] {
				t.Errorf("Expected %s to be set, got %v", tc.flag, s.Flags())
			}
			s.Restart()
			if len(s.Flags()) != 0 {
				t.Errorf("Expected restart to reset flags, got %v", s.Flags())
			}
		})
	}

	s := start(t, 11).s
	if err := s.Find("/etc/systemd/network.service"); err != nil {
		t.Fatalf("failed to find legacy service: %v", err)
	}
	if err := s.Cut(); err != nil {
		t.Fatalf("failed to cut: %v", err)
	}
	if len(s.Flags()) != 0 {
		t.Errorf("Expected a legacy pick to set no flags, got %v", s.Flags())
	}
}

func TestKeystrokeBudget(t *testing.T) {
	s := start(t, 11).s
	if s.KeystrokesLeft() != 60 {
		t.Fatalf("Expected 60 keystrokes, got %d", s.KeystrokesLeft())
	}
	for range 60 {
		s.Keystroke()
	}
	if _, locked := s.LockedOut(); locked {
		t.Fatal("Expected the last budgeted keystroke to be allowed")
	}
	s.Keystroke()
	if _, locked := s.LockedOut(); !locked {
		t.Error("Expected the budget to lock out")
	}
	if s.KeystrokesLeft() != 0 {
		t.Errorf("Expected 0 left, got %d", s.KeystrokesLeft())
	}

	if left := start(t, 1).s.KeystrokesLeft(); left != -1 {
		t.Errorf("Expected no budget on level 1, got %d", left)
	}
}

func TestTimeLimit(t *testing.T) {
	f := start(t, 9)
	if got := f.s.Remaining(f.clock.t); got != 120*time.Second {
		t.Errorf("Expected 120s, got %v", got)
	}
	f.clock.t = f.clock.t.Add(119 * time.Second)
	f.s.Tick(f.clock.t)
	if _, locked := f.s.LockedOut(); locked {
		t.Fatal("Expected time to remain")
	}
	f.clock.t = f.clock.t.Add(2 * time.Second)
	f.s.Tick(f.clock.t)
	if reason, locked := f.s.LockedOut(); !locked || reason == "" {
		t.Error("Expected the clock to lock out")
	}

	s := start(t, 1).s
	if got := s.Remaining(replay.BaseTime.Add(time.Hour)); got != -1 {
		t.Errorf("Expected no limit on level 1, got %v", got)
	}
}

func TestEvaluateRecordsCompletion(t *testing.T) {
	f := start(t, 1)
	s := f.s
	s.Down(1)
	s.Up(1)
	r := s.Evaluate()
	if !contains(r.Satisfied, "calibrate-sensors") {
		t.Fatalf("Expected calibrate-sensors, got %v", r.Satisfied)
	}
	if r.Complete {
		t.Fatal("Expected the level to be incomplete")
	}
	s.Evaluate()
	count := 0
	for _, tag := range f.sink.Tags() {
		if tag == telemetry.TagTaskComplete {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected 1 task event, got %d", count)
	}
	if !s.TaskDone("calibrate-sensors") {
		t.Error("Expected the task to stay done")
	}
	if _, err := s.Advance(); !errors.Is(err, ErrLevelIncomplete) {
		t.Errorf("Expected ErrLevelIncomplete, got %v", err)
	}
}

func TestAdvance(t *testing.T) {
	f := start(t, 1, AllTasks)
	s := f.s
	if err := s.GoTo("w"); err != nil {
		t.Fatalf("failed to go to workspace: %v", err)
	}
	if err := s.Create("keep.txt"); err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if r := s.Evaluate(); !r.Complete || !s.Complete() {
		t.Fatal("Expected the level to be complete")
	}
	if !contains(f.sink.Tags(), telemetry.TagLevelComplete) {
		t.Errorf("Expected a level complete event, got %v", f.sink.Tags())
	}

	ok, err := s.Advance()
	if err != nil || !ok {
		t.Fatalf("failed to advance: %v", err)
	}
	if s.Level().ID != 2 {
		t.Errorf("Expected level 2, got %d", s.Level().ID)
	}
	if s.Display() != "/home/guest/workspace" {
		t.Errorf("Expected to stay in workspace, got %s", s.Display())
	}
	if !exists(s, "/home/guest/workspace/keep.txt") {
		t.Error("Expected the player's changes to carry over")
	}
	if s.Complete() {
		t.Error("Expected the new level to be incomplete")
	}
}

func TestAdvanceAcrossEpisodes(t *testing.T) {
	s := start(t, 5, AllTasks).s
	s.Evaluate()
	if _, err := s.Advance(); err != nil {
		t.Fatalf("failed to advance: %v", err)
	}
	if s.Display() != "/home/guest" {
		t.Errorf("Expected level 6 start path, got %s", s.Display())
	}
}

func TestAdvancePastLastLevel(t *testing.T) {
	s := start(t, 15, AllTasks).s
	s.Evaluate()
	ok, err := s.Advance()
	if err != nil || ok {
		t.Fatalf("Expected the game to end, got %v %v", ok, err)
	}
	if !s.Finished() {
		t.Error("Expected the game to be finished")
	}
}

func TestRestart(t *testing.T) {
	s := start(t, 2).s
	goTo(t, s, "/home/guest/incoming")
	point(t, s, "watcher_agent.sys")
	if _, err := s.PrepareDelete(); err != nil {
		t.Fatalf("failed to prepare delete: %v", err)
	}
	if err := s.ConfirmDelete(false); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	s.Evaluate()
	if !s.TaskDone("delete-watcher") {
		t.Fatal("Expected delete-watcher to be done")
	}

	s.Restart()
	if !exists(s, "/home/guest/incoming/watcher_agent.sys") {
		t.Error("Expected the watcher back")
	}
	if s.TaskDone("delete-watcher") {
		t.Error("Expected restart to forget the level's tasks")
	}
	if s.Display() != "/var" {
		t.Errorf("Expected the level start path, got %s", s.Display())
	}
	if s.Stats().Keystrokes != 0 || s.Clipboard() != nil {
		t.Error("Expected per-level state to reset")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
