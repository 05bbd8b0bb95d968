package task

import (
	"github.com/mattsolo1/grove-terminus/pkg/tree"
	"github.com/mattsolo1/grove-terminus/pkg/view"
)

// ModeNormal is the Mode value while no prompt, prefix or dialog is open.
const ModeNormal = "normal"

// Context is the read-only snapshot of a game session that checks run
// against. Checks must not modify anything reachable from it.
type Context struct {
	Root        *tree.Node
	Path        tree.Path
	Cursor      *tree.Node
	Mode        string
	Clipboard   *tree.Clipboard
	Filters     map[string]string
	ShowHidden  bool
	ShowInfo    bool
	Selected    map[string]bool
	SearchQuery string
	Sort        view.SortKey
	Direction   view.Direction
	Stats       Stats
	Level       int
	Flags       map[string]bool

	// Done reports whether a task of the current level was ever completed.
	Done func(taskID string) bool
}

// Completed reports whether the task with the given id is recorded complete.
func (c Context) Completed(id string) bool {
	return c.Done != nil && c.Done(id)
}

// Current returns the directory the player is in.
func (c Context) Current() *tree.Node {
	n, _ := tree.NodeAt(c.Root, c.Path)
	return n
}

// In reports whether the current directory is named name.
func (c Context) In(name string) bool {
	n := c.Current()
	return n != nil && n.Name == name
}

// Under reports whether any directory on the current path is named name.
func (c Context) Under(name string) bool {
	cur := c.Root
	for _, id := range c.Path[min(1, len(c.Path)):] {
		next, _ := cur.Child(id)
		if next == nil {
			return false
		}
		if next.Name == name {
			return true
		}
		cur = next
	}
	return false
}

// At resolves a display path such as /home/guest/workspace.
func (c Context) At(display string) *tree.Node {
	p, ok := tree.Lookup(c.Root, display)
	if !ok {
		return nil
	}
	n, _ := tree.NodeAt(c.Root, p)
	return n
}

// Child returns the child of the node at display named name, of any kind.
func (c Context) Child(display, name string) *tree.Node {
	dir := c.At(display)
	if dir == nil {
		return nil
	}
	return dir.ChildNamed(name, "")
}

// Dir returns the directory named name under display, or nil.
func (c Context) Dir(display, name string) *tree.Node {
	dir := c.At(display)
	if dir == nil {
		return nil
	}
	return dir.ChildNamed(name, tree.KindDir)
}

// CursorOn reports whether the cursor rests on a node named name.
func (c Context) CursorOn(name string) bool {
	return c.Cursor != nil && c.Cursor.Name == name
}

// Filter returns the filter set on the directory at display.
func (c Context) Filter(display string) string {
	n := c.At(display)
	if n == nil {
		return ""
	}
	return c.Filters[n.ID]
}

// Anywhere reports whether any node in the tree is named name.
func (c Context) Anywhere(name string) bool {
	n, _ := tree.FindByName(c.Root, name, "")
	return n != nil
}

// IsSelected reports whether a child of the current directory named name is
// selected.
func (c Context) IsSelected(name string) bool {
	cur := c.Current()
	if cur == nil {
		return false
	}
	for _, ch := range cur.Children {
		if ch.Name == name && c.Selected[ch.ID] {
			return true
		}
	}
	return false
}
