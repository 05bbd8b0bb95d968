package tree

// ClipAction says what a paste does to the source of a clipboard entry.
type ClipAction string

const (
	ClipCut  ClipAction = "cut"
	ClipYank ClipAction = "yank"
)

// Clipboard holds nodes captured by a cut or yank. Because trees are never
// modified in place, the captured nodes are independent snapshots: later
// changes to the tree do not alter what gets pasted.
type Clipboard struct {
	Action ClipAction
	Nodes  []*Node
	Origin Path
}

// Empty reports whether there is nothing to paste.
func (c *Clipboard) Empty() bool {
	return c == nil || len(c.Nodes) == 0
}

// Holds reports whether a node with the given name is on the clipboard.
func (c *Clipboard) Holds(name string) bool {
	if c == nil {
		return false
	}
	for _, n := range c.Nodes {
		if n.Name == name {
			return true
		}
	}
	return false
}

// IsCut reports whether the clipboard holds a cut.
func (c *Clipboard) IsCut() bool {
	return c != nil && c.Action == ClipCut
}

// IsYank reports whether the clipboard holds a yank.
func (c *Clipboard) IsYank() bool {
	return c != nil && c.Action == ClipYank
}
