package tree

import (
	"fmt"
	"time"
)

// Kind categorizes the different kinds of nodes in the virtual filesystem.
type Kind string

const (
	KindFile    Kind = "file"
	KindDir     Kind = "dir"
	KindArchive Kind = "archive" // A directory-like container, e.g. backup_logs.zip
)

// IsContainer reports whether nodes of this kind carry children.
func (k Kind) IsContainer() bool {
	return k == KindDir || k == KindArchive
}

// Rank orders kinds for display: directories, then archives, then files.
func (k Kind) Rank() int {
	switch k {
	case KindDir:
		return 0
	case KindArchive:
		return 1
	default:
		return 2
	}
}

// Node represents a single entry in the virtual filesystem. Nodes reachable
// from a tree value are never modified; operations in this package return a
// new root that shares every untouched subtree with the old one.
type Node struct {
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	Kind      Kind      `yaml:"kind" json:"kind"`
	Content   string    `yaml:"content,omitempty" json:"content,omitempty"`
	ModTime   time.Time `yaml:"modified,omitempty" json:"modified,omitempty"`
	Protected bool      `yaml:"protected,omitempty" json:"protected,omitempty"`
	Honeypot  bool      `yaml:"honeypot,omitempty" json:"honeypot,omitempty"`

	// Hierarchy
	ParentID string  `yaml:"-" json:"parent_id,omitempty"`
	Children []*Node `yaml:"children,omitempty" json:"children,omitempty"`
}

// Path is an ordered list of node ids from the root to a target, inclusive.
type Path []string

// Append returns a new path extended by id. The receiver is never aliased.
func (p Path) Append(id string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, id)
}

// Parent returns the path without its last element.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return append(Path(nil), p[:len(p)-1]...)
}

// Last returns the id of the target node, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Contains reports whether id appears anywhere in the path.
func (p Path) Contains(id string) bool {
	for _, v := range p {
		if v == id {
			return true
		}
	}
	return false
}

// Equal reports whether two paths name the same chain of ids.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Copy returns a shallow copy of n with its own children slice, ready to be
// modified and spliced into a new tree.
func (n *Node) Copy() *Node {
	c := *n
	if n.Children != nil {
		c.Children = append(make([]*Node, 0, len(n.Children)+1), n.Children...)
	}
	return &c
}

// Child returns the direct child with the given id.
func (n *Node) Child(id string) (*Node, int) {
	for i, c := range n.Children {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

// ChildNamed returns the first direct child with the given name and kind.
// An empty kind matches any kind.
func (n *Node) ChildNamed(name string, kind Kind) *Node {
	for _, c := range n.Children {
		if c.Name == name && (kind == "" || c.Kind == kind) {
			return c
		}
	}
	return nil
}

// Size is the child count for containers and the content length for files.
func (n *Node) Size() int {
	if n.Kind.IsContainer() {
		return len(n.Children)
	}
	return len(n.Content)
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn stops the walk.
func Walk(n *Node, fn func(n *Node, path Path) bool) {
	walk(n, Path{n.ID}, fn)
}

func walk(n *Node, path Path, fn func(*Node, Path) bool) bool {
	if !fn(n, path) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, path.Append(c.ID), fn) {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants of a tree: a node carries
// children iff it is a container, every parent id matches the node that holds
// it, and ids are unique.
func Validate(root *Node) error {
	seen := make(map[string]bool)
	var err error
	var check func(n *Node, parent string) bool
	check = func(n *Node, parent string) bool {
		if seen[n.ID] {
			err = fmt.Errorf("duplicate node id %q", n.ID)
			return false
		}
		seen[n.ID] = true
		if n.Kind.IsContainer() != (n.Children != nil) {
			err = fmt.Errorf("node %q (%s): kind disagrees with children", n.ID, n.Kind)
			return false
		}
		if n.ParentID != parent {
			err = fmt.Errorf("node %q: parent id %q, held by %q", n.ID, n.ParentID, parent)
			return false
		}
		for _, c := range n.Children {
			if !check(c, n.ID) {
				return false
			}
		}
		return true
	}
	check(root, "")
	return err
}

// MustValid panics if root violates the tree invariants. A violation is a
// program defect, never a data condition.
func MustValid(root *Node) *Node {
	if err := Validate(root); err != nil {
		panic("tree: " + err.Error())
	}
	return root
}

// NewFile builds a file node.
func NewFile(id, name, content string) *Node {
	return &Node{ID: id, Name: name, Kind: KindFile, Content: content}
}

// NewDir builds a directory node holding children, with their parent ids set.
func NewDir(id, name string, children ...*Node) *Node {
	return newContainer(id, name, KindDir, children)
}

// NewArchive builds an archive node holding children.
func NewArchive(id, name string, children ...*Node) *Node {
	return newContainer(id, name, KindArchive, children)
}

func newContainer(id, name string, kind Kind, children []*Node) *Node {
	n := &Node{ID: id, Name: name, Kind: kind, Children: make([]*Node, 0, len(children))}
	for _, c := range children {
		n.Children = append(n.Children, adopt(c, id))
	}
	return n
}
