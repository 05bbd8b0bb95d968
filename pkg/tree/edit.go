package tree

import "strings"

// Existence-checked edits used by scripted changes to the world. Each one is
// a no-op when the tree already has the requested shape or when its anchor
// does not resolve, so applying it twice is the same as applying it once.

// Ensure returns the path of the child of parent that has n's name and kind,
// adding n first when there is none. ok is false when parent does not
// resolve to a container.
func Ensure(root *Node, parent Path, n *Node) (*Node, Path, bool) {
	p, found := NodeAt(root, parent)
	if !found || !p.Kind.IsContainer() {
		return root, nil, false
	}
	if existing := p.ChildNamed(n.Name, n.Kind); existing != nil {
		return root, parent.Append(existing.ID), true
	}
	out, err := Add(root, parent, n)
	if err != nil {
		return root, nil, false
	}
	return out, parent.Append(n.ID), true
}

// EnsureAt is Ensure with the parent given as a display path.
func EnsureAt(root *Node, parent string, n *Node) (*Node, Path, bool) {
	p, ok := Lookup(root, parent)
	if !ok {
		return root, nil, false
	}
	return Ensure(root, p, n)
}

// RemoveWhere drops every child of parent for which drop returns true.
func RemoveWhere(root *Node, parent Path, drop func(*Node) bool) *Node {
	p, ok := NodeAt(root, parent)
	if !ok || !p.Kind.IsContainer() {
		return root
	}
	kept := make([]*Node, 0, len(p.Children))
	for _, c := range p.Children {
		if !drop(c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(p.Children) {
		return root
	}
	return SetChildren(root, parent, kept)
}

// SetChildren replaces the child list of the container at path.
func SetChildren(root *Node, path Path, children []*Node) *Node {
	out, err := Update(root, path, func(n *Node) (*Node, error) {
		if !n.Kind.IsContainer() {
			return nil, ErrNotContainer
		}
		c := n.Copy()
		c.Children = make([]*Node, 0, len(children))
		for _, ch := range children {
			c.Children = append(c.Children, adopt(ch, n.ID))
		}
		return c, nil
	})
	if err != nil {
		return root
	}
	return out
}

// Modify replaces the node at path with the result of fn applied to a copy.
// The node keeps its id and parent.
func Modify(root *Node, path Path, fn func(c *Node)) *Node {
	out, err := Update(root, path, func(n *Node) (*Node, error) {
		c := n.Copy()
		fn(c)
		c.ID, c.ParentID = n.ID, n.ParentID
		return c, nil
	})
	if err != nil {
		return root
	}
	return out
}

// Named is a drop predicate matching any of the given names.
func Named(names ...string) func(*Node) bool {
	return func(n *Node) bool {
		for _, name := range names {
			if n.Name == name {
				return true
			}
		}
		return false
	}
}

// HasSuffix is a predicate matching names that end in suffix.
func HasSuffix(suffix string) func(*Node) bool {
	return func(n *Node) bool { return strings.HasSuffix(n.Name, suffix) }
}
