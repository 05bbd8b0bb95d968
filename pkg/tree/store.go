package tree

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IDFunc mints a fresh node id.
type IDFunc func() string

// RemapFunc derives the id of a copied node from the id of its source.
type RemapFunc func(old string) string

// RandomIDs mints random ids for nodes created by the player.
func RandomIDs() string {
	return uuid.NewString()
}

// DerivedIDs returns a RemapFunc that maps every source id to a stable
// name-based UUID within scope, so the same copy made twice gets the same ids.
func DerivedIDs(scope string) RemapFunc {
	return func(old string) string {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(scope+"/"+old)).String()
	}
}

// Update rebuilds the spine from root down to the node at path, replacing
// that node with the result of fn. fn receives the current node and must not
// modify it; it returns a replacement (usually built with Copy).
func Update(root *Node, path Path, fn func(n *Node) (*Node, error)) (*Node, error) {
	if root == nil || len(path) == 0 || path[0] != root.ID {
		return root, fmt.Errorf("path %v: %w", path, ErrNotFound)
	}
	out, err := update(root, path[1:], fn)
	if err != nil {
		return root, err
	}
	return out, nil
}

func update(n *Node, rest Path, fn func(*Node) (*Node, error)) (*Node, error) {
	if len(rest) == 0 {
		return fn(n)
	}
	child, idx := n.Child(rest[0])
	if child == nil {
		return nil, fmt.Errorf("node %q under %q: %w", rest[0], n.Name, ErrNotFound)
	}
	replaced, err := update(child, rest[1:], fn)
	if err != nil {
		return nil, err
	}
	c := n.Copy()
	c.Children[idx] = replaced
	return c, nil
}

// Add appends node to the children of the container at parent.
func Add(root *Node, parent Path, node *Node) (*Node, error) {
	return Update(root, parent, func(p *Node) (*Node, error) {
		if !p.Kind.IsContainer() {
			return nil, fmt.Errorf("adding %q to %q: %w", node.Name, p.Name, ErrNotContainer)
		}
		c := p.Copy()
		c.Children = append(c.Children, adopt(node, p.ID))
		return c, nil
	})
}

// AddWithConflictResolution behaves like Add but renames node with a numeric
// suffix (name_1.ext, name_2.ext, ...) until no same-kind sibling shares its
// name. It never overwrites and always succeeds when parent resolves. The
// final name is returned.
func AddWithConflictResolution(root *Node, parent Path, node *Node) (*Node, string, error) {
	p, ok := NodeAt(root, parent)
	if !ok {
		return root, "", fmt.Errorf("parent %v: %w", parent, ErrNotFound)
	}
	name := UniqueName(p, node.Name, node.Kind)
	if name != node.Name {
		node = node.Copy()
		node.Name = name
	}
	out, err := Add(root, parent, node)
	if err != nil {
		return root, "", err
	}
	return out, name, nil
}

// UniqueName returns name, or the first suffixed variant of it that no
// same-kind child of parent uses. Files keep their extension after the suffix.
func UniqueName(parent *Node, name string, kind Kind) string {
	if parent.ChildNamed(name, kind) == nil {
		return name
	}
	base, ext := name, ""
	if kind == KindFile {
		if dot := strings.LastIndex(name, "."); dot > 0 {
			base, ext = name[:dot], name[dot:]
		}
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if parent.ChildNamed(candidate, kind) == nil {
			return candidate
		}
	}
}

// Delete removes the child with the given id from the container at parent.
func Delete(root *Node, parent Path, id string) (*Node, error) {
	return Update(root, parent, func(p *Node) (*Node, error) {
		_, idx := p.Child(id)
		if idx < 0 {
			return nil, fmt.Errorf("deleting %q from %q: %w", id, p.Name, ErrNotFound)
		}
		c := p.Copy()
		c.Children = append(append(make([]*Node, 0, len(p.Children)-1), p.Children[:idx]...), p.Children[idx+1:]...)
		return c, nil
	})
}

// Rename changes the name of the node with the given id, keeping its identity
// and children. A same-kind sibling with the new name is a collision.
func Rename(root *Node, id, newName string) (*Node, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" || strings.Contains(newName, "/") {
		return root, fmt.Errorf("renaming %q to %q: %w", id, newName, ErrInvalidName)
	}
	node, path := FindByID(root, id)
	if node == nil {
		return root, fmt.Errorf("renaming %q: %w", id, ErrNotFound)
	}
	if node.Name == newName {
		return root, nil
	}
	if parent, ok := NodeAt(root, path.Parent()); ok && len(path) > 1 {
		if parent.ChildNamed(newName, node.Kind) != nil {
			return root, fmt.Errorf("renaming %q to %q: %w", node.Name, newName, ErrCollision)
		}
	}
	return Update(root, path, func(n *Node) (*Node, error) {
		c := n.Copy()
		c.Name = newName
		return c, nil
	})
}

// Move detaches the child id from the container at from and appends it,
// with its id intact, to the container at to.
func Move(root *Node, from Path, id string, to Path) (*Node, error) {
	parent, ok := NodeAt(root, from)
	if !ok {
		return root, fmt.Errorf("moving %q: source %v: %w", id, from, ErrNotFound)
	}
	node, _ := parent.Child(id)
	if node == nil {
		return root, fmt.Errorf("moving %q from %q: %w", id, parent.Name, ErrNotFound)
	}
	if to.Contains(id) {
		return root, fmt.Errorf("moving %q into itself: %w", node.Name, ErrNotFound)
	}
	out, err := Delete(root, from, id)
	if err != nil {
		return root, err
	}
	out, err = Add(out, to, node)
	if err != nil {
		return root, err
	}
	return out, nil
}

// Reidentify returns a deep copy of n in which every node id has been passed
// through remap and every parent id points at the copied parent.
func Reidentify(n *Node, remap RemapFunc) *Node {
	return reidentify(n, remap, n.ParentID)
}

func reidentify(n *Node, remap RemapFunc, parentID string) *Node {
	c := *n
	c.ID = remap(n.ID)
	c.ParentID = parentID
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = reidentify(ch, remap, c.ID)
		}
	}
	return &c
}

// adopt returns node with its parent id pointed at parentID, copying only
// when something actually changes. Containers without a child list get an
// empty one.
func adopt(node *Node, parentID string) *Node {
	missing := node.Kind.IsContainer() && node.Children == nil
	if node.ParentID == parentID && !missing {
		return node
	}
	c := node.Copy()
	c.ParentID = parentID
	if missing {
		c.Children = []*Node{}
	}
	return c
}
