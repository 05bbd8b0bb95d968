package tree

import "strings"

// NodeAt walks path from root. The first id must be the root's own id.
func NodeAt(root *Node, path Path) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	if len(path) == 0 {
		return root, true
	}
	if path[0] != root.ID {
		return nil, false
	}
	cur := root
	for _, id := range path[1:] {
		next, _ := cur.Child(id)
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// FindByID locates a node anywhere in the tree with a depth-first search and
// returns it along with its full path from the root.
func FindByID(root *Node, id string) (*Node, Path) {
	var found *Node
	var foundPath Path
	Walk(root, func(n *Node, p Path) bool {
		if n.ID == id {
			found, foundPath = n, p
			return false
		}
		return true
	})
	return found, foundPath
}

// FindByName returns the first node, depth-first, with the given name and
// kind. An empty kind matches any kind.
func FindByName(root *Node, name string, kind Kind) (*Node, Path) {
	var found *Node
	var foundPath Path
	Walk(root, func(n *Node, p Path) bool {
		if n.Name == name && (kind == "" || n.Kind == kind) {
			found, foundPath = n, p
			return false
		}
		return true
	})
	return found, foundPath
}

// Nearest trims path back to the deepest prefix that still resolves. A path
// that does not start at the root collapses to the root alone.
func Nearest(root *Node, path Path) Path {
	if len(path) == 0 || path[0] != root.ID {
		return Path{root.ID}
	}
	out := Path{root.ID}
	cur := root
	for _, id := range path[1:] {
		next, _ := cur.Child(id)
		if next == nil {
			break
		}
		out = append(out, id)
		cur = next
	}
	return out
}

// DisplayPath renders path as a slash-separated string of names, skipping the
// root's own name. It stops at the first id that does not resolve and returns
// "/" when nothing below the root resolves.
func DisplayPath(root *Node, path Path) string {
	if root == nil || len(path) == 0 || path[0] != root.ID {
		return "/"
	}
	var names []string
	cur := root
	for _, id := range path[1:] {
		next, _ := cur.Child(id)
		if next == nil {
			break
		}
		names = append(names, next.Name)
		cur = next
	}
	if len(names) == 0 {
		return "/"
	}
	return "/" + strings.Join(names, "/")
}

// Lookup converts a display path back into an id path. Names are matched
// against children in order, preferring containers for every segment but the
// last so a file and a directory sharing a name do not block traversal.
func Lookup(root *Node, display string) (Path, bool) {
	out := Path{root.ID}
	cur := root
	segs := splitSegments(display)
	for i, seg := range segs {
		next := containerNamed(cur, seg)
		if next == nil && i == len(segs)-1 {
			next = cur.ChildNamed(seg, "")
		}
		if next == nil {
			return nil, false
		}
		out = append(out, next.ID)
		cur = next
	}
	return out, true
}

// Directory is a container together with its display path.
type Directory struct {
	Path    Path
	Display string
}

// Directories lists every container below the root in depth-first order.
func Directories(root *Node) []Directory {
	var out []Directory
	var names []string
	var visit func(n *Node, p Path)
	visit = func(n *Node, p Path) {
		for _, c := range n.Children {
			if !c.Kind.IsContainer() {
				continue
			}
			cp := p.Append(c.ID)
			names = append(names, c.Name)
			out = append(out, Directory{Path: cp, Display: "/" + strings.Join(names, "/")})
			visit(c, cp)
			names = names[:len(names)-1]
		}
	}
	visit(root, Path{root.ID})
	return out
}

func splitSegments(s string) []string {
	var out []string
	for _, seg := range strings.Split(s, "/") {
		if seg != "" && seg != "." {
			out = append(out, seg)
		}
	}
	return out
}

func containerNamed(n *Node, name string) *Node {
	for _, c := range n.Children {
		if c.Name == name && c.Kind.IsContainer() {
			return c
		}
	}
	return nil
}
