package tree

import (
	"fmt"
	"strings"
	"time"
)

// HomeDisplay is the display path that "~" expands to.
const HomeDisplay = "/home/guest"

// Factory mints the nodes that player input creates.
type Factory struct {
	NewID IDFunc
	Now   func() time.Time
}

// NewFactory returns a Factory with random ids and the wall clock.
func NewFactory() Factory {
	return Factory{NewID: RandomIDs, Now: time.Now}
}

// CreateAtInputPath creates the node named by input relative to the directory
// at current. A trailing slash makes the final segment a directory; inner
// segments are directories that are reused when one already exists. If the
// final segment names an existing node of the same kind the tree is returned
// unchanged together with the existing node's path and ErrCollision. A file
// and a directory may share a name.
func (f Factory) CreateAtInputPath(root *Node, current Path, input string) (*Node, Path, error) {
	return f.create(root, current, input)
}

// ResolveAndCreatePath is CreateAtInputPath extended to absolute ("/etc/x")
// and home-relative ("~/x") input.
func (f Factory) ResolveAndCreatePath(root *Node, current Path, input string) (*Node, Path, error) {
	input = strings.TrimSpace(input)
	base := current
	switch {
	case input == "~" || strings.HasPrefix(input, "~/"):
		home, ok := Lookup(root, HomeDisplay)
		if !ok {
			return root, nil, fmt.Errorf("home %s: %w", HomeDisplay, ErrNotFound)
		}
		base = home
		input = strings.TrimPrefix(strings.TrimPrefix(input, "~"), "/")
	case strings.HasPrefix(input, "/"):
		base = Path{root.ID}
		input = strings.TrimLeft(input, "/")
	}
	return f.create(root, base, input)
}

func (f Factory) create(root *Node, base Path, input string) (*Node, Path, error) {
	input = strings.TrimSpace(input)
	wantDir := strings.HasSuffix(input, "/")
	segs := splitSegments(input)
	if len(segs) == 0 || segs[len(segs)-1] == ".." {
		return root, nil, fmt.Errorf("create %q: %w", input, ErrInvalidName)
	}
	if _, ok := NodeAt(root, base); !ok {
		return root, nil, fmt.Errorf("create %q in %v: %w", input, base, ErrNotFound)
	}

	out := root
	parent := append(Path(nil), base...)
	for i, seg := range segs {
		if seg == ".." {
			if len(parent) > 1 {
				parent = parent.Parent()
			}
			continue
		}
		last := i == len(segs)-1
		kind := KindDir
		if last && !wantDir {
			kind = KindFile
		}

		p, _ := NodeAt(out, parent)
		if !p.Kind.IsContainer() {
			return root, nil, fmt.Errorf("create %q inside %q: %w", seg, p.Name, ErrNotContainer)
		}
		if existing := p.ChildNamed(seg, kind); existing != nil {
			if last {
				return root, parent.Append(existing.ID), fmt.Errorf("%q in %s: %w", seg, DisplayPath(root, parent), ErrCollision)
			}
			parent = parent.Append(existing.ID)
			continue
		}

		n := &Node{ID: f.NewID(), Name: seg, Kind: kind, ModTime: f.Now()}
		if kind.IsContainer() {
			n.Children = []*Node{}
		}
		var err error
		out, err = Add(out, parent, n)
		if err != nil {
			return root, nil, err
		}
		parent = parent.Append(n.ID)
	}
	return out, parent, nil
}
