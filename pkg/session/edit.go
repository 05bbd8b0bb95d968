package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattsolo1/grove-terminus/pkg/level"
	"github.com/mattsolo1/grove-terminus/pkg/task"
	"github.com/mattsolo1/grove-terminus/pkg/telemetry"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

func (s *Session) rules() tree.Rules {
	return s.level.Rules(s.tracker.For(s.level.ID))
}

func (s *Session) protected(n *tree.Node, action tree.Action) error {
	if reason := tree.IsProtected(s.root, s.path, n, s.rules(), action); reason != "" {
		return fmt.Errorf("%w: %s", ErrProtected, reason)
	}
	return nil
}

// Cut puts the targets on the clipboard to be moved by the next paste.
func (s *Session) Cut() error {
	return s.grab(tree.ClipCut)
}

// Yank puts the targets on the clipboard to be copied by the next paste.
func (s *Session) Yank() error {
	return s.grab(tree.ClipYank)
}

func (s *Session) grab(action tree.ClipAction) error {
	if err := s.guard(); err != nil {
		return err
	}
	nodes := s.targets()
	if len(nodes) == 0 {
		return ErrNoTarget
	}
	if action == tree.ClipCut {
		s.record(task.UsedX)
		for _, n := range nodes {
			if err := s.protected(n, tree.ActionCut); err != nil {
				return err
			}
		}
	} else {
		s.record(task.UsedY)
	}

	s.clipboard = &tree.Clipboard{Action: action, Nodes: nodes, Origin: s.path}
	s.selected = make(map[string]bool)
	verb := "Cut"
	if action == tree.ClipYank {
		verb = "Yanked"
	}
	s.notice = fmt.Sprintf("%s %d item(s)", verb, len(nodes))

	for _, n := range nodes {
		if n.Honeypot {
			s.stats.Honeypots++
			s.notice = "WARNING: " + n.Name + " is monitored. Handle with care."
			s.sink.Record(telemetry.TagHoneypot, map[string]any{"level": s.level.ID, "name": n.Name, "action": string(action)})
			if s.level.ID == 11 {
				s.flags[level.FlagTriggeredHoneypot] = true
			}
		}
	}
	if s.level.ID == 11 && action == tree.ClipCut {
		for _, n := range nodes {
			if strings.HasSuffix(n.Name, ".service") && !n.Honeypot && !level.IsLegacy(n) {
				s.flags[level.FlagSelectedModern] = true
			}
		}
	}
	return nil
}

// ClearClipboard empties the clipboard without pasting.
func (s *Session) ClearClipboard() {
	if s.clipboard != nil {
		s.notice = "Clipboard cleared"
	}
	s.clipboard = nil
}

// Paste puts the clipboard into the current directory. A cut removes the
// nodes from where they are now and keeps their ids; a yank adds copies
// with fresh ids and stays on the clipboard. Name collisions get a numbered
// name, unless overwrite is set, in which case the existing node of the same
// name and kind is replaced.
func (s *Session) Paste(overwrite bool) error {
	if err := s.guard(); err != nil {
		return err
	}
	if overwrite {
		s.record(task.UsedShiftP)
	} else {
		s.record(task.UsedP)
	}
	cb := s.clipboard
	if cb.Empty() {
		return ErrEmptyClipboard
	}
	for _, n := range cb.Nodes {
		if n.Honeypot {
			s.lock("HONEYPOT TRIGGERED. " + n.Name + " was a trap. Security lockout engaged.")
			return fmt.Errorf("%s: %w", n.Name, ErrHoneypot)
		}
		if cb.IsCut() && s.path.Contains(n.ID) {
			return ErrPasteIntoSelf
		}
	}
	if overwrite {
		if err := s.vetOverwrite(cb.Nodes); err != nil {
			return err
		}
	}

	root := s.root
	if cb.IsCut() {
		for _, n := range cb.Nodes {
			if _, p := tree.FindByID(root, n.ID); p != nil {
				out, err := tree.Delete(root, p.Parent(), n.ID)
				if err != nil && !errors.Is(err, tree.ErrNotFound) {
					return err
				}
				if err == nil {
					root = out
				}
			}
		}
	}

	var last string
	for _, n := range cb.Nodes {
		node := n
		if cb.IsYank() {
			node = tree.Reidentify(n, func(string) string { return s.factory.NewID() })
		}
		if overwrite {
			dir, ok := tree.NodeAt(root, s.path)
			if !ok {
				return fmt.Errorf("paste target: %w", tree.ErrNotFound)
			}
			if existing := dir.ChildNamed(node.Name, node.Kind); existing != nil {
				out, err := tree.Delete(root, s.path, existing.ID)
				if err != nil {
					return err
				}
				root = out
			}
			out, err := tree.Add(root, s.path, node)
			if err != nil {
				return err
			}
			root = out
		} else {
			out, _, err := tree.AddWithConflictResolution(root, s.path, node)
			if err != nil {
				return err
			}
			root = out
		}
		last = node.ID
	}
	if err := tree.Validate(root); err != nil {
		return err
	}

	s.root = root
	s.notice = fmt.Sprintf("Pasted %d item(s)", len(cb.Nodes))
	if cb.IsCut() {
		s.clipboard = nil
	}
	s.place(last)
	return nil
}

// PrepareDelete vets the targets for deletion and holds them until
// ConfirmDelete. A level guard may refuse the delete or lock the player out.
func (s *Session) PrepareDelete() ([]*tree.Node, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	nodes := s.targets()
	if len(nodes) == 0 {
		return nil, ErrNoTarget
	}
	if err := s.vetDelete(nodes); err != nil {
		return nil, err
	}
	s.pending = nodes
	return nodes, nil
}

// vetDelete runs the level guard and the protection rules over nodes about
// to be removed. A tripped guard locks the player out.
func (s *Session) vetDelete(nodes []*tree.Node) error {
	if g := s.level.Guard; g != nil {
		if reason, tripped := g(s.TaskContext(), nodes); reason != "" {
			if tripped {
				s.lock(reason)
				return fmt.Errorf("%w: %s", ErrLockedOut, reason)
			}
			return fmt.Errorf("%w: %s", ErrHoneypot, reason)
		}
	}
	for _, n := range nodes {
		if err := s.protected(n, tree.ActionDelete); err != nil {
			return err
		}
	}
	return nil
}

// vetOverwrite checks the siblings an overwrite paste of nodes would
// replace, before anything is changed. Monitored files are never replaced.
func (s *Session) vetOverwrite(nodes []*tree.Node) error {
	dir, ok := tree.NodeAt(s.root, s.path)
	if !ok {
		return fmt.Errorf("paste target: %w", tree.ErrNotFound)
	}
	var replaced []*tree.Node
	for _, n := range nodes {
		existing := dir.ChildNamed(n.Name, n.Kind)
		if existing != nil && existing.ID != n.ID {
			replaced = append(replaced, existing)
		}
	}
	if len(replaced) == 0 {
		return nil
	}
	if err := s.vetDelete(replaced); err != nil {
		return err
	}
	for _, n := range replaced {
		if n.Honeypot {
			return fmt.Errorf("%s: %w", n.Name, ErrHoneypot)
		}
	}
	return nil
}

// ConfirmDelete removes the nodes held by PrepareDelete. Nodes that are
// already gone are skipped. permanent marks the D variant.
func (s *Session) ConfirmDelete(permanent bool) error {
	if err := s.guard(); err != nil {
		return err
	}
	if len(s.pending) == 0 {
		return ErrNoPending
	}
	if permanent {
		s.record(task.UsedD)
	}
	root := s.root
	removed, gone := 0, 0
	for _, n := range s.pending {
		_, p := tree.FindByID(root, n.ID)
		if p == nil {
			gone++
			continue
		}
		out, err := tree.Delete(root, p.Parent(), n.ID)
		if errors.Is(err, tree.ErrNotFound) {
			gone++
			continue
		}
		if err != nil {
			return err
		}
		root = out
		removed++
	}
	s.pending = nil
	if removed == 0 {
		return fmt.Errorf("delete: %d item(s) already gone: %w", gone, tree.ErrNotFound)
	}
	s.notice = fmt.Sprintf("Deleted %d item(s)", removed)
	if gone > 0 {
		s.notice += fmt.Sprintf(", %d already gone", gone)
	}
	s.root = root
	s.selected = make(map[string]bool)
	if s.search != nil {
		s.Search(s.search.query)
	}
	s.path = tree.Nearest(s.root, s.path)
	s.clamp()
	return nil
}

// CancelDelete drops the nodes held by PrepareDelete.
func (s *Session) CancelDelete() {
	s.pending = nil
}

// Rename gives the node under the cursor a new name.
func (s *Session) Rename(name string) error {
	if err := s.guard(); err != nil {
		return err
	}
	n := s.Cursor()
	if n == nil {
		return ErrNoTarget
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "/") || name == "." || name == ".." {
		return fmt.Errorf("%q: %w", name, tree.ErrInvalidName)
	}
	if err := s.protected(n, tree.ActionRename); err != nil {
		return err
	}
	out, err := tree.Rename(s.root, n.ID, name)
	if err != nil {
		return err
	}
	s.root = out
	if s.search != nil {
		s.Search(s.search.query)
	}
	s.place(n.ID)
	return nil
}

// Create makes the file or directory named by input, relative to the
// current directory or absolute. A same-kind node already at that name
// returns an error wrapping tree.ErrCollision; Overwrite replaces it.
func (s *Session) Create(input string) error {
	if err := s.guard(); err != nil {
		return err
	}
	out, p, err := s.factory.ResolveAndCreatePath(s.root, s.path, input)
	if err != nil {
		return err
	}
	s.created(out, p)
	return nil
}

// Overwrite is Create that replaces an existing node of the same name and
// kind with a fresh empty one.
func (s *Session) Overwrite(input string) error {
	if err := s.guard(); err != nil {
		return err
	}
	root := s.root
	_, p, err := s.factory.ResolveAndCreatePath(root, s.path, input)
	if errors.Is(err, tree.ErrCollision) {
		existing, _ := tree.NodeAt(root, p)
		if err := s.vetDelete([]*tree.Node{existing}); err != nil {
			return err
		}
		if root, err = tree.Delete(root, p.Parent(), p.Last()); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	out, p, err := s.factory.ResolveAndCreatePath(root, s.path, input)
	if err != nil {
		return err
	}
	s.created(out, p)
	return nil
}

func (s *Session) created(root *tree.Node, p tree.Path) {
	s.root = root
	n, _ := tree.NodeAt(root, p)
	s.notice = "Created " + tree.DisplayPath(root, p)
	if p.Parent().Equal(s.path) && n != nil {
		s.place(n.ID)
	}
}
