package tree

import (
	"fmt"
	"strings"
)

// Action is a mutation that protection rules can block.
type Action string

const (
	ActionDelete Action = "delete"
	ActionCut    Action = "cut"
	ActionRename Action = "rename"
)

// Allowance lets a level delete protected nodes at or below an ancestor,
// named by display segments below the root (e.g. home, guest, datastore).
// When RequiresTask is set the allowance only applies once that task is done.
type Allowance struct {
	Path         []string `yaml:"path"`
	RequiresTask string   `yaml:"requires_task,omitempty"`
}

// Rules is the level context protection is judged against.
type Rules struct {
	Level int // 1-based level ordinal
	Allow []Allowance
	Done  func(taskID string) bool
}

var systemDirs = map[string]bool{
	"root": true, "home": true, "guest": true, "etc": true,
	"tmp": true, "bin": true, "usr": true, "var": true,
}

// IsProtected returns a short human-readable reason when action may not be
// applied to node, or "" when it may.
func IsProtected(root *Node, current Path, node *Node, rules Rules, action Action) string {
	if node.Protected && !rules.allows(root, node, action) {
		return fmt.Sprintf("%s is sealed. %s denied.", node.Name, capitalize(string(action)))
	}
	if reason := assetRule(node, rules.Level, action); reason != "" {
		return reason
	}
	if node.Kind == KindDir && systemDirs[node.Name] && len(current) <= 3 {
		return "System integrity protection: " + node.Name
	}
	return ""
}

func (r Rules) allows(root *Node, node *Node, action Action) bool {
	if action != ActionDelete {
		return false
	}
	_, path := FindByID(root, node.ID)
	if path == nil {
		return false
	}
	names := strings.Split(strings.TrimPrefix(DisplayPath(root, path), "/"), "/")
	for _, a := range r.Allow {
		if !hasPrefix(names, a.Path) {
			continue
		}
		if a.RequiresTask != "" && (r.Done == nil || !r.Done(a.RequiresTask)) {
			continue
		}
		return true
	}
	return false
}

// assetRule holds the per-file locks on story-critical assets.
func assetRule(node *Node, level int, action Action) string {
	if node.Kind != KindFile {
		return ""
	}
	switch node.Name {
	case "access_key.pem":
		switch {
		case action == ActionDelete:
			return "Critical asset. Deletion prohibited."
		case action == ActionCut && level != 8 && level != 10:
			return "Asset locked. Modification not authorized."
		case action == ActionRename && level != 10:
			return "Asset identity sealed. Rename not authorized."
		}
	case "mission_log.md":
		switch {
		case action == ActionDelete && level != 14:
			return "Mission log required for validation."
		case action == ActionRename && level < 14:
			return "Mission log identity locked."
		}
	case "target_map.png":
		switch {
		case action == ActionDelete && level < 15:
			return "Intel target. Do not destroy."
		case action == ActionCut && level != 3:
			return "Map file anchored until capture sequence."
		case action == ActionRename && level < 3:
			return "Target signature locked."
		}
	}
	return ""
}

func hasPrefix(names, prefix []string) bool {
	if len(prefix) == 0 || len(prefix) > len(names) {
		return false
	}
	for i := range prefix {
		if names[i] != prefix[i] {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
