package level

import (
	"github.com/mattsolo1/grove-terminus/pkg/task"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

// Guard vets a pending delete. It returns a non-empty reason to refuse the
// delete; tripped means the player sprang a trap and is locked out.
type Guard func(c task.Context, targets []*tree.Node) (reason string, tripped bool)

func guards() map[int]Guard {
	return map[int]Guard{
		9: func(_ task.Context, targets []*tree.Node) (string, bool) {
			if anyNamed(targets, "system_monitor.pid") {
				return "PATTERN RECOGNIZED. Forensics detected deletion of the system monitor.", true
			}
			return "", false
		},
		14: func(c task.Context, targets []*tree.Node) (string, bool) {
			if anyNamed(targets, ".purge_lock") && !c.Completed("create-decoys") {
				return "HONEYPOT TRIGGERED! Create decoy directories first to mask the deletion pattern.", false
			}
			return "", false
		},
	}
}

func anyNamed(nodes []*tree.Node, name string) bool {
	for _, n := range nodes {
		if n.Name == name {
			return true
		}
	}
	return false
}
