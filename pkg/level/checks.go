package level

import (
	"strings"

	"github.com/mattsolo1/grove-terminus/pkg/replay"
	"github.com/mattsolo1/grove-terminus/pkg/task"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
	"github.com/mattsolo1/grove-terminus/pkg/view"
)

type rule struct {
	check  func(task.Context) bool
	hidden func(task.Context) bool
}

// legacyCutoff separates legacy service files from recent ones on level 11.
var legacyCutoff = replay.Ago(30 * replay.Day)

var keyFragments = []string{".key_tokyo.key", ".key_berlin.key", ".key_saopaulo.key"}

func checks() map[int]map[string]rule {
	return map[int]map[string]rule{
		1:  awakening(),
		2:  reconnaissance(),
		3:  harvest(),
		4:  uplink(),
		5:  containment(),
		6:  batch(),
		7:  bypass(),
		8:  disguise(),
		9:  cleanup(),
		10: heist(),
		11: daemonRecon(),
		12: installation(),
		13: consciousness(),
		14: sterilization(),
		15: transmission(),
	}
}

func is(fn func(task.Context) bool) rule { return rule{check: fn} }

func awakening() map[string]rule {
	return map[string]rule{
		"calibrate-sensors": is(func(c task.Context) bool {
			return c.Stats.Has(task.UsedDown) && c.Stats.Has(task.UsedUp)
		}),
		"enter-datastore": is(func(c task.Context) bool { return c.Under("datastore") }),
		"view-personnel": is(func(c task.Context) bool {
			return c.Under("datastore") && c.CursorOn("personnel_list.txt") &&
				c.Stats.Has(task.UsedG) && c.Stats.Has(task.UsedPreviewDown) && c.Stats.Has(task.UsedPreviewUp)
		}),
		"nav-2b": is(func(c task.Context) bool {
			return c.Under("datastore") && c.Stats.Has(task.UsedGG)
		}),
		"retreat-var": is(func(c task.Context) bool { return c.In("var") }),
	}
}

func reconnaissance() map[string]rule {
	return map[string]rule{
		"recon-watchdog": is(func(c task.Context) bool {
			return c.Under("log") && c.CursorOn("watchdog.log")
		}),
		"explore-mail": is(func(c task.Context) bool {
			return c.Under("mail") && c.Cursor != nil && c.Cursor.ID == "kortega-email-3"
		}),
		"goto-incoming": is(func(c task.Context) bool { return c.Under("incoming") }),
		"locate-watcher": is(func(c task.Context) bool {
			return c.CursorOn("watcher_agent.sys") && c.ShowInfo
		}),
		"delete-watcher": is(func(c task.Context) bool { return !c.Anywhere("watcher_agent.sys") }),
	}
}

func harvest() map[string]rule {
	return map[string]rule{
		"data-harvest-1": is(func(c task.Context) bool { return c.CursorOn("abandoned_script.py") }),
		"data-harvest-2": is(func(c task.Context) bool {
			return c.Under("incoming") && c.CursorOn("sector_map.png") &&
				c.Mode == task.ModeNormal && c.Stats.Has(task.UsedFilter)
		}),
		"data-harvest-3": is(func(c task.Context) bool {
			return c.Clipboard.IsCut() && c.Clipboard.Holds("sector_map.png") &&
				c.Filter(replay.Incoming) == "" && c.Mode == task.ModeNormal
		}),
		"data-harvest-4": is(func(c task.Context) bool {
			return c.Under("media") && c.Child(replay.Media, "sector_map.png") != nil
		}),
	}
}

func uplink() map[string]rule {
	protocols := func(c task.Context) *tree.Node { return c.Dir(replay.Datastore, "protocols") }
	return map[string]rule{
		"nav-and-create-dir": is(func(c task.Context) bool { return protocols(c) != nil }),
		"enter-and-create-v1": is(func(c task.Context) bool {
			p := protocols(c)
			return p != nil && c.Path.Contains(p.ID) && p.ChildNamed("uplink_v1.conf", "") != nil
		}),
		"clone-and-rename": is(func(c task.Context) bool {
			p := protocols(c)
			return p != nil && p.ChildNamed("uplink_v2.conf", "") != nil
		}),
	}
}

func containment() map[string]rule {
	deployed := func(c task.Context) bool {
		active := c.Dir(replay.Vault, "active")
		return active != nil && active.ChildNamed("uplink_v1.conf", "") != nil &&
			active.ChildNamed("uplink_v2.conf", "") != nil
	}
	return map[string]rule{
		"batch-cut-files": is(func(c task.Context) bool {
			return c.Clipboard.IsCut() && c.Clipboard.Holds("uplink_v1.conf") && c.Clipboard.Holds("uplink_v2.conf")
		}),
		"reveal-hidden": is(func(c task.Context) bool {
			return c.Under("guest") && c.ShowHidden && c.Stats.Has(task.UsedGH)
		}),
		"establish-stronghold": is(func(c task.Context) bool { return c.Dir(replay.Vault, "active") != nil }),
		"deploy-assets":        is(deployed),
		"hide-hidden": is(func(c task.Context) bool {
			return deployed(c) && c.Under("guest") && !c.ShowHidden && c.Stats.Has(task.UsedGH)
		}),
	}
}

func batch() map[string]rule {
	return map[string]rule{
		"batch-descend": is(func(c task.Context) bool { return c.Under("batch_logs") }),
		"recursive-search": is(func(c task.Context) bool {
			return c.Stats.Has(task.UsedSearch) && strings.Contains(c.SearchQuery, ".log")
		}),
		"select-all-search": is(func(c task.Context) bool {
			return c.Stats.Has(task.UsedCtrlA) && c.Clipboard.IsYank() &&
				len(c.Clipboard.Nodes) >= 4 && c.SearchQuery == ""
		}),
		"goto-config-vault": is(func(c task.Context) bool {
			return c.Stats.Has(task.UsedGC) && c.Dir(replay.Vault, "training_data") != nil
		}),
		"deploy-to-vault": is(func(c task.Context) bool {
			td := c.Dir(replay.Vault, "training_data")
			if td == nil || len(td.Children) < 4 {
				return false
			}
			for _, n := range td.Children {
				if strings.HasSuffix(n.Name, ".log") {
					return true
				}
			}
			return false
		}),
	}
}

func bypass() map[string]rule {
	return map[string]rule{
		"nav-to-root": is(func(c task.Context) bool {
			return c.Stats.Has(task.UsedGR) && len(c.Path) == 1
		}),
		"locate-token": is(func(c task.Context) bool {
			return (c.Stats.FzfFinds > 0 || c.Stats.Has(task.UsedSearch)) && c.CursorOn("access_token.key")
		}),
		"stage-token": is(func(c task.Context) bool {
			return c.Completed("locate-token") && c.Clipboard.IsCut() && c.Clipboard.Holds("access_token.key")
		}),
		"zoxide-vault": is(func(c task.Context) bool {
			return c.Completed("stage-token") && c.Stats.FuzzyJumps >= 1 && c.Under("vault")
		}),
		"abort-operation": {
			hidden: func(c task.Context) bool { return !c.Completed("zoxide-vault") },
			check: func(c task.Context) bool {
				return c.Completed("zoxide-vault") && c.Clipboard.Empty()
			},
		},
	}
}

func disguise() map[string]rule {
	core := func(c task.Context) *tree.Node { return c.Dir(replay.Workspace, "systemd-core") }
	inCore := func(c task.Context) bool {
		n := core(c)
		return n != nil && c.Path.Contains(n.ID)
	}
	return map[string]rule{
		"investigate-corruption": is(func(c task.Context) bool {
			return c.Stats.Keystrokes > 0 && (inCore(c) || c.In("systemd-core"))
		}),
		"verify-damage": is(func(c task.Context) bool {
			return c.Stats.Keystrokes > 0 && inCore(c) && c.CursorOn("uplink_v1.conf") &&
				strings.Contains(strings.ToLower(c.Cursor.Content), "corrupt") && c.Stats.Has(task.UsedFilter)
		}),
		"clear-filter": is(func(c task.Context) bool {
			n := core(c)
			return c.Stats.Keystrokes > 0 && c.Completed("verify-damage") && n != nil && c.Filters[n.ID] == ""
		}),
		"acquire-patch": is(func(c task.Context) bool {
			if c.Stats.Keystrokes == 0 || c.Clipboard.Empty() {
				return false
			}
			first := c.Clipboard.Nodes[0]
			return first.Name == "uplink_v1.conf" && !strings.Contains(first.Content, "CORRUPT")
		}),
		"deploy-patch": is(func(c task.Context) bool {
			n := core(c)
			if c.Stats.Keystrokes == 0 || n == nil {
				return false
			}
			f := n.ChildNamed("uplink_v1.conf", "")
			return f != nil && !strings.Contains(f.Content, "CORRUPT") &&
				c.Stats.Has(task.UsedShiftP) && c.Stats.Has(task.UsedHistoryBack)
		}),
	}
}

var tmpAnchors = []string{"ghost_process.pid", "socket_001.sock", "system_monitor.pid", "access_token.key"}

func cleanup() map[string]rule {
	return map[string]rule{
		"cleanup-1-select": is(func(c task.Context) bool {
			tmp := c.At(replay.Tmp)
			if tmp == nil || !c.Path.Contains(tmp.ID) {
				return false
			}
			for _, name := range tmpAnchors {
				n := tmp.ChildNamed(name, "")
				if n == nil || !c.Selected[n.ID] {
					return false
				}
			}
			return true
		}),
		"cleanup-2-invert": is(func(c task.Context) bool { return c.Stats.Has(task.UsedCtrlR) }),
		"cleanup-3-delete": is(func(c task.Context) bool {
			tmp := c.At(replay.Tmp)
			if !c.Stats.Has(task.UsedD) || tmp == nil {
				return false
			}
			keep := tree.Named(tmpAnchors...)
			files := 0
			for _, n := range tmp.Children {
				if n.Kind.IsContainer() {
					continue
				}
				if !keep(n) {
					return false
				}
				files++
			}
			return files == len(tmpAnchors)
		}),
	}
}

func heist() map[string]rule {
	return map[string]rule{
		"heist-1-nav": is(func(c task.Context) bool {
			creds := c.At(replay.Incoming + "/backup_logs.zip/credentials")
			return creds != nil && c.Path.Contains(creds.ID)
		}),
		"heist-2-sort": is(func(c task.Context) bool {
			return c.Sort == view.SortModified && c.Stats.Has(task.UsedSortM)
		}),
		"heist-3-yank": is(func(c task.Context) bool {
			return c.Completed("heist-2-sort") && c.CursorOn("access_key_new.pem") &&
				c.Clipboard.IsYank() && c.Clipboard.Holds("access_key_new.pem") && c.Stats.Has(task.UsedY)
		}),
		"heist-4-integrate": is(func(c task.Context) bool {
			creds := c.At(replay.Workspace + "/systemd-core/credentials")
			return creds != nil && creds.ChildNamed("access_key_new.pem", "") != nil && c.Stats.Has(task.UsedP)
		}),
	}
}

// IsLegacy reports whether a service file predates the level 11 cutoff. A
// node without a timestamp counts as legacy.
func IsLegacy(n *tree.Node) bool {
	return n.ModTime.Before(legacyCutoff)
}

func daemonRecon() map[string]rule {
	return map[string]rule{
		"search-services":  is(func(c task.Context) bool { return c.Stats.Has(task.UsedSearch) }),
		"sort-by-modified": is(func(c task.Context) bool { return c.Sort == view.SortModified }),
		"acquire-legacy": is(func(c task.Context) bool {
			if !c.Clipboard.IsCut() || len(c.Clipboard.Nodes) < 2 {
				return false
			}
			for _, n := range c.Clipboard.Nodes {
				if !IsLegacy(n) || n.Honeypot {
					return false
				}
			}
			return true
		}),
		"deposit-daemons": is(func(c task.Context) bool {
			core := c.Dir(replay.Workspace, "systemd-core")
			if core == nil || !c.Path.Contains(core.ID) || !c.Stats.Has(task.UsedP) {
				return false
			}
			services := 0
			for _, n := range core.Children {
				if strings.HasSuffix(n.Name, ".service") {
					services++
				}
			}
			return services >= 2
		}),
	}
}

// scenario builds a rule for a level 12 threat: hidden unless the scenario's
// trace marker exists, complete once cleared reports the threat gone.
func scenario(trace string, cleared func(task.Context) bool) rule {
	active := func(c task.Context) bool { return c.Child(replay.Config, trace) != nil }
	return rule{
		hidden: func(c task.Context) bool { return !active(c) },
		check:  func(c task.Context) bool { return active(c) && cleared(c) },
	}
}

func installation() map[string]rule {
	gone := func(display, name string) func(task.Context) bool {
		return func(c task.Context) bool { return c.Child(display, name) == nil }
	}
	return map[string]rule{
		"scen-b1-traffic": scenario(".trace_scen_b1", gone(replay.Workspace, "alert_traffic.log")),
		"scen-b2-trace":   scenario(".trace_scen_b2", gone(replay.Incoming, "trace_packet.sys")),
		"scen-b3-swarm": scenario(".trace_scen_b3", func(c task.Context) bool {
			for _, id := range []string{"scen-b3-1", "scen-b3-2", "scen-b3-3"} {
				if n, _ := tree.FindByID(c.Root, id); n != nil {
					return false
				}
			}
			return true
		}),
		"scen-a2-bitrot": scenario(".trace_scen_a2", gone(replay.Config, "core_dump.tmp")),
		"scen-a3-dep":    scenario(".trace_scen_a3", gone(replay.Workspace, "lib_error.log")),
		"navigate-workspace": is(func(c task.Context) bool { return c.In("workspace") }),
		"discover-identity": is(func(c task.Context) bool {
			return c.Completed("navigate-workspace") && identityInView(c)
		}),
		"cut-systemd-core": is(func(c task.Context) bool {
			return c.Completed("discover-identity") && c.Clipboard.IsCut() && c.Clipboard.Holds("systemd-core")
		}),
		"navigate-root-daemons": is(func(c task.Context) bool {
			return c.Completed("cut-systemd-core") && c.Under("daemons")
		}),
		"paste-daemon": is(func(c task.Context) bool {
			core := c.Dir(replay.Daemons, "systemd-core")
			return core != nil && c.Path.Contains(core.ID)
		}),
	}
}

func identityInView(c task.Context) bool {
	return c.In("workspace") && c.ShowHidden &&
		c.Child(replay.Workspace, ".identity.log.enc") != nil && c.CursorOn(".identity.log.enc")
}

func holdsAll(n *tree.Node, names []string) bool {
	if n == nil {
		return false
	}
	for _, name := range names {
		if n.ChildNamed(name, "") == nil {
			return false
		}
	}
	return true
}

func consciousness() map[string]rule {
	return map[string]rule{
		"search-acquire": is(func(c task.Context) bool {
			if !c.Clipboard.IsCut() {
				return false
			}
			for _, k := range keyFragments {
				if !c.Clipboard.Holds(k) {
					return false
				}
			}
			return true
		}),
		"create-relay":      is(func(c task.Context) bool { return c.Dir(replay.Workspace, "central_relay") != nil }),
		"discover-identity": is(identityInView),
		"synchronize-lattice": is(func(c task.Context) bool {
			return holdsAll(c.Dir(replay.Workspace, "central_relay"), keyFragments)
		}),
	}
}

func sterilization() map[string]rule {
	return map[string]rule{
		"nav-guest": is(func(c task.Context) bool {
			return c.Stats.Keystrokes > 0 && c.In("guest")
		}),
		"move-vault": is(func(c task.Context) bool { return c.Dir(replay.Tmp, "vault") != nil }),
		"create-decoys": is(func(c task.Context) bool {
			guest := c.At(replay.Guest)
			if !c.Completed("move-vault") || guest == nil {
				return false
			}
			decoys := 0
			for _, n := range guest.Children {
				if n.Kind == tree.KindDir && strings.HasPrefix(n.Name, "decoy_") {
					decoys++
				}
			}
			return decoys >= 3
		}),
		"delete-visible": is(func(c task.Context) bool {
			if !c.Completed("create-decoys") || !c.Stats.Has(task.UsedD) {
				return false
			}
			guest := c.At(replay.Guest)
			if guest == nil {
				return true
			}
			for _, name := range []string{"workspace", "media", "datastore", "incoming"} {
				if guest.ChildNamed(name, "") != nil {
					return false
				}
			}
			return true
		}),
		"delete-hidden": is(func(c task.Context) bool {
			if !c.Completed("delete-visible") || !c.Stats.Has(task.UsedD) {
				return false
			}
			guest := c.At(replay.Guest)
			return guest == nil || guest.ChildNamed(".config", "") == nil
		}),
	}
}

func transmission() map[string]rule {
	active := func(c task.Context) *tree.Node { return c.Dir(replay.Tmp+"/vault", "active") }
	return map[string]rule{
		"enter-vault": is(func(c task.Context) bool {
			v := c.Dir(replay.Tmp, "vault")
			return v != nil && c.Path.Contains(v.ID)
		}),
		"verify-keys": is(func(c task.Context) bool {
			a := active(c)
			if !c.Completed("enter-vault") || a == nil {
				return false
			}
			keys := 0
			for _, n := range a.Children {
				if strings.HasSuffix(n.Name, ".key") {
					keys++
				}
			}
			return keys >= 3
		}),
		"verify-configs": is(func(c task.Context) bool {
			a := active(c)
			return c.Stats.Keystrokes > 0 && c.Completed("verify-keys") && a != nil &&
				a.ChildNamed("uplink_v1.conf", "") == nil && a.ChildNamed("uplink_active.conf", "") != nil
		}),
		"verify-training": is(func(c task.Context) bool {
			a := active(c)
			return c.Completed("verify-configs") && a != nil && a.ChildNamed("payload.py", "") != nil
		}),
	}
}
