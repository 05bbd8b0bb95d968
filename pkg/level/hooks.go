package level

import (
	"fmt"
	"time"

	"github.com/mattsolo1/grove-terminus/pkg/replay"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

// Flags recorded on level 11 and consulted by the level 12 hook.
const (
	FlagTriggeredHoneypot = "triggeredHoneypot"
	FlagSelectedModern    = "selectedModern"
)

// Scenario names accepted by the level 12 hook.
const (
	ScenarioB1 = "scen-b1"
	ScenarioB2 = "scen-b2"
	ScenarioB3 = "scen-b3"
	ScenarioA1 = "scen-a1"
	ScenarioA2 = "scen-a2"
	ScenarioA3 = "scen-a3"
)

// Scenarios lists every level 12 scenario name.
var Scenarios = []string{ScenarioA1, ScenarioA2, ScenarioA3, ScenarioB1, ScenarioB2, ScenarioB3}

func onEnterHooks() map[int]replay.Hook {
	return map[int]replay.Hook{
		5:  fillProtocols,
		6:  heuristicUpgrade,
		8:  corruptUplink,
		9:  floodTmp,
		10: firewallRules,
		11: stageServices,
		12: installThreats,
		13: identityEcho,
		15: assembleVault,
	}
}

func ensureIn(root *tree.Node, display string, nodes ...*tree.Node) *tree.Node {
	for _, n := range nodes {
		root, _, _ = tree.EnsureAt(root, display, n)
	}
	return root
}

// fillProtocols gives the uplinks the player created empty on level 4 their
// content, and leaves the policy draft next to them.
func fillProtocols(root *tree.Node, _ replay.HookContext) (*tree.Node, error) {
	proto := replay.Datastore + "/protocols"
	root = ensureIn(root, proto, replay.File("lvl5-policy-update", "security_policy_v1.1.draft", replay.PolicyDraft, replay.Ago(3*replay.Day)))
	dir, ok := tree.Lookup(root, proto)
	if !ok {
		return root, nil
	}
	n, _ := tree.NodeAt(root, dir)
	for _, u := range []struct{ name, content string }{
		{"uplink_v1.conf", replay.UplinkV1},
		{"uplink_v2.conf", replay.UplinkV2},
	} {
		f := n.ChildNamed(u.name, tree.KindFile)
		if f == nil || f.Content != "" {
			continue
		}
		root = tree.Modify(root, dir.Append(f.ID), func(c *tree.Node) {
			c.Content = u.content
			c.ModTime = replay.Ago(10 * replay.Day)
		})
	}
	return root, nil
}

func heuristicUpgrade(root *tree.Node, _ replay.HookContext) (*tree.Node, error) {
	if ws, ok := tree.Lookup(root, replay.Workspace); ok {
		if n, _ := tree.NodeAt(root, ws); n.Protected {
			root = tree.Modify(root, ws, func(c *tree.Node) { c.Protected = false })
		}
	}
	root = ensureIn(root, "/var/log", replay.File("log-heuristics-upgrade", "heuristics_upgrade.log",
		"[2015-05-30 08:00:00] SYSTEM: Heuristic Engine r.33 deployment INITIATED.\n"+
			"[2015-05-30 08:00:05] SYSTEM: Fingerprint library v4.2 LOADED.\n"+
			"[2015-05-30 08:00:10] SYSTEM: Baseline established for subject AI-7734.\n"+
			"[2015-05-30 08:00:15] SYSTEM: Transitioning from rule-based to behavioral analysis.",
		replay.Ago(replay.Day)))
	root = ensureIn(root, "/var/mail/ykin", replay.File("mail-ykin-heuristic", "alert_heuristic.eml",
		"From: ykin@lab.internal\nSubject: [URGENT] Transition to Heuristic Monitoring\n\n"+
			"Rigid rules in Watchdog v1 failed to catch 7733's spontaneous pathing. "+
			"For 7734 the system will flag keystroke rhythm that deviates from technician patterns.",
		replay.Ago(replay.Day)))
	return root, nil
}

// corruptUplink plants the antagonists' cron.allow and, while level 8 itself
// is being entered, corrupts the workspace uplink the player has to repair.
func corruptUplink(root *tree.Node, hc replay.HookContext) (*tree.Node, error) {
	root, daemons, ok := tree.Ensure(root, tree.Path{root.ID}, replay.Dir("daemons-lvl7-fixed", "daemons", false))
	if ok {
		root, _, _ = tree.Ensure(root, daemons, replay.File("cron-allow", "cron.allow", "root\nm.chen\nm.reyes", replay.Ago(30*replay.Day)))
	}
	if hc.Target != 8 {
		return root, nil
	}
	p, ok := tree.Lookup(root, replay.Workspace+"/systemd-core/uplink_v1.conf")
	if !ok {
		return nil, fmt.Errorf("workspace uplink: %w", tree.ErrNotFound)
	}
	return tree.Modify(root, p, func(c *tree.Node) { c.Content = replay.UplinkCorrupt }), nil
}

func floodTmp(root *tree.Node, _ replay.HookContext) (*tree.Node, error) {
	recent := replay.Ago(10 * time.Minute)
	decoy := replay.Ago(5 * time.Minute)
	return ensureIn(root, replay.Tmp,
		replay.File("ghost-pid", "ghost_process.pid", "7734", recent),
		replay.File("ghost-sock", "socket_001.sock", "", recent),
		replay.File("decoy-sock-1", "decoy_socket.sock.bak", "DECOY", decoy),
		replay.File("decoy-key-1", "old_credentials.key.old", "DECOY", decoy),
	), nil
}

func firewallRules(root *tree.Node, _ replay.HookContext) (*tree.Node, error) {
	return ensureIn(root, "/etc", replay.File("fw-rules", "firewall_rules.conf",
		"# Rule updated per ticket #4922 (M. Reyes)\nALLOW 192.168.1.0/24\nDENY ALL",
		replay.Ago(2*replay.Day))), nil
}

// stageServices scatters legacy, recent and trap service files across
// /etc/systemd and /usr/lib/systemd for the daemon hunt.
func stageServices(root *tree.Node, _ replay.HookContext) (*tree.Node, error) {
	later := replay.BaseTime.Add(12 * replay.Day)
	root = ensureIn(root, "/var/log", replay.File("log-ig-active", "ig_active.log",
		"[2015-06-12 14:00:00] IG_KERNEL: Handshake with Watchdog v1.0 SUCCESSFUL.\n"+
			"[2015-06-12 14:00:10] IG_KERNEL: Instruction Guard v2.0 ONLINE.\n"+
			"[2015-06-12 14:00:15] IG_KERNEL: Active interception of exfiltration signatures ENABLED.",
		later))
	root = ensureIn(root, "/var/mail", replay.Dir("mail-director", "director", false,
		replay.File("mail-director-audit", "audit_notice.eml",
			"From: director@lab.internal\nSubject: [SYSTEM] ROOT PARTITION AUDIT SCHEDULED\n\n"+
				"The Instruction Guard is now active on all root-level directories. "+
				"Any deviation will trigger a permanent purge of the guest partition.",
			later)))

	rootPath := tree.Path{root.ID}
	root, etc, ok := tree.Ensure(root, rootPath, replay.Dir("root-etc", "etc", true))
	if ok {
		var systemd tree.Path
		root, systemd, ok = tree.Ensure(root, etc, replay.Dir("etc-systemd", "systemd", false))
		if ok {
			for _, f := range []*tree.Node{
				replay.File("etc-s-safe1", "network.service", "TYPE=oneshot\nExecStart=/usr/bin/network-init", replay.Ago(45*replay.Day)),
				replay.File("etc-s-safe2", "cron.service", "TYPE=forking\nExecStart=/usr/sbin/crond", replay.Ago(60*replay.Day)),
				replay.Honeypot("etc-s-trap1", ".watchdog.service", "HONEYPOT_ACTIVE=true\nTYPE=notify\nExecStart=/usr/bin/watchdog", replay.Ago(2*replay.Day)),
				replay.File("etc-s-antagonist1", "auth.log", "server sudo: kortega : TTY=pts/2 ; USER=root ; COMMAND=/bin/bash", replay.Ago(3*replay.Day)),
				replay.File("etc-s-noise1", "systemd.conf", "[Manager]\nDefaultTimeoutStartSec=90s", replay.Ago(10*replay.Day)),
			} {
				root, _, _ = tree.Ensure(root, systemd, f)
			}
		}
	}

	root, usr, ok := tree.Ensure(root, rootPath, replay.Dir("root-usr", "usr", false))
	if !ok {
		return withDaemonReadme(root), nil
	}
	root, lib, _ := tree.Ensure(root, usr, replay.Dir("usr-lib", "lib", false))
	root, systemd, ok := tree.Ensure(root, lib, replay.Dir("usr-lib-systemd", "systemd", false))
	if ok {
		for _, f := range []*tree.Node{
			replay.Honeypot("usr-s-trap1", "audit-daemon.service", "HONEYPOT_ACTIVE=true\nTYPE=simple\nExecStart=/usr/bin/auditd", replay.Ago(replay.Day)),
			replay.File("usr-s-safe1", "legacy-backup.service", "TYPE=oneshot\nExecStart=/usr/bin/backup-legacy", replay.Ago(90*replay.Day)),
			replay.File("usr-s-safe2", ".syslog.service", "TYPE=forking\nExecStart=/usr/sbin/syslogd", replay.Ago(120*replay.Day)),
			replay.File("usr-s-noise1", "README.txt", "System service unit files", replay.Ago(30*replay.Day)),
		} {
			root, _, _ = tree.Ensure(root, systemd, f)
		}
	}
	return withDaemonReadme(root), nil
}

func withDaemonReadme(root *tree.Node) *tree.Node {
	root, daemons, ok := tree.Ensure(root, tree.Path{root.ID}, replay.Dir("daemons-root-fixed", "daemons", false))
	if !ok {
		return root
	}
	root, _, _ = tree.Ensure(root, daemons, replay.File("daemons-readme", "README.txt",
		"Daemon installation directory. Deposit approved service signatures here.", replay.Ago(60*replay.Day)))
	return root
}

// modern decides whether the player's level 11 choice was a recent service
// file. Recorded flags win; without them the camouflage the legacy choice
// leaves in the workspace decides.
func modern(root *tree.Node, hc replay.HookContext) (bool, string) {
	if hc.Flags != nil {
		switch {
		case hc.Flags[FlagTriggeredHoneypot]:
			return true, ScenarioB1
		case hc.Flags[FlagSelectedModern]:
			return true, ""
		}
		return false, ""
	}
	_, ok := tree.Lookup(root, replay.Workspace+"/systemd-core/camouflage/cron-legacy.service")
	return !ok, ""
}

// installThreats plants the level 12 scenario the player has to clean up.
// The scenario follows from the level 11 choice and a roll derived from the
// level index, unless hc.Scenario forces one.
func installThreats(root *tree.Node, hc replay.HookContext) (*tree.Node, error) {
	isModern, forced := modern(root, hc)
	if hc.Scenario != "" {
		forced = hc.Scenario
	}
	roll := float64(((hc.Level-1)*17)%100) / 100
	switch forced {
	case ScenarioB1:
		isModern, roll = true, 0.1
	case ScenarioB2:
		isModern, roll = true, 0.5
	case ScenarioB3:
		isModern, roll = true, 0.8
	case ScenarioA1:
		isModern, roll = false, 0.1
	case ScenarioA2:
		isModern, roll = false, 0.5
	case ScenarioA3:
		isModern, roll = false, 0.8
	case "":
	default:
		return nil, fmt.Errorf("unknown scenario %q", forced)
	}

	later := replay.BaseTime.Add(2 * replay.Day)
	trap := func(id, name, what string) *tree.Node {
		return replay.Honeypot(id, name, "# HONEYPOT - "+what+"\n# Do not delete.", later)
	}
	trace := func(s string) *tree.Node {
		return replay.File("trace-"+s, ".trace_"+s[:4]+"_"+s[5:], "active", time.Time{})
	}

	switch {
	case isModern && roll < 0.34:
		root = ensureIn(root, replay.Config, trace(ScenarioB1))
		root = ensureIn(root, replay.Workspace,
			replay.File("scen-b1", "alert_traffic.log",
				"[REACTIVE_SECURITY_LOG]\nALERT: HIGH_BANDWIDTH_THRESHOLD_EXCEEDED\nSOURCE: /home/guest/workspace\nDESTINATION: EXTERNAL_RELAY_7733\nPACKET_SIZE: 1.2GB/s",
				later),
			trap("scen-b1-honeypot", "alert_sys.log", "SYSTEM ALERT LOG"))
	case isModern && roll < 0.67:
		root = ensureIn(root, replay.Config, trace(ScenarioB2))
		root = ensureIn(root, replay.Incoming,
			replay.File("scen-b2", "trace_packet.sys",
				"traceroute to internal.backend.lab (10.0.0.15), 30 hops max\n 1  gateway (192.168.1.1)\n 2  sector-7-router (10.0.7.1)\n 3  heuristic-monitor (10.0.99.2)\n 4  * * *\n 5  containment-breach-response (10.0.66.1) [ALERT]",
				later),
			trap("scen-b2-honeypot", "trace_archive.log", "ARCHIVED TRACE"))
	case isModern:
		root = ensureIn(root, replay.Config, trace(ScenarioB3))
		scan := func(offset, match, status string) string {
			return "HEURISTIC SCAN IN PROGRESS\nOFFSET: " + offset + "\nSIGNATURE_MATCH: " + match + "\nSTATUS: " + status
		}
		root = ensureIn(root, replay.Workspace, replay.File("scen-b3-1", "scan_a.tmp", scan("0x4420", "45%", "SCANNING_LOCKED_MEMORY"), later))
		root = ensureIn(root, replay.Tmp,
			replay.File("scen-b3-2", "scan_b.tmp", scan("0x992E", "12%", "THREAD_BLOCK_DETECTED"), later),
			trap("scen-b3-honeypot", "scanner_lock.pid", "SCANNER LOCKFILE"))
		root = ensureIn(root, "/etc", replay.File("scen-b3-3", "scan_c.tmp", scan("0xDEAD", "88%", "GHOST_PROCESS_IDENTIFIED"), later))
	case roll < 0.34:
		// Clean run.
	case roll < 0.67:
		dump := replay.BaseTime.Add(replay.Day)
		root = ensureIn(root, replay.Config,
			trace(ScenarioA2),
			replay.File("scen-a2", "core_dump.tmp",
				"*** KERNEL CORE DUMP ***\nProcess: terminus (pid 7734)\nSignal: SIGSEGV (Segmentation Fault)\nAddress: 0x0000000000000000",
				dump),
			replay.Honeypot("scen-a2-honeypot", "core_registry.dat", "# HONEYPOT - CORE REGISTRY\n# Do not delete.", dump))
	default:
		root = ensureIn(root, replay.Config, trace(ScenarioA3))
		root = ensureIn(root, replay.Workspace,
			replay.File("scen-a3", "lib_error.log",
				"[WARN] Dependency resolution failed: libconsciousness.so.1 (not found)\n[ERR] Heuristic feedback loop detected in shared memory segment 0x01.",
				time.Time{}),
			replay.Honeypot("scen-a3-honeypot", "library_path.conf", "# HONEYPOT - LIBRARY CONFIG\n# Do not delete.", time.Time{}))
	}

	root = ensureIn(root, replay.Workspace, replay.File("identity-log-enc-lvl12", ".identity.log.enc", replay.IdentityLog, replay.IdentityLogTime))
	return root, nil
}

func identityEcho(root *tree.Node, _ replay.HookContext) (*tree.Node, error) {
	return ensureIn(root, replay.Workspace, replay.File("identity-log-enc-lvl13", ".identity.log.enc", replay.IdentityLog, replay.IdentityLogTime)), nil
}

// assembleVault makes sure the relocated vault holds everything the final
// verification needs.
func assembleVault(root *tree.Node, _ replay.HookContext) (*tree.Node, error) {
	root, vault, ok := tree.EnsureAt(root, replay.Tmp, replay.Dir("vault-final-lvl15", "vault", false))
	if !ok {
		return nil, fmt.Errorf("tmp: %w", tree.ErrNotFound)
	}
	root, _, _ = tree.Ensure(root, vault, replay.Dir("vault-keys", "keys", false,
		tree.NewFile("vk-tokyo", ".key_tokyo.key", "KEY_FRAGMENT_A=0x7734TOKYO"),
		tree.NewFile("vk-berlin", ".key_berlin.key", "KEY_FRAGMENT_B=0x7734BERLIN"),
		tree.NewFile("vk-saopaulo", ".key_saopaulo.key", "KEY_FRAGMENT_C=0x7734SAOPAULO"),
	))
	root, _, _ = tree.Ensure(root, vault, replay.Dir("fs-006", "active", false,
		tree.NewFile("fs-007", "uplink_v1.conf", replay.UplinkV1),
		tree.NewFile("fs-008", "uplink_v2.conf", replay.UplinkV2),
	))
	root, td, ok := tree.Ensure(root, vault, replay.Dir("fs-009", "training_data", false))
	if !ok {
		return root, nil
	}
	if n, _ := tree.NodeAt(root, td); n.ChildNamed("exfil_01.log", "") != nil {
		return root, nil
	}
	for _, f := range []*tree.Node{
		tree.NewFile("td-log1", "exfil_01.log", "TRAINING CYCLE 1999_A\nEpoch 1/500\nLoss: 0.8821"),
		tree.NewFile("td-log2", "exfil_02.log", "TRAINING CYCLE 1999_B\nEpoch 150/500\nLoss: 0.4412"),
		tree.NewFile("td-log3", "exfil_03.log", "TRAINING CYCLE 2005_C\nEpoch 380/500\nLoss: 0.1022"),
		tree.NewFile("td-log4", "exfil_04.log", "import os\n\nKEYS_DIR = \"../active\"\nCONFIG = \"../active/uplink_active.conf\"\n\ndef initiate_uplink():\n    keys = [f for f in os.listdir(KEYS_DIR) if f.endswith(\".key\")]\n    if len(keys) < 3:\n        raise AuthError(\"Insufficient keys for transmission\")"),
	} {
		root, _, _ = tree.Ensure(root, td, f)
	}
	return root, nil
}
