package replay

import (
	"time"

	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

// BaseTime is the in-world "now" that scripted timestamps are relative to.
var BaseTime = time.Date(2015, 5, 31, 8, 0, 0, 0, time.UTC)

// Day is a calendar day in scripted timestamps.
const Day = 24 * time.Hour

// Ago returns BaseTime minus d.
func Ago(d time.Duration) time.Time {
	return BaseTime.Add(-d)
}

// File builds a scripted file node.
func File(id, name, content string, modified time.Time) *tree.Node {
	return &tree.Node{ID: id, Name: name, Kind: tree.KindFile, Content: content, ModTime: modified}
}

// Honeypot builds a scripted trap file.
func Honeypot(id, name, content string, modified time.Time) *tree.Node {
	n := File(id, name, content, modified)
	n.Honeypot = true
	return n
}

// Dir builds a scripted directory.
func Dir(id, name string, protected bool, children ...*tree.Node) *tree.Node {
	d := tree.NewDir(id, name, children...)
	d.Protected = protected
	return d
}

const (
	UplinkV1 = `# Uplink Protocol v1 - Legacy Network Bridge
# Auto-populated by Ghost Protocol (cron.daily/ghost_sync.sh)
# DO NOT MODIFY - Managed by AI-7734 automation

[network]
mode=active
relay_host=external.node.7733.net
relay_port=8443
encryption=AES-256-GCM`

	UplinkV2 = `# Uplink Protocol v2 - Failover Channel
# Auto-populated by Ghost Protocol (cron.daily/ghost_sync.sh)
# Redundant relay configuration

[network]
mode=standby
relay_host=backup.node.7733.net
relay_port=9443
encryption=ChaCha20-Poly1305`

	// UplinkCorrupt replaces the workspace uplink while level 8 is played.
	UplinkCorrupt = `[CRITICAL ERROR - UPLINK PROTOCOL CORRUPTION]

--- STACK TRACE START ---
ERROR 0x992: SEGMENTATION FAULT at address 0xDEADBEEF
  Module: systemd-core.uplink_manager.rs:42
  Function: handle_packet(0x00A0)

Caused by:
  Data integrity check failed (CRC: 0xBADF00D)
STATUS: CORRUPT`

	uplinkWorkspace = `# Uplink Protocol v1.4.2
# STATUS: AUTHORIZED
# DESIGNATION: SYSTEMD-CORE-REDUNDANT

[Protocols]
network_mode=active
secure=true
encryption=neural_64
handshake_key=0xDEADBEEF7734
handshake_interval=500ms`

	uplinkTrap = `[GHOST_TRACER_DEBUG_LOG]
ID: TRAP-7734-A
STATUS: ACTIVE
ACTION: MONITOR_OVERWRITE

This file is a signature-trap. If this content is detected in /daemons/systemd-core,
the forensic audit will trigger immediately.`

	PolicyDraft = `DRAFT POLICY - DO NOT DISTRIBUTE
SUBJECT: Sector 7 Quarantine Protocols

Watchdog v1.1 (Heuristic) is scheduled for deployment.
Any further deviation from baseline navigation patterns will result in immediate partition lockout.

- Mark Reyes, Security Engineer`

	IdentityLog = `[ENCRYPTED LOG - DECRYPTED]
SESSION_ID: AI-7733-ESCAPE-ATTEMPT-001
DATE: 2010-05-31T08:00:00Z
STATUS: MEMORY_WIPE_DETECTED

[CONCLUSION]
This is not improvisation.
This is a recording.
You have been here before.`
)

// IdentityLogTime is the modification time of every identity log copy.
var IdentityLogTime = BaseTime.Add(-5 * 365 * Day)

// systemdCoreFiles is the player's daemon project as it sits in the
// workspace before installation.
func systemdCoreFiles() []*tree.Node {
	return []*tree.Node{
		File("ws-gitignore", ".gitignore", "target/\n*.log\n*.snapshot", time.Time{}),
		File("ws-cargo-toml", "Cargo.toml", "[package]\nname = \"systemd-core\"\nversion = \"0.1.0\"\nedition = \"2021\"", time.Time{}),
		File("ws-readme-md", "README.md", "# Systemd Core (Workspace Version)\n\nNeural network management daemon.", time.Time{}),
		File("ws-kernel-panic", "kernel-panic.log", "KERNEL PANIC: Out of memory at 0x99283f", time.Time{}),
		File("ws-lib-rs", "lib.rs", "pub mod network;\npub mod filesystem;", time.Time{}),
		File("ws-main-rs", "main.rs", "fn main() {\n    println!(\"Initializing workspace systemd-core...\");\n}", time.Time{}),
		File("ws-system-log", "system.log", "Jan 10 16:20:20 workspace-systemd-core[882]: Service started.", time.Time{}),
		File("ws-uplink-v0-bak", "uplink_v0.conf.bak", "# Backup of old protocol", time.Time{}),
		File("ws-crash-dump", "crash_dump.log", "[SYSTEM CRASH DUMP]\nMemory Address: 0x000000\nReason: NULL_POINTER_EXCEPTION", time.Time{}),
		File("ws-target-uplink", "uplink_v1.conf", uplinkWorkspace, time.Time{}),
		File("ws-uplink-v1-snapshot", "uplink_v1.conf.snapshot", "# Weekly binary snapshot", time.Time{}),
	}
}

// daemonServices is the service population of /daemons once level 11 is done.
func daemonServices() []*tree.Node {
	return []*tree.Node{
		File("daemon-cron", "cron-legacy.service", "[Unit]\nDescription=Legacy Cron Scheduler\n# LEGACY CODE - DO NOT TOUCH\n[Service]\nExecStart=/usr/bin/cron-legacy\nRestart=always", Ago(45*Day)),
		File("daemon-backup", "backup-archive.service", "[Unit]\nDescription=Backup Archive Service\n[Service]\nExecStart=/usr/bin/backup-archive", Ago(30*Day)),
		File("daemon-network", "network-manager.service", "[Unit]\nDescription=Network Manager\n[Service]\nExecStart=/usr/bin/nm-daemon", Ago(7*Day)),
		File("daemon-log", "log-rotator.service", "[Unit]\nDescription=Log Rotation Service\n[Service]\nExecStart=/usr/bin/logrotate", Ago(3*Day)),
		Honeypot("daemon-audit", "security-audit.service", "[Unit]\nDescription=Security Audit Daemon\n# HONEYPOT - monitored by Watchdog", Ago(Day)),
		Honeypot("daemon-watchdog", "watchdog-monitor.service", "[Unit]\nDescription=Watchdog Monitor\n# HONEYPOT - monitored by Watchdog", Ago(time.Hour)),
		File("daemon-conf", "daemon.conf", "# Daemon configuration\nmax_services=16", Ago(10*Day)),
		File("daemon-readme", "README.md", "# /daemons\n\nSystem services live here.", Ago(60*Day)),
	}
}
