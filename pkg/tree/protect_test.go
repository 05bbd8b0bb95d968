package tree

import "testing"

func TestIsProtected(t *testing.T) {
	root := NewDir("root", "root",
		NewDir("home", "home",
			NewDir("guest", "guest",
				&Node{ID: "ds", Name: "datastore", Kind: KindDir, Protected: true, Children: []*Node{}},
				&Node{ID: "cfg", Name: ".config", Kind: KindDir, Protected: true, Children: []*Node{}},
				NewFile("key", "access_key.pem", ""),
				NewFile("readme", "readme.txt", ""),
			),
		),
		NewDir("etc", "etc", &Node{ID: "hosts", Name: "hosts", Kind: KindFile, Protected: true}),
	)
	find := func(id string) *Node {
		n, _ := FindByID(root, id)
		return n
	}
	guest := Path{"root", "home", "guest"}
	allow := []Allowance{
		{Path: []string{"home", "guest", "datastore"}},
		{Path: []string{"home", "guest", ".config"}, RequiresTask: "delete-visible"},
	}
	done := map[string]bool{}

	tests := []struct {
		name      string
		current   Path
		node      string
		rules     Rules
		action    Action
		protected bool
	}{
		{"protected flag without allowance", Path{"root", "etc"}, "hosts", Rules{Level: 1}, ActionDelete, true},
		{"protected flag blocks rename", Path{"root", "etc"}, "hosts", Rules{Level: 1}, ActionRename, true},
		{"plain file", guest, "readme", Rules{Level: 1}, ActionDelete, false},
		{"allowance permits delete", guest, "ds", Rules{Level: 14, Allow: allow}, ActionDelete, false},
		{"allowance never permits cut", guest, "ds", Rules{Level: 14, Allow: allow}, ActionCut, true},
		{"allowance gated on task", guest, "cfg", Rules{Level: 14, Allow: allow, Done: func(id string) bool { return done[id] }}, ActionDelete, true},
		{"access key never deleted", guest, "key", Rules{Level: 10}, ActionDelete, true},
		{"access key cut on level 8", guest, "key", Rules{Level: 8}, ActionCut, false},
		{"access key cut elsewhere", guest, "key", Rules{Level: 5}, ActionCut, true},
		{"system dir near root", Path{"root", "home"}, "guest", Rules{Level: 3}, ActionDelete, true},
		{"system dir deep down", Path{"root", "home", "guest", "ds"}, "guest", Rules{Level: 3}, ActionDelete, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := IsProtected(root, tt.current, find(tt.node), tt.rules, tt.action)
			if (reason != "") != tt.protected {
				t.Errorf("Expected protected=%v, got reason %q", tt.protected, reason)
			}
		})
	}

	done["delete-visible"] = true
	rules := Rules{Level: 14, Allow: allow, Done: func(id string) bool { return done[id] }}
	if reason := IsProtected(root, guest, find("cfg"), rules, ActionDelete); reason != "" {
		t.Errorf("Expected allowance once task is done, got %q", reason)
	}
}
