package browser

import (
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/mattsolo1/grove-terminus/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-terminus/pkg/fuzzy"
	"github.com/mattsolo1/grove-terminus/pkg/task"
)

// Mode is the interaction state that owns the keyboard. Exactly one is
// active at a time; each text-entry mode carries its own input, so leaving
// the mode drops whatever was typed.
type Mode interface {
	name() string
}

type normalMode struct{}

// gPrefixMode waits for the key after g.
type gPrefixMode struct{}

// sortPrefixMode waits for the key after the sort prefix.
type sortPrefixMode struct{}

type filterMode struct {
	input textinput.Model
}

type searchMode struct {
	input textinput.Model
}

// quickJumpMode is the fuzzy finder over the current directory's subtree.
type quickJumpMode struct {
	input      textinput.Model
	candidates []fuzzy.Candidate
	index      int
}

// frecencyJumpMode ranks the visit history.
type frecencyJumpMode struct {
	input      textinput.Model
	candidates []fuzzy.Candidate
	index      int
}

type renameMode struct {
	input textinput.Model
}

type createMode struct {
	input textinput.Model
}

type deleteConfirmMode struct {
	confirm   confirm.Model
	permanent bool
}

// overwriteConfirmMode asks before a create replaces an existing node.
type overwriteConfirmMode struct {
	confirm confirm.Model
	input   string
}

func (normalMode) name() string           { return task.ModeNormal }
func (gPrefixMode) name() string          { return "g-prefix" }
func (sortPrefixMode) name() string       { return "sort-prefix" }
func (filterMode) name() string           { return "filter" }
func (searchMode) name() string           { return "search" }
func (quickJumpMode) name() string        { return "quick-jump" }
func (frecencyJumpMode) name() string     { return "frecency-jump" }
func (renameMode) name() string           { return "rename" }
func (createMode) name() string           { return "create" }
func (deleteConfirmMode) name() string    { return "delete-confirm" }
func (overwriteConfirmMode) name() string { return "overwrite-confirm" }

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.Width = 60
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return ti
}

// overlay is a full-screen panel drawn over the game. Only alt+enter closes
// one.
type overlay int

const (
	overlayNone overlay = iota
	overlayIntro
	overlayHelp
	overlayHint
	overlayMap
	overlayLockout
	overlayComplete
	overlayFinished
)
