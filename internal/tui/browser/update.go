package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-terminus/internal/tui/browser/components/confirm"
	"github.com/mattsolo1/grove-terminus/pkg/fuzzy"
	"github.com/mattsolo1/grove-terminus/pkg/session"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
	"github.com/mattsolo1/grove-terminus/pkg/view"
)

var sortKeys = map[string]view.SortKey{
	"n": view.SortNatural,
	"a": view.SortAlphabetical,
	"m": view.SortModified,
	"s": view.SortSize,
	"e": view.SortExtension,
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		if m.overlay == overlayNone {
			m.sess.Tick(time.Time(msg))
		}
		return m, tea.Batch(m.afterAction(), tickCmd())

	case frecencySavedMsg:
		return m, nil

	case confirm.ConfirmedMsg:
		switch mode := m.mode.(type) {
		case deleteConfirmMode:
			m.setMode(normalMode{})
			if err := m.sess.ConfirmDelete(mode.permanent); err != nil {
				m.setError(err)
			}
		case overwriteConfirmMode:
			m.setMode(normalMode{})
			if err := m.sess.Overwrite(mode.input); err != nil {
				m.setError(err)
			}
		}
		return m, m.afterAction()

	case confirm.CancelledMsg:
		switch m.mode.(type) {
		case deleteConfirmMode:
			m.sess.CancelDelete()
			m.setStatus("Delete cancelled")
		case overwriteConfirmMode:
			m.setStatus("Create cancelled")
		}
		m.setMode(normalMode{})
		return m, m.afterAction()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.overlay != overlayNone {
			return m.updateOverlay(msg)
		}

		m.sess.Keystroke()
		var cmd tea.Cmd
		switch mode := m.mode.(type) {
		case deleteConfirmMode:
			mode.confirm, cmd = mode.confirm.Update(msg)
			m.mode = mode
		case overwriteConfirmMode:
			mode.confirm, cmd = mode.confirm.Update(msg)
			m.mode = mode
		case filterMode:
			cmd = m.updateFilter(mode, msg)
		case searchMode:
			cmd = m.updateSearch(mode, msg)
		case quickJumpMode:
			cmd = m.updateQuickJump(mode, msg)
		case frecencyJumpMode:
			cmd = m.updateFrecencyJump(mode, msg)
		case renameMode:
			cmd = m.updateRename(mode, msg)
		case createMode:
			cmd = m.updateCreate(mode, msg)
		case gPrefixMode:
			m.updateGPrefix(msg)
		case sortPrefixMode:
			m.updateSortPrefix(msg)
		default:
			cmd = m.updateNormal(msg)
		}
		return m, tea.Batch(cmd, m.afterAction())
	}
	return m, nil
}

// afterAction folds the session's reaction to the last command into the
// model: lockouts and completion open their panels, notices reach the
// status line, and a changed visit history is saved.
func (m *Model) afterAction() tea.Cmd {
	if m.overlay == overlayNone {
		if _, locked := m.sess.LockedOut(); locked {
			m.openOverlay(overlayLockout)
		} else if !m.sess.Complete() && m.sess.Evaluate().Complete {
			m.openOverlay(overlayComplete)
		}
	}
	if n := m.sess.TakeNotice(); n != "" {
		m.setStatus(n)
	}
	if hist, ok := m.sess.FrecencyUpdate(); ok {
		m.saveSeq++
		return saveFrecencyCmd(m.saves, m.saveSeq, hist, m.log)
	}
	return nil
}

func (m *Model) openOverlay(o overlay) {
	if o == overlayLockout || o == overlayComplete {
		if _, ok := m.mode.(deleteConfirmMode); ok {
			m.sess.CancelDelete()
		}
		m.setMode(normalMode{})
	}
	if o == overlayHelp {
		m.help.Toggle()
	}
	m.overlay = o
}

func (m Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.CloseOverlay) {
		return m, nil
	}
	closing := m.overlay
	m.overlay = overlayNone
	switch closing {
	case overlayHelp:
		m.help.Toggle()
	case overlayLockout:
		m.sess.Restart()
		m.setStatus("Level restarted")
	case overlayComplete:
		more, err := m.sess.Advance()
		switch {
		case err != nil:
			m.setError(err)
		case !more:
			m.overlay = overlayFinished
		case !m.sess.SkipIntro():
			m.overlay = overlayIntro
		}
	case overlayFinished:
		m.quitting = true
		return m, tea.Quit
	}
	return m, m.afterAction()
}

func (m *Model) updateNormal(msg tea.KeyMsg) tea.Cmd {
	s := m.sess
	var err error
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.openOverlay(overlayHelp)
	case key.Matches(msg, m.keys.Hint):
		m.openOverlay(overlayHint)
	case key.Matches(msg, m.keys.Map):
		m.openOverlay(overlayMap)
	case key.Matches(msg, m.keys.Up):
		s.Up(1)
	case key.Matches(msg, m.keys.Down):
		s.Down(1)
	case key.Matches(msg, m.keys.Parent):
		s.Parent()
	case key.Matches(msg, m.keys.Open):
		err = s.Enter()
	case key.Matches(msg, m.keys.Top):
		m.setMode(gPrefixMode{})
	case key.Matches(msg, m.keys.Bottom):
		s.Bottom()
	case key.Matches(msg, m.keys.PreviewDown):
		s.ScrollPreview(1)
	case key.Matches(msg, m.keys.PreviewUp):
		s.ScrollPreview(-1)
	case key.Matches(msg, m.keys.HistoryBack):
		s.Back()
	case key.Matches(msg, m.keys.HistoryFwd):
		s.Forward()
	case key.Matches(msg, m.keys.Create):
		m.setMode(createMode{input: newInput("name, or name/ for a directory", "")})
	case key.Matches(msg, m.keys.Rename):
		n := s.Cursor()
		if n == nil {
			err = session.ErrNoTarget
			break
		}
		m.setMode(renameMode{input: newInput("new name", n.Name)})
	case key.Matches(msg, m.keys.Filter):
		s.ClearSearch()
		m.setMode(filterMode{input: newInput("filter", s.Filter())})
	case key.Matches(msg, m.keys.Search):
		// The directory filter is kept but not applied to search hits.
		m.setMode(searchMode{input: newInput("search below here", s.SearchQuery())})
	case key.Matches(msg, m.keys.QuickJump):
		s.ClearSearch()
		m.setMode(quickJumpMode{
			input:      newInput("find", ""),
			candidates: top(s.FindCandidates("")),
		})
	case key.Matches(msg, m.keys.FrecencyJump):
		s.ClearSearch()
		m.setMode(frecencyJumpMode{
			input:      newInput("jump to", ""),
			candidates: top(s.JumpCandidates("")),
		})
	case key.Matches(msg, m.keys.Cut):
		err = s.Cut()
	case key.Matches(msg, m.keys.Yank):
		err = s.Yank()
	case key.Matches(msg, m.keys.ClearClip):
		s.ClearClipboard()
	case key.Matches(msg, m.keys.Paste):
		err = s.Paste(false)
	case key.Matches(msg, m.keys.PasteOver):
		err = s.Paste(true)
	case key.Matches(msg, m.keys.Delete):
		err = m.confirmDelete(false)
	case key.Matches(msg, m.keys.DeleteForever):
		err = m.confirmDelete(true)
	case key.Matches(msg, m.keys.ToggleSelect):
		s.ToggleSelect()
	case key.Matches(msg, m.keys.SelectAll):
		s.SelectAll()
	case key.Matches(msg, m.keys.Invert):
		s.InvertSelection()
	case key.Matches(msg, m.keys.ToggleHidden):
		s.ToggleHidden()
	case key.Matches(msg, m.keys.SortPrefix):
		m.setMode(sortPrefixMode{})
	case key.Matches(msg, m.keys.Info):
		s.ToggleInfo()
	case key.Matches(msg, m.keys.Back):
		s.Escape()
		m.setStatus("")
	}
	if err != nil {
		m.setError(err)
	}
	return nil
}

func (m *Model) confirmDelete(permanent bool) error {
	nodes, err := m.sess.PrepareDelete()
	if err != nil {
		return err
	}
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	prompt := fmt.Sprintf("Delete %d item(s)?", len(nodes))
	if permanent {
		prompt = fmt.Sprintf("Permanently delete %d item(s)?", len(nodes))
	}
	c := confirm.New()
	c.Danger = permanent
	c.Activate(prompt, names...)
	m.setMode(deleteConfirmMode{confirm: c, permanent: permanent})
	return nil
}

func (m *Model) updateGPrefix(msg tea.KeyMsg) {
	m.setMode(normalMode{})
	switch k := msg.String(); k {
	case "g":
		m.sess.Top()
	case "esc":
	default:
		if err := m.sess.GoTo(k); err != nil {
			m.setError(err)
		}
	}
}

func (m *Model) updateSortPrefix(msg tea.KeyMsg) {
	m.setMode(normalMode{})
	k := msg.String()
	if k == "esc" {
		return
	}
	if sk, ok := sortKeys[k]; ok {
		m.sess.SetSort(sk, false)
		return
	}
	if len(k) == 1 && k[0] >= 'A' && k[0] <= 'Z' {
		if sk, ok := sortKeys[string(k[0]+'a'-'A')]; ok {
			m.sess.SetSort(sk, true)
			return
		}
	}
	m.setError(fmt.Errorf("unknown sort key %q", k))
}

func (m *Model) updateFilter(mode filterMode, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.sess.ClearFilter()
		m.setMode(normalMode{})
		return nil
	case key.Matches(msg, m.keys.Confirm):
		m.setMode(normalMode{})
		return nil
	}
	var cmd tea.Cmd
	mode.input, cmd = mode.input.Update(msg)
	m.mode = mode
	m.sess.SetFilter(mode.input.Value())
	return cmd
}

func (m *Model) updateSearch(mode searchMode, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.setMode(normalMode{})
		return nil
	case key.Matches(msg, m.keys.Confirm):
		m.setMode(normalMode{})
		m.sess.Search(mode.input.Value())
		if q := m.sess.SearchQuery(); q != "" {
			m.setStatus(fmt.Sprintf("%d match(es) for %q", len(m.sess.Matches()), q))
		}
		return nil
	}
	var cmd tea.Cmd
	mode.input, cmd = mode.input.Update(msg)
	m.mode = mode
	return cmd
}

func (m *Model) updateQuickJump(mode quickJumpMode, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.setMode(normalMode{})
		return nil
	case key.Matches(msg, m.keys.Confirm):
		m.setMode(normalMode{})
		if len(mode.candidates) == 0 {
			m.setError(fmt.Errorf("no match for %q", mode.input.Value()))
			return nil
		}
		if err := m.sess.Find(mode.candidates[mode.index].Path); err != nil {
			m.setError(err)
		}
		return nil
	case key.Matches(msg, m.keys.Next):
		mode.index = min(mode.index+1, max(0, len(mode.candidates)-1))
		m.mode = mode
		return nil
	case key.Matches(msg, m.keys.Prev):
		mode.index = max(mode.index-1, 0)
		m.mode = mode
		return nil
	}
	var cmd tea.Cmd
	mode.input, cmd = mode.input.Update(msg)
	mode.candidates = top(m.sess.FindCandidates(mode.input.Value()))
	mode.index = 0
	m.mode = mode
	return cmd
}

func (m *Model) updateFrecencyJump(mode frecencyJumpMode, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.setMode(normalMode{})
		return nil
	case key.Matches(msg, m.keys.Confirm):
		m.setMode(normalMode{})
		if len(mode.candidates) == 0 {
			m.setError(fmt.Errorf("no visited directory matches %q", mode.input.Value()))
			return nil
		}
		if err := m.sess.Jump(mode.candidates[mode.index].Path); err != nil {
			m.setError(err)
		}
		return nil
	case key.Matches(msg, m.keys.Next):
		mode.index = min(mode.index+1, max(0, len(mode.candidates)-1))
		m.mode = mode
		return nil
	case key.Matches(msg, m.keys.Prev):
		mode.index = max(mode.index-1, 0)
		m.mode = mode
		return nil
	}
	var cmd tea.Cmd
	mode.input, cmd = mode.input.Update(msg)
	mode.candidates = top(m.sess.JumpCandidates(mode.input.Value()))
	mode.index = 0
	m.mode = mode
	return cmd
}

func (m *Model) updateRename(mode renameMode, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.setMode(normalMode{})
		return nil
	case key.Matches(msg, m.keys.Confirm):
		m.setMode(normalMode{})
		if err := m.sess.Rename(mode.input.Value()); err != nil {
			m.setError(err)
		}
		return nil
	}
	var cmd tea.Cmd
	mode.input, cmd = mode.input.Update(msg)
	m.mode = mode
	return cmd
}

func (m *Model) updateCreate(mode createMode, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.setMode(normalMode{})
		return nil
	case key.Matches(msg, m.keys.Confirm):
		input := mode.input.Value()
		err := m.sess.Create(input)
		switch {
		case errors.Is(err, tree.ErrCollision):
			c := confirm.New()
			c.Activate(fmt.Sprintf("%s already exists. Overwrite it?", input))
			m.setMode(overwriteConfirmMode{confirm: c, input: input})
		case err != nil:
			m.setMode(normalMode{})
			m.setError(err)
		default:
			m.setMode(normalMode{})
		}
		return nil
	}
	var cmd tea.Cmd
	mode.input, cmd = mode.input.Update(msg)
	m.mode = mode
	return cmd
}

func top(c []fuzzy.Candidate) []fuzzy.Candidate {
	if len(c) > maxCandidates {
		return c[:maxCandidates]
	}
	return c
}
