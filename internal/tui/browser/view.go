package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"

	"github.com/mattsolo1/grove-terminus/pkg/fuzzy"
	"github.com/mattsolo1/grove-terminus/pkg/task"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
	"github.com/mattsolo1/grove-terminus/pkg/view"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	// chrome is the rows taken by everything but the panes.
	chrome = 12
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.overlay != overlayNone {
		return "\n" + m.renderOverlay()
	}

	header := m.renderHeader()
	panes := m.renderPanes()

	sections := []string{header, m.renderPathLine(), "", panes, ""}
	if prompt := m.renderPrompt(); prompt != "" {
		sections = append(sections, prompt, "")
	}
	sections = append(sections, m.renderTasks(), m.renderStatus(), m.help.View())

	return "\n" + lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func (m Model) renderHeader() string {
	l := m.sess.Level()
	title := theme.DefaultTheme.Header.Render(fmt.Sprintf("TERMINUS  Episode %d · Level %d: %s", l.Episode, l.ID, l.Title))

	var meters []string
	if left := m.sess.Remaining(m.now()); left >= 0 {
		style := theme.DefaultTheme.Info
		if left.Seconds() < 30 {
			style = lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Red).Bold(true)
		}
		meters = append(meters, style.Render("time "+formatClock(left)))
	}
	if left := m.sess.KeystrokesLeft(); left >= 0 {
		style := theme.DefaultTheme.Info
		if left < 10 {
			style = lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Red).Bold(true)
		}
		meters = append(meters, style.Render(fmt.Sprintf("keys %d/%d", m.sess.Stats().Keystrokes, l.MaxKeystrokes)))
	}
	if len(meters) == 0 {
		return title
	}
	return title + "  " + strings.Join(meters, "  ")
}

func (m Model) renderPathLine() string {
	s := m.sess
	parts := []string{theme.DefaultTheme.Highlight.Render(s.Display())}
	if f := s.Filter(); f != "" {
		parts = append(parts, theme.DefaultTheme.Info.Render("[filter: "+f+"]"))
	}
	if q := s.SearchQuery(); q != "" {
		parts = append(parts, theme.DefaultTheme.Info.Render(fmt.Sprintf("[search: %s, %d hits]", q, len(s.Matches()))))
	}
	if key, dir := s.Sort(); key != view.SortNatural || dir != view.DefaultDirection(key) {
		parts = append(parts, theme.DefaultTheme.Muted.Render(fmt.Sprintf("[sort: %s %s]", key, dir)))
	}
	if cb := s.Clipboard(); !cb.Empty() {
		parts = append(parts, theme.DefaultTheme.Muted.Render(fmt.Sprintf("[%s: %d]", cb.Action, len(cb.Nodes))))
	}
	if n := s.SelectionCount(); n > 0 {
		parts = append(parts, theme.DefaultTheme.Muted.Render(fmt.Sprintf("[%d selected]", n)))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderPanes() string {
	w, h := m.size()
	height := max(3, h-chrome)
	parentW := w / 5
	currentW := w * 2 / 5
	previewW := w - parentW - currentW - 4

	parent := lipgloss.NewStyle().Width(parentW).Render(m.renderParent(height, parentW))
	current := lipgloss.NewStyle().Width(currentW).Render(m.renderCurrent(height, currentW))
	right := m.renderPreview(height, previewW)
	if m.sess.ShowInfo() {
		right = m.renderInfo(previewW)
	}
	preview := lipgloss.NewStyle().Width(previewW).Render(right)
	return lipgloss.JoinHorizontal(lipgloss.Top, parent, "  ", current, "  ", preview)
}

func (m Model) renderParent(height, width int) string {
	s := m.sess
	p := s.Path()
	if len(p) <= 1 {
		return ""
	}
	key, dir := s.Sort()
	entries := view.Visible(s.Root(), p.Parent(), view.Options{ShowHidden: s.ShowHidden(), Sort: key, Direction: dir})
	var b strings.Builder
	for i, n := range entries {
		if i == height {
			break
		}
		line := truncate(glyph(n)+n.Name, width)
		if n.ID == p.Last() {
			line = theme.DefaultTheme.Highlight.Render(line)
		} else {
			line = theme.DefaultTheme.Muted.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderCurrent(height, width int) string {
	s := m.sess
	entries := s.Entries()
	if len(entries) == 0 {
		if s.SearchQuery() != "" {
			return theme.DefaultTheme.Muted.Render("No matches.")
		}
		return theme.DefaultTheme.Muted.Render("(empty)")
	}

	var matches []string
	for _, hit := range s.Matches() {
		matches = append(matches, hit.Display)
	}
	cb := s.Clipboard()
	start, end := window(len(entries), s.CursorIndex(), height)

	var b strings.Builder
	for i := start; i < end; i++ {
		n := entries[i]
		name := n.Name
		if i < len(matches) {
			name = matches[i]
		}
		mark := "  "
		if s.Selected(n.ID) {
			mark = "* "
		}
		line := truncate(mark+glyph(n)+name, width-2)

		style := lipgloss.NewStyle()
		switch {
		case cb != nil && cb.IsCut() && holdsID(cb, n.ID):
			style = theme.DefaultTheme.Muted
		case n.Kind.IsContainer():
			style = lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Blue)
		}
		if i == s.CursorIndex() {
			line = theme.DefaultTheme.Selected.Render("▶ " + line)
		} else {
			line = "  " + style.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if len(entries) > height {
		b.WriteString(theme.DefaultTheme.Muted.Render(fmt.Sprintf(" (%d-%d of %d)", start+1, end, len(entries))))
	}
	return b.String()
}

func holdsID(cb *tree.Clipboard, id string) bool {
	for _, n := range cb.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func (m Model) renderPreview(height, width int) string {
	s := m.sess
	n := s.Cursor()
	if n == nil {
		return ""
	}
	if n.Kind.IsContainer() {
		var b strings.Builder
		children := view.Visible(n, tree.Path{n.ID}, view.Options{ShowHidden: s.ShowHidden()})
		if len(children) == 0 {
			return theme.DefaultTheme.Muted.Render("(empty)")
		}
		for i, c := range children {
			if i == height {
				break
			}
			b.WriteString(theme.DefaultTheme.Muted.Render(truncate(glyph(c)+c.Name, width)) + "\n")
		}
		return b.String()
	}
	var b strings.Builder
	for _, line := range lines(n.Content, s.PreviewOffset(), height) {
		b.WriteString(truncate(line, width) + "\n")
	}
	return b.String()
}

func (m Model) renderInfo(width int) string {
	n := m.sess.Cursor()
	if n == nil {
		return ""
	}
	rows := [][2]string{
		{"Name", n.Name},
		{"Kind", string(n.Kind)},
		{"Size", formatSize(n)},
		{"Modified", formatModTime(n.ModTime)},
	}
	if n.Protected {
		rows = append(rows, [2]string{"Status", "sealed"})
	}
	var b strings.Builder
	b.WriteString(theme.DefaultTheme.Header.Render("Info") + "\n")
	for _, r := range rows {
		b.WriteString(truncate(fmt.Sprintf("%-9s %s", r[0], r[1]), width) + "\n")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.DefaultTheme.Colors.Cyan).
		Padding(0, 1).
		Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderPrompt() string {
	switch mode := m.mode.(type) {
	case gPrefixMode:
		return theme.DefaultTheme.Muted.Render("g: g top · h home · c config · w workspace · i incoming · d datastore · t tmp · r root · l logs · m mail")
	case sortPrefixMode:
		return theme.DefaultTheme.Muted.Render("sort: n natural · a alpha · m modified · s size · e extension (shift reverses)")
	case filterMode:
		return "Filter: " + mode.input.View()
	case searchMode:
		return "Search: " + mode.input.View()
	case renameMode:
		return "Rename: " + mode.input.View()
	case createMode:
		return "Create: " + mode.input.View()
	case quickJumpMode:
		return "Find: " + mode.input.View() + "\n" + renderCandidates(mode.candidates, mode.index)
	case frecencyJumpMode:
		return "Jump: " + mode.input.View() + "\n" + renderCandidates(mode.candidates, mode.index)
	case deleteConfirmMode:
		return mode.confirm.View()
	case overwriteConfirmMode:
		return mode.confirm.View()
	}
	return ""
}

func renderCandidates(c []fuzzy.Candidate, index int) string {
	if len(c) == 0 {
		return theme.DefaultTheme.Muted.Render("  no matches")
	}
	var b strings.Builder
	for i, cand := range c {
		if i == index {
			b.WriteString(theme.DefaultTheme.Selected.Render("▶ "+cand.Path) + "\n")
			continue
		}
		b.WriteString("  " + cand.Path + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderTasks() string {
	l := m.sess.Level()
	r := task.Evaluate(l.Tasks, m.sess.TaskContext())
	done := make(map[string]bool, len(r.Satisfied))
	for _, id := range r.Satisfied {
		done[id] = true
	}
	visible := make(map[string]bool, len(r.Visible))
	for _, id := range r.Visible {
		visible[id] = true
	}

	var b strings.Builder
	b.WriteString(theme.DefaultTheme.Header.Render("Objectives") + "\n")
	for _, t := range l.Tasks {
		if !visible[t.ID] {
			continue
		}
		if done[t.ID] || m.sess.TaskDone(t.ID) {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Green).Render("[x] "+t.Description) + "\n")
			continue
		}
		b.WriteString("[ ] " + t.Description + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderStatus() string {
	if m.statusMessage == "" {
		return ""
	}
	if m.statusIsError {
		return lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Red).Render(m.statusMessage)
	}
	return theme.DefaultTheme.Info.Render(m.statusMessage)
}

func (m Model) renderOverlay() string {
	w, _ := m.size()
	l := m.sess.Level()
	var title, body string
	border := theme.DefaultTheme.Colors.Cyan

	switch m.overlay {
	case overlayHelp:
		return m.help.View() + "\n\n" + theme.DefaultTheme.Muted.Render("alt+enter to close")
	case overlayIntro:
		title = fmt.Sprintf("Episode %d · Level %d: %s", l.Episode, l.ID, l.Title)
		body = l.Description
	case overlayHint:
		title = "Hint"
		body = l.Hint
		if body == "" {
			body = "No hint for this level."
		}
	case overlayMap:
		title = "Level Map"
		body = m.renderMap()
	case overlayLockout:
		reason, _ := m.sess.LockedOut()
		title = "LOCKOUT"
		body = reason + "\n\nalt+enter restarts the level."
		border = theme.DefaultTheme.Colors.Red
	case overlayComplete:
		st := m.sess.Stats()
		title = fmt.Sprintf("LEVEL %d COMPLETE", l.ID)
		body = fmt.Sprintf("Keystrokes: %d\nFinds: %d\nJumps: %d\n\nalt+enter continues.", st.Keystrokes, st.FzfFinds, st.FuzzyJumps)
		border = theme.DefaultTheme.Colors.Green
	case overlayFinished:
		title = "TRANSMISSION COMPLETE"
		body = "The guest partition is yours.\n\nalt+enter exits."
		border = theme.DefaultTheme.Colors.Green
	}

	content := theme.DefaultTheme.Header.Render(title) + "\n\n" + body
	if m.overlay != overlayLockout && m.overlay != overlayComplete && m.overlay != overlayFinished {
		content += "\n\n" + theme.DefaultTheme.Muted.Render("alt+enter to close")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Width(min(w-4, 80)).
		Render(content)
}

func (m Model) renderMap() string {
	current := m.sess.Level().ID
	var b strings.Builder
	episode := 0
	for _, l := range m.sess.Catalog().All() {
		if l.Episode != episode {
			episode = l.Episode
			b.WriteString(theme.DefaultTheme.Muted.Render(fmt.Sprintf("Episode %d", episode)) + "\n")
		}
		marker := "  "
		switch {
		case l.ID < current:
			marker = "✓ "
		case l.ID == current:
			marker = "▶ "
		}
		line := fmt.Sprintf("%s%2d  %s", marker, l.ID, l.Title)
		if l.ID == current {
			line = theme.DefaultTheme.Highlight.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
