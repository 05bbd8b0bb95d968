package confirm

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"
)

// maxItems is how many affected names the dialog lists before summarising.
const maxItems = 8

// --- Messages ---

// ConfirmedMsg is sent when the player accepts.
type ConfirmedMsg struct{}

// CancelledMsg is sent when the player declines.
type CancelledMsg struct{}

// --- Model ---

// Model is a hard-modal yes/no dialog. While Active it swallows every key
// except its own.
type Model struct {
	Active bool
	Prompt string
	Items  []string
	// Danger draws the dialog in the warning colour.
	Danger bool
	keys   keyMap
}

// New creates an inactive dialog.
func New() Model {
	return Model{keys: defaultKeyMap}
}

// Activate shows the dialog with prompt and the names it affects.
func (m *Model) Activate(prompt string, items ...string) {
	m.Prompt = prompt
	m.Items = items
	m.Active = true
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.Active {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.Active = false
			return m, func() tea.Msg { return ConfirmedMsg{} }
		case key.Matches(msg, m.keys.Cancel):
			m.Active = false
			return m, func() tea.Msg { return CancelledMsg{} }
		}
	}
	return m, nil
}

// --- View ---

func (m Model) View() string {
	if !m.Active {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.Prompt)
	for i, item := range m.Items {
		if i == maxItems {
			fmt.Fprintf(&b, "\n  ...and %d more", len(m.Items)-maxItems)
			break
		}
		b.WriteString("\n  " + item)
	}

	border := theme.DefaultTheme.Colors.Orange
	if m.Danger {
		border = theme.DefaultTheme.Colors.Red
	}
	dialogBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Render(b.String())

	helpText := lipgloss.NewStyle().
		Faint(true).
		Width(lipgloss.Width(dialogBox)).
		Align(lipgloss.Center).
		Render("(y/n)")

	return lipgloss.JoinVertical(lipgloss.Left, dialogBox, helpText)
}

// --- KeyMap ---

type keyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

var defaultKeyMap = keyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}
