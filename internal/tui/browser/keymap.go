package browser

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/mattsolo1/grove-core/tui/keymap"
)

// KeyMap defines the keybindings for the game TUI
type KeyMap struct {
	keymap.Base
	Parent        key.Binding
	Open          key.Binding
	Top           key.Binding // g prefix; gg goes to the top
	Bottom        key.Binding
	PreviewDown   key.Binding
	PreviewUp     key.Binding
	HistoryBack   key.Binding
	HistoryFwd    key.Binding
	Create        key.Binding
	Rename        key.Binding
	Filter        key.Binding
	Search        key.Binding
	QuickJump     key.Binding
	FrecencyJump  key.Binding
	Cut           key.Binding
	Yank          key.Binding
	ClearClip     key.Binding
	Paste         key.Binding
	PasteOver     key.Binding
	Delete        key.Binding
	DeleteForever key.Binding
	ToggleSelect  key.Binding
	SelectAll     key.Binding
	Invert        key.Binding
	ToggleHidden  key.Binding
	SortPrefix    key.Binding
	Info          key.Binding
	Hint          key.Binding
	Map           key.Binding
	CloseOverlay  key.Binding
	Next          key.Binding
	Prev          key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Hint, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{
			k.Up,
			k.Down,
			k.Parent,
			k.Open,
			k.Top,
			k.Bottom,
			k.PreviewDown,
			k.PreviewUp,
			k.HistoryBack,
			k.HistoryFwd,
		}, {
			k.Filter,
			k.Search,
			k.QuickJump,
			k.FrecencyJump,
			k.ToggleHidden,
			k.SortPrefix,
			k.Info,
			k.Back,
		}, {
			k.Cut,
			k.Yank,
			k.ClearClip,
			k.Paste,
			k.PasteOver,
			k.Delete,
			k.DeleteForever,
			k.Create,
			k.Rename,
		}, {
			k.ToggleSelect,
			k.SelectAll,
			k.Invert,
			k.Hint,
			k.Map,
			k.Help,
			k.CloseOverlay,
			k.Quit,
		},
	}
}

func newKeyMap() KeyMap {
	base := keymap.NewBase()
	base.Up = key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	)
	base.Down = key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	)
	base.Back = key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear filter/search"),
	)
	base.Confirm = key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	)
	base.Help = key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	)
	base.Quit = key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	)

	return KeyMap{
		Base: base,
		Parent: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h", "parent"),
		),
		Open: key.NewBinding(
			key.WithKeys("l", "right", "enter"),
			key.WithHelp("l/enter", "open"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "go to (gg top, gh gc gw gi gd gt gr gl gm)"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		PreviewDown: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "scroll preview down"),
		),
		PreviewUp: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "scroll preview up"),
		),
		HistoryBack: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "history back"),
		),
		HistoryFwd: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "history forward"),
		),
		Create: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "create (dir/ for directory)"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		Search: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "recursive search"),
		),
		QuickJump: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "find"),
		),
		FrecencyJump: key.NewBinding(
			key.WithKeys("Z"),
			key.WithHelp("Z", "jump to frequent dir"),
		),
		Cut: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cut"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yank"),
		),
		ClearClip: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "clear clipboard"),
		),
		Paste: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "paste"),
		),
		PasteOver: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "paste, overwriting"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		DeleteForever: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete permanently"),
		),
		ToggleSelect: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "select all"),
		),
		Invert: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "invert selection"),
		),
		ToggleHidden: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "toggle hidden"),
		),
		SortPrefix: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "sort (n a m s e, shift reverses)"),
		),
		Info: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "info panel"),
		),
		Hint: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "hint"),
		),
		Map: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "level map"),
		),
		CloseOverlay: key.NewBinding(
			key.WithKeys("alt+enter"),
			key.WithHelp("alt+enter", "close panel / continue"),
		),
		Next: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "previous"),
		),
	}
}

var keys = newKeyMap()
