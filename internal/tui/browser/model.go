package browser

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattsolo1/grove-core/tui/components/help"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-terminus/pkg/frecency"
	"github.com/mattsolo1/grove-terminus/pkg/session"
)

// maxCandidates caps the finder lists.
const maxCandidates = 10

// Options wires the TUI to its collaborators. Zero fields get defaults.
type Options struct {
	// Store receives the visit history whenever it changes. Nil disables
	// saving.
	Store frecency.Store
	Log   *logrus.Entry
	Now   func() time.Time
}

// Model is the bubbletea model of a running game. The game state lives in
// the session; the model owns the keyboard mode, overlays and layout.
type Model struct {
	sess    *session.Session
	saves   *frecency.Writer
	saveSeq uint64
	log     *logrus.Entry
	now     func() time.Time

	mode    Mode
	overlay overlay
	keys    KeyMap
	help    help.Model

	width  int
	height int

	statusMessage string
	statusIsError bool
	quitting      bool
}

// New creates the TUI model for sess.
func New(sess *session.Session, opts Options) Model {
	helpModel := help.NewBuilder().
		WithKeys(keys).
		WithTitle("Terminus - Help").
		Build()

	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		sess: sess,
		log:  log.WithField("component", "tui"),
		now:  now,
		mode: normalMode{},
		keys: keys,
		help: helpModel,
	}
	if opts.Store != nil {
		m.saves = frecency.NewWriter(opts.Store)
	}
	if !sess.SkipIntro() {
		m.overlay = overlayIntro
	}
	return m
}

// Init starts the level clock.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Session returns the game being played.
func (m Model) Session() *session.Session { return m.sess }

// Mode returns the active interaction mode.
func (m Model) Mode() Mode { return m.mode }

// Quitting reports whether the player asked to leave.
func (m Model) Quitting() bool { return m.quitting }

// StatusMessage returns the status line.
func (m Model) StatusMessage() string { return m.statusMessage }

func (m *Model) setStatus(msg string) {
	m.statusMessage = msg
	m.statusIsError = false
}

func (m *Model) setError(err error) {
	m.statusMessage = err.Error()
	m.statusIsError = true
}

// setMode switches the keyboard owner and tells the session, so task checks
// see whether a prompt is open.
func (m *Model) setMode(mode Mode) {
	m.mode = mode
	m.sess.SetMode(mode.name())
}
