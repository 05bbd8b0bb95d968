// Package session holds the state of one game: the current level, the
// player's filesystem, the cursor and view settings, the clipboard, and the
// record of completed tasks. Every player command is a method that either
// changes that state or returns an error for the status line. The package
// does no I/O; persistence and rendering belong to the caller.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-terminus/pkg/frecency"
	"github.com/mattsolo1/grove-terminus/pkg/level"
	"github.com/mattsolo1/grove-terminus/pkg/replay"
	"github.com/mattsolo1/grove-terminus/pkg/task"
	"github.com/mattsolo1/grove-terminus/pkg/telemetry"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
	"github.com/mattsolo1/grove-terminus/pkg/view"
)

// AllTasks in Options.Tasks marks every task of the start level complete.
const AllTasks = "all"

// Options is the player's initial configuration.
type Options struct {
	// Level is the 1-based level to start on. Zero means the first level.
	Level     int
	SkipIntro bool
	// Tasks lists task ids of the start level to treat as already done.
	Tasks []string
}

// ParseTasks splits a --tasks value such as "all" or "a,b,c".
func ParseTasks(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Config wires a session to its collaborators. Zero fields get defaults.
type Config struct {
	Catalog  *level.Catalog
	Genesis  *tree.Node
	Frecency frecency.Map
	Sink     telemetry.Sink
	Log      *logrus.Entry
	Factory  tree.Factory
	Now      func() time.Time
	// Scenario forces a level 12 scenario during replay.
	Scenario string
}

// Session is one running game.
type Session struct {
	catalog  *level.Catalog
	sink     telemetry.Sink
	log      *logrus.Entry
	factory  tree.Factory
	now      func() time.Time
	scenario string

	level      *level.Level
	root       *tree.Node
	startRoot  *tree.Node
	startPath  tree.Path
	path       tree.Path
	cursor     int
	skipIntro  bool
	tracker    *task.Tracker
	flags      map[string]bool
	stats      task.Stats
	started    time.Time
	complete   bool
	finished   bool
	lockout    string
	notice     string
	mode       string
	clipboard  *tree.Clipboard
	filters    map[string]string
	selected   map[string]bool
	showHidden bool
	showInfo   bool
	sortKey    view.SortKey
	direction  view.Direction
	search     *searchState
	back       []tree.Path
	forward    []tree.Path
	preview    int
	pending    []*tree.Node

	frecency      frecency.Map
	frecencyDirty bool
}

type searchState struct {
	query   string
	matches []view.Match
}

// New starts a session on opts.Level. The filesystem is rebuilt from genesis
// and every task of the earlier levels counts as complete.
func New(cfg Config, opts Options) (*Session, error) {
	if cfg.Catalog == nil {
		cfg.Catalog = level.Default()
	}
	if cfg.Genesis == nil {
		cfg.Genesis = level.Genesis()
	}
	if cfg.Sink == nil {
		cfg.Sink = telemetry.Discard
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Factory.NewID == nil {
		cfg.Factory = tree.Factory{NewID: tree.RandomIDs, Now: cfg.Now}
	}
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}

	n := opts.Level
	if n == 0 {
		n = 1
	}
	l, ok := cfg.Catalog.ByOrdinal(n)
	if !ok {
		return nil, fmt.Errorf("level %d: %w (have 1-%d)", n, ErrNoLevel, cfg.Catalog.Len())
	}

	s := &Session{
		catalog:   cfg.Catalog,
		sink:      cfg.Sink,
		log:       log.WithField("component", "session"),
		factory:   cfg.Factory,
		now:       cfg.Now,
		scenario:  cfg.Scenario,
		skipIntro: opts.SkipIntro,
		tracker:   task.NewTracker(),
	}

	now := s.now()
	history := cfg.Frecency
	if history == nil {
		history = frecency.Seed(now)
	}
	s.frecency = frecency.EnsureRoots(history, now)

	for _, prev := range cfg.Catalog.All()[:n-1] {
		for _, t := range prev.Tasks {
			s.tracker.Mark(prev.ID, t.ID)
		}
	}
	for _, id := range opts.Tasks {
		if id == AllTasks {
			for _, t := range l.Tasks {
				s.tracker.Mark(l.ID, t.ID)
			}
			continue
		}
		if !hasTask(l, id) {
			return nil, fmt.Errorf("level %d has no task %q: %w", l.ID, id, ErrNoTask)
		}
		s.tracker.Mark(l.ID, id)
	}

	root, failures := s.engine().Replay(cfg.Genesis, n)
	if len(failures) > 0 {
		s.log.WithField("failures", len(failures)).Warn("Replay skipped level hooks")
	}
	s.begin(l, root, l.Start(root))
	if len(failures) > 0 {
		s.notice = "Level initialization failed"
	}
	return s, nil
}

func hasTask(l *level.Level, id string) bool {
	for _, t := range l.Tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) engine() *replay.Engine {
	e := s.catalog.Engine()
	e.Sink = s.sink
	e.Log = s.log
	e.Flags = s.flags
	e.Scenario = s.scenario
	return e
}

// begin resets the per-level state and enters l with root.
func (s *Session) begin(l *level.Level, root *tree.Node, start tree.Path) {
	s.level = l
	s.root = root
	s.startRoot = root
	s.startPath = start
	s.path = start
	s.cursor = 0
	s.stats = task.NewStats()
	s.started = s.now()
	s.complete = false
	s.lockout = ""
	s.notice = ""
	s.mode = task.ModeNormal
	s.clipboard = nil
	s.filters = make(map[string]string)
	s.selected = make(map[string]bool)
	s.sortKey = view.SortNatural
	s.direction = view.Ascending
	s.search = nil
	s.back, s.forward = nil, nil
	s.preview = 0
	s.pending = nil
	if l.ID == 11 && s.flags == nil {
		s.flags = make(map[string]bool)
	}
	s.visit()
	s.sink.Record(telemetry.TagLevelStart, map[string]any{"level": l.ID, "title": l.Title})
	s.log.WithFields(logrus.Fields{"level": l.ID, "path": s.Display()}).Debug("Level started")
}

// Advance moves to the next level once the current one is complete. The
// player's filesystem carries over and the next level's fold step is
// applied to it. It returns false after the last level.
func (s *Session) Advance() (bool, error) {
	if !s.complete {
		return false, ErrLevelIncomplete
	}
	next, ok := s.catalog.ByOrdinal(s.level.ID + 1)
	if !ok {
		s.finished = true
		return false, nil
	}

	root, herr := s.engine().Step(s.root, next.ID)
	start := tree.Nearest(root, s.path)
	if next.Episode != s.level.Episode {
		start = next.Start(root)
	}
	s.begin(next, root, start)
	if herr != nil {
		s.notice = "Level initialization failed"
	}
	return true, nil
}

// Restart puts the level back to how it was entered and forgets its
// completed tasks.
func (s *Session) Restart() {
	s.tracker.Forget(s.level.ID)
	if s.level.ID == 11 {
		s.flags = nil
	}
	s.begin(s.level, s.startRoot, s.startPath)
}

// Level returns the level being played.
func (s *Session) Level() *level.Level { return s.level }

// Catalog returns every level of the game.
func (s *Session) Catalog() *level.Catalog { return s.catalog }

// Root returns the current filesystem.
func (s *Session) Root() *tree.Node { return s.root }

// Path returns the id path of the current directory.
func (s *Session) Path() tree.Path { return s.path }

// Display returns the current directory as a slash path.
func (s *Session) Display() string { return tree.DisplayPath(s.root, s.path) }

// Clipboard returns the clipboard, nil when empty.
func (s *Session) Clipboard() *tree.Clipboard { return s.clipboard }

// Stats returns the usage counters of the current level.
func (s *Session) Stats() task.Stats { return s.stats }

// Flags returns the choices recorded on level 11, nil before it is played.
func (s *Session) Flags() map[string]bool { return s.flags }

// ShowHidden reports whether dot entries are listed.
func (s *Session) ShowHidden() bool { return s.showHidden }

// ShowInfo reports whether the info panel is open.
func (s *Session) ShowInfo() bool { return s.showInfo }

// Sort returns the active sort key and direction.
func (s *Session) Sort() (view.SortKey, view.Direction) { return s.sortKey, s.direction }

// Filter returns the filter of the current directory.
func (s *Session) Filter() string { return s.filters[s.path.Last()] }

// SkipIntro reports whether intro screens should be skipped.
func (s *Session) SkipIntro() bool { return s.skipIntro }

// Complete reports whether every visible task of the level is done.
func (s *Session) Complete() bool { return s.complete }

// Finished reports whether the last level has been completed and left.
func (s *Session) Finished() bool { return s.finished }

// PreviewOffset is the scroll position of the preview pane.
func (s *Session) PreviewOffset() int { return s.preview }

// Selected reports whether the node with id is selected.
func (s *Session) Selected(id string) bool { return s.selected[id] }

// SelectionCount is the number of selected nodes.
func (s *Session) SelectionCount() int { return len(s.selected) }

// TakeNotice returns the pending notification and clears it.
func (s *Session) TakeNotice() string {
	n := s.notice
	s.notice = ""
	return n
}

// SetMode records the interaction mode checks see.
func (s *Session) SetMode(mode string) { s.mode = mode }

// TaskContext is the snapshot task checks run against.
func (s *Session) TaskContext() task.Context {
	query := ""
	if s.search != nil {
		query = s.search.query
	}
	return task.Context{
		Root:        s.root,
		Path:        s.path,
		Cursor:      s.Cursor(),
		Mode:        s.mode,
		Clipboard:   s.clipboard,
		Filters:     s.filters,
		ShowHidden:  s.showHidden,
		ShowInfo:    s.showInfo,
		Selected:    s.selected,
		SearchQuery: query,
		Sort:        s.sortKey,
		Direction:   s.direction,
		Stats:       s.stats,
		Level:       s.level.ID,
		Flags:       s.flags,
		Done:        s.tracker.For(s.level.ID),
	}
}

// Evaluate runs the level's checks, records newly completed tasks, and
// returns the result.
func (s *Session) Evaluate() task.Result {
	r := task.Evaluate(s.level.Tasks, s.TaskContext())
	for _, id := range s.tracker.Observe(s.level.ID, r) {
		s.sink.Record(telemetry.TagTaskComplete, map[string]any{"level": s.level.ID, "task": id})
	}
	if r.Complete && !s.complete {
		s.complete = true
		s.sink.Record(telemetry.TagLevelComplete, map[string]any{
			"level":      s.level.ID,
			"keystrokes": s.stats.Keystrokes,
			"seconds":    int(s.now().Sub(s.started).Seconds()),
		})
		s.log.WithField("level", s.level.ID).Info("Level complete")
	}
	return r
}

// TaskDone reports whether a task of the current level was ever completed.
func (s *Session) TaskDone(id string) bool {
	return s.tracker.Done(s.level.ID, id)
}

// FrecencyUpdate returns the visit history when it changed since the last
// call.
func (s *Session) FrecencyUpdate() (frecency.Map, bool) {
	if !s.frecencyDirty {
		return nil, false
	}
	s.frecencyDirty = false
	return s.frecency.Clone(), true
}

// Frecency returns the visit history.
func (s *Session) Frecency() frecency.Map { return s.frecency }

func (s *Session) visit() {
	s.frecency = frecency.Visit(s.frecency, s.Display(), s.now())
	s.frecencyDirty = true
}

func (s *Session) record(u task.Usage) {
	s.stats = s.stats.Record(u)
}
