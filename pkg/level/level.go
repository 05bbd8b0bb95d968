// Package level holds the static catalog of the game: every level's
// metadata, task checks and on-enter hook, and the genesis filesystem that
// reconstruction starts from.
package level

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-terminus/pkg/replay"
	"github.com/mattsolo1/grove-terminus/pkg/task"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

//go:embed levels.yaml
var levelsYAML []byte

// Level is one stage of the game.
type Level struct {
	ID          int
	Episode     int
	Title       string
	Description string
	Hint        string
	// InitialPath is the display path the player starts in.
	InitialPath string
	Tasks       []task.Task
	// OnEnter runs while the level's tree is reconstructed. Nil when the
	// level has no hook.
	OnEnter        replay.Hook
	TimeLimit      time.Duration
	MaxKeystrokes  int
	AllowedDeletes []tree.Allowance
	// Guard vets a delete before protection rules are consulted.
	Guard Guard
}

type levelDoc struct {
	ID             int              `yaml:"id"`
	Episode        int              `yaml:"episode"`
	Title          string           `yaml:"title"`
	Description    string           `yaml:"description"`
	Hint           string           `yaml:"hint"`
	InitialPath    string           `yaml:"initial_path"`
	TimeLimit      int              `yaml:"time_limit"`
	MaxKeystrokes  int              `yaml:"max_keystrokes"`
	AllowedDeletes []tree.Allowance `yaml:"allowed_deletes"`
	Tasks          []struct {
		ID          string `yaml:"id"`
		Description string `yaml:"description"`
	} `yaml:"tasks"`
}

// Rules returns the protection context of the level.
func (l *Level) Rules(done func(taskID string) bool) tree.Rules {
	return tree.Rules{Level: l.ID, Allow: l.AllowedDeletes, Done: done}
}

// Start resolves the level's initial path in root. Segments that do not
// resolve are dropped from the end, so the player lands on the deepest
// directory that exists.
func (l *Level) Start(root *tree.Node) tree.Path {
	display := l.InitialPath
	for {
		if p, ok := tree.Lookup(root, display); ok {
			if n, _ := tree.NodeAt(root, p); n != nil && n.Kind.IsContainer() {
				return p
			}
		}
		if display == "/" || display == "" {
			return tree.Path{root.ID}
		}
		display = parentDisplay(display)
	}
}

// Limited reports whether the level has a keystroke or time budget.
func (l *Level) Limited() bool {
	return l.MaxKeystrokes > 0 || l.TimeLimit > 0
}

func parentDisplay(display string) string {
	for i := len(display) - 1; i > 0; i-- {
		if display[i] == '/' {
			return display[:i]
		}
	}
	return "/"
}

// Catalog is the ordered, read-only set of levels.
type Catalog struct {
	levels []*Level
	byID   map[int]*Level
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded data is
// inconsistent, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(levelsYAML)
		if err != nil {
			panic("level: " + err.Error())
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load builds a catalog from level metadata, attaching the task checks,
// delete guards and hooks registered for each level and task id.
func Load(data []byte) (*Catalog, error) {
	var docs []levelDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decoding levels: %w", err)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	rules := checks()
	hooks := onEnterHooks()
	vetters := guards()
	c := &Catalog{byID: make(map[int]*Level, len(docs))}
	for i, d := range docs {
		if d.ID != i+1 {
			return nil, fmt.Errorf("level ids must run 1..n, found %d at position %d", d.ID, i+1)
		}
		l := &Level{
			ID:             d.ID,
			Episode:        d.Episode,
			Title:          d.Title,
			Description:    d.Description,
			Hint:           d.Hint,
			InitialPath:    d.InitialPath,
			TimeLimit:      time.Duration(d.TimeLimit) * time.Second,
			MaxKeystrokes:  d.MaxKeystrokes,
			AllowedDeletes: d.AllowedDeletes,
			OnEnter:        hooks[d.ID],
			Guard:          vetters[d.ID],
		}
		for _, td := range d.Tasks {
			r, ok := rules[d.ID][td.ID]
			if !ok {
				return nil, fmt.Errorf("level %d task %q has no check", d.ID, td.ID)
			}
			l.Tasks = append(l.Tasks, task.Task{
				ID:          td.ID,
				Description: td.Description,
				Check:       r.check,
				Hidden:      r.hidden,
			})
		}
		c.levels = append(c.levels, l)
		c.byID[l.ID] = l
	}
	return c, nil
}

// Len is the number of levels.
func (c *Catalog) Len() int { return len(c.levels) }

// All returns the levels in order.
func (c *Catalog) All() []*Level {
	return append([]*Level(nil), c.levels...)
}

// ByOrdinal returns the n-th level, counting from 1.
func (c *Catalog) ByOrdinal(n int) (*Level, bool) {
	if n < 1 || n > len(c.levels) {
		return nil, false
	}
	return c.levels[n-1], true
}

// ByID returns the level with the given id.
func (c *Catalog) ByID(id int) (*Level, bool) {
	l, ok := c.byID[id]
	return l, ok
}

// Hooks returns the on-enter hooks keyed by level ordinal, for the replay
// engine.
func (c *Catalog) Hooks() map[int]replay.Hook {
	out := make(map[int]replay.Hook)
	for i, l := range c.levels {
		if l.OnEnter != nil {
			out[i+1] = l.OnEnter
		}
	}
	return out
}

// Engine returns a replay engine wired with the default patches and the
// catalog's hooks.
func (c *Catalog) Engine() *replay.Engine {
	return &replay.Engine{Patches: replay.DefaultPatches(), Hooks: c.Hooks()}
}
