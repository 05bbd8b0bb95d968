// Package replay rebuilds the filesystem a player would have on entering a
// level, starting from the pristine genesis tree.
//
// Reconstruction is a fold over level ordinals. Step k first applies the
// patch for completing level k-1, then runs level k's on-enter hook. Patches
// and hooks check what already exists and create nodes with fixed ids, so
// running the fold again over its own output changes nothing.
package replay

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-terminus/pkg/telemetry"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

// ErrHookFailure marks a level on-enter hook that failed or panicked.
var ErrHookFailure = errors.New("level hook failed")

// Patch is the structural effect of completing a level.
type Patch func(root *tree.Node) *tree.Node

// Registry holds patches by fold step. Registry[k] is the effect of
// completing level k-1 and is applied when reconstructing level k or later.
type Registry map[int]Patch

// HookContext is what an on-enter hook may consult besides the tree.
type HookContext struct {
	Level  int // ordinal of the level whose hook is running
	Target int // ordinal being reconstructed
	// Flags carries choices the player made on earlier levels. Nil means
	// the hook must infer them from the tree.
	Flags map[string]bool
	// Scenario forces a named branch where a hook has several.
	Scenario string
}

// Hook is a level's on-enter transform. It must not modify root.
type Hook func(root *tree.Node, hc HookContext) (*tree.Node, error)

// HookError reports a hook that was skipped during reconstruction.
type HookError struct {
	Level int
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("level %d on-enter: %v", e.Level, e.Err)
}

// Unwrap exposes both ErrHookFailure and the underlying cause.
func (e *HookError) Unwrap() []error {
	return []error{ErrHookFailure, e.Err}
}

// Engine folds patches and hooks over a genesis tree.
type Engine struct {
	Patches  Registry
	Hooks    map[int]Hook
	Sink     telemetry.Sink
	Log      *logrus.Entry
	Flags    map[string]bool
	Scenario string
}

// Reconstruct returns the tree for entering level target. Hook failures are
// reported to the sink and skipped.
func (e *Engine) Reconstruct(genesis *tree.Node, target int) *tree.Node {
	root, _ := e.Replay(genesis, target)
	return root
}

// Replay is Reconstruct that also returns the hook failures it skipped.
func (e *Engine) Replay(genesis *tree.Node, target int) (*tree.Node, []*HookError) {
	root := genesis
	var failures []*HookError
	for k := 1; k <= target; k++ {
		var herr *HookError
		root, herr = e.step(root, k, target)
		if herr != nil {
			failures = append(failures, herr)
		}
	}
	return root, failures
}

// Step applies fold step k alone to root: the patch for completing level
// k-1, then level k's hook. It is what advancing from one level to the next
// does to the player's own tree.
func (e *Engine) Step(root *tree.Node, k int) (*tree.Node, *HookError) {
	return e.step(root, k, k)
}

func (e *Engine) step(root *tree.Node, k, target int) (*tree.Node, *HookError) {
	log := e.logger().WithFields(logrus.Fields{"target": target, "step": k})
	if p := e.Patches[k]; p != nil {
		root = p(root)
		log.Debug("Applied completion patch")
	}
	h := e.Hooks[k]
	if h == nil {
		return root, nil
	}
	hc := HookContext{Level: k, Target: target, Flags: e.Flags, Scenario: e.Scenario}
	out, err := runHook(h, root, hc)
	if err != nil {
		log.WithError(err).Warn("Level hook failed, keeping tree")
		e.sink().Record(telemetry.TagHookFailure, map[string]any{"level": k, "error": err})
		return root, &HookError{Level: k, Err: err}
	}
	return out, nil
}

func runHook(h Hook, root *tree.Node, hc HookContext) (out *tree.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	out, err = h(root, hc)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("hook returned no tree")
	}
	if err := tree.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) sink() telemetry.Sink {
	if e.Sink == nil {
		return telemetry.Discard
	}
	return e.Sink
}

func (e *Engine) logger() *logrus.Entry {
	log := e.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	return log.WithField("component", "replay")
}
