// Package task evaluates level objectives against a session snapshot.
//
// Checks are pure and re-run after every action. A check may consult
// Context.Completed to wait for another task; that is the only ordering
// mechanism. Checks are not sticky: an action that undoes a precondition
// turns the check false again. The Tracker keeps the separate record of
// tasks that were ever satisfied.
package task

import "sort"

// Task is a single objective within a level.
type Task struct {
	ID          string
	Description string
	Check       func(Context) bool
	// Hidden, when set and true, removes the task from the level's list and
	// from its completion requirement.
	Hidden func(Context) bool
}

// Visible reports whether the task currently counts toward completion.
func (t Task) Visible(ctx Context) bool {
	return t.Hidden == nil || !t.Hidden(ctx)
}

// Result is the outcome of evaluating a level's tasks.
type Result struct {
	// Satisfied lists visible tasks whose checks are true right now.
	Satisfied []string
	// Visible lists every task that is not hidden, in level order.
	Visible []string
	// Complete is true when every visible task is satisfied now or was
	// recorded complete earlier.
	Complete bool
}

// Evaluate runs every task check against ctx.
func Evaluate(tasks []Task, ctx Context) Result {
	var r Result
	complete := true
	for _, t := range tasks {
		if !t.Visible(ctx) {
			continue
		}
		r.Visible = append(r.Visible, t.ID)
		ok := t.Check != nil && t.Check(ctx)
		if ok {
			r.Satisfied = append(r.Satisfied, t.ID)
		}
		if !ok && !ctx.Completed(t.ID) {
			complete = false
		}
	}
	r.Complete = complete && len(r.Visible) > 0
	return r
}

// Tracker records, per level, every task that was ever satisfied.
type Tracker struct {
	done map[int]map[string]bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{done: make(map[int]map[string]bool)}
}

// Mark records taskID as complete for level.
func (t *Tracker) Mark(level int, taskID string) {
	m := t.done[level]
	if m == nil {
		m = make(map[string]bool)
		t.done[level] = m
	}
	m[taskID] = true
}

// Done reports whether taskID was ever completed on level.
func (t *Tracker) Done(level int, taskID string) bool {
	return t.done[level][taskID]
}

// Completed lists the completed task ids of level in sorted order.
func (t *Tracker) Completed(level int) []string {
	out := make([]string, 0, len(t.done[level]))
	for id := range t.done[level] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Observe records every satisfied task of r and returns the ids that were
// not already recorded, in evaluation order.
func (t *Tracker) Observe(level int, r Result) []string {
	var fresh []string
	for _, id := range r.Satisfied {
		if !t.Done(level, id) {
			t.Mark(level, id)
			fresh = append(fresh, id)
		}
	}
	return fresh
}

// For returns a Done func bound to level, for use in a Context.
func (t *Tracker) For(level int) func(string) bool {
	return func(id string) bool { return t.Done(level, id) }
}

// Clone returns an independent copy of the tracker.
func (t *Tracker) Clone() *Tracker {
	c := NewTracker()
	for lvl, ids := range t.done {
		for id := range ids {
			c.Mark(lvl, id)
		}
	}
	return c
}

// Forget drops every record of level, for a restart.
func (t *Tracker) Forget(level int) {
	delete(t.done, level)
}
