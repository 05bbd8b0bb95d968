package task

// Usage names a player command whose use task checks care about.
type Usage string

const (
	UsedDown        Usage = "down"
	UsedUp          Usage = "up"
	UsedG           Usage = "G"
	UsedGG          Usage = "gg"
	UsedGH          Usage = "gh"
	UsedGC          Usage = "gc"
	UsedGI          Usage = "gi"
	UsedGR          Usage = "gr"
	UsedGW          Usage = "gw"
	UsedPreviewDown Usage = "preview-down"
	UsedPreviewUp   Usage = "preview-up"
	UsedFilter      Usage = "filter"
	UsedSearch      Usage = "search"
	UsedCtrlA       Usage = "ctrl+a"
	UsedCtrlR       Usage = "ctrl+r"
	UsedD           Usage = "D"
	UsedP           Usage = "p"
	UsedShiftP      Usage = "P"
	UsedY           Usage = "y"
	UsedX           Usage = "x"
	UsedSortM       Usage = "sort-m"
	UsedHistoryBack Usage = "history-back"
)

// Stats accumulates what the player has done during the current level.
type Stats struct {
	Used       map[Usage]int
	Keystrokes int
	FuzzyJumps int
	FzfFinds   int
	Honeypots  int
}

// NewStats returns empty stats.
func NewStats() Stats {
	return Stats{Used: make(map[Usage]int)}
}

// Has reports whether u has been used at least once.
func (s Stats) Has(u Usage) bool {
	return s.Used[u] > 0
}

// Record returns a copy of s with u counted once more.
func (s Stats) Record(u Usage) Stats {
	used := make(map[Usage]int, len(s.Used)+1)
	for k, v := range s.Used {
		used[k] = v
	}
	used[u]++
	s.Used = used
	return s
}
