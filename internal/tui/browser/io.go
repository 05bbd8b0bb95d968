package browser

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-terminus/pkg/frecency"
)

// saveTimeout bounds one frecency write.
const saveTimeout = 2 * time.Second

// tickMsg drives the level clock.
type tickMsg time.Time

// frecencySavedMsg reports a finished frecency write.
type frecencySavedMsg struct {
	err error
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// saveFrecencyCmd writes the visit history in the background. Commands may
// finish in any order, so the writer drops a snapshot older than one already
// saved. Failures are logged and otherwise ignored; the game never waits on
// the store.
func saveFrecencyCmd(w *frecency.Writer, seq uint64, m frecency.Map, log *logrus.Entry) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		_, err := w.Save(ctx, seq, m)
		if err != nil {
			log.WithError(err).Warn("Failed to save frecency")
		}
		return frecencySavedMsg{err: err}
	}
}
