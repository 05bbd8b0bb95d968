package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-terminus/pkg/level"
)

type levelSummary struct {
	ID            int      `json:"id"`
	Episode       int      `json:"episode"`
	Title         string   `json:"title"`
	Start         string   `json:"start"`
	TimeLimit     string   `json:"time_limit,omitempty"`
	MaxKeystrokes int      `json:"max_keystrokes,omitempty"`
	Tasks         []string `json:"tasks"`
}

func summarize(l *level.Level) levelSummary {
	s := levelSummary{
		ID:            l.ID,
		Episode:       l.Episode,
		Title:         l.Title,
		Start:         l.InitialPath,
		MaxKeystrokes: l.MaxKeystrokes,
	}
	if l.TimeLimit > 0 {
		s.TimeLimit = l.TimeLimit.String()
	}
	for _, t := range l.Tasks {
		s.Tasks = append(s.Tasks, t.ID)
	}
	return s
}

// NewLevelsCmd creates the `terminus levels` command.
func NewLevelsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "levels [level]",
		Short: "List the levels of the game",
		Long: `List every level, or the tasks of one level.

Examples:
  terminus levels          # All levels
  terminus levels 9        # Tasks of level 9
  terminus levels --json   # Machine-readable catalog`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := level.Default()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				n, err := parseLevel(args[0])
				if err != nil {
					return err
				}
				l, ok := catalog.ByOrdinal(n)
				if !ok {
					return fmt.Errorf("no level %d (have 1-%d)", n, catalog.Len())
				}
				if jsonOutput {
					return writeJSON(cmd, summarize(l))
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.SetTitle(fmt.Sprintf("Level %d: %s", l.ID, l.Title))
				tw.AppendHeader(table.Row{"Task", "Description"})
				for _, t := range l.Tasks {
					tw.AppendRow(table.Row{t.ID, t.Description})
				}
				tw.Render()
				return nil
			}

			if jsonOutput {
				all := make([]levelSummary, 0, catalog.Len())
				for _, l := range catalog.All() {
					all = append(all, summarize(l))
				}
				return writeJSON(cmd, all)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.AppendHeader(table.Row{"Level", "Episode", "Title", "Start", "Tasks", "Limit"})
			for _, l := range catalog.All() {
				tw.AppendRow(table.Row{l.ID, l.Episode, l.Title, l.InitialPath, len(l.Tasks), limit(l)})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func parseLevel(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid level %q", arg)
	}
	return n, nil
}

func limit(l *level.Level) string {
	switch {
	case l.TimeLimit > 0:
		return l.TimeLimit.Round(time.Second).String()
	case l.MaxKeystrokes > 0:
		return fmt.Sprintf("%d keys", l.MaxKeystrokes)
	}
	return ""
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
