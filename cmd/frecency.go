package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-terminus/cmd/config"
	"github.com/mattsolo1/grove-terminus/pkg/frecency"
)

var frecencyUlog = grovelogging.NewUnifiedLogger("grove-terminus.cmd.frecency")

// NewFrecencyCmd creates the `terminus frecency` command group.
func NewFrecencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frecency",
		Short: "Inspect or reset the directory jump history",
	}
	cmd.AddCommand(newFrecencyListCmd())
	cmd.AddCommand(newFrecencyResetCmd())
	return cmd
}

func openStore() (*frecency.SQLiteStore, error) {
	db, err := frecency.NewSQLiteStore(config.Load().FrecencyDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open frecency store: %w", err)
	}
	return db, nil
}

func newFrecencyListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remembered directories by score",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := db.Load(ctx)
			if err != nil {
				return err
			}
			if len(m) == 0 {
				frecencyUlog.Info("No history").
					Pretty("No directories remembered yet").
					PrettyOnly().
					Log(ctx)
				return nil
			}

			now := time.Now()
			ranked := frecency.Rank(m, now)
			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Path", "Visits", "Last visit", "Score"})
			for _, r := range ranked {
				last := "-"
				if r.Entry.LastAccess > 0 {
					last = time.UnixMilli(r.Entry.LastAccess).Format("2006-01-02 15:04")
				}
				tw.AppendRow(table.Row{r.Path, r.Entry.Count, last, fmt.Sprintf("%.2f", r.Score)})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	return cmd
}

func newFrecencyResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget every remembered directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Reset(ctx); err != nil {
				return fmt.Errorf("failed to reset frecency store: %w", err)
			}
			frecencyUlog.Success("History reset").
				Pretty("* Jump history cleared").
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}
}
