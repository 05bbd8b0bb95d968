package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-terminus/pkg/tree"
	"github.com/mattsolo1/grove-terminus/pkg/view"
)

var searchUlog = grovelogging.NewUnifiedLogger("grove-terminus.cmd.search")

// NewSearchCmd creates the `terminus search` command.
func NewSearchCmd(logger *logrus.Logger) *cobra.Command {
	var (
		lvl         int
		from        string
		showHidden  bool
		searchLimit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a level's filesystem",
		Long: `Search every file and directory below a path of a reconstructed level.

Examples:
  terminus search watcher --level 2            # Whole filesystem
  terminus search .service --from /daemons     # One subtree
  terminus search key --level 9 --hidden       # Include dot entries`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			query := strings.Join(args, " ")

			root, err := reconstruct(lvl, "", logrus.NewEntry(logger))
			if err != nil {
				return err
			}
			start := tree.Path{root.ID}
			if from != "" && from != "/" {
				p, ok := tree.Lookup(root, from)
				if !ok {
					return fmt.Errorf("%s: %w", from, tree.ErrNotFound)
				}
				start = p
			}

			results := view.Search(root, start, query, showHidden)
			if len(results) == 0 {
				searchUlog.Info("No results found").
					Field("query", query).
					Field("level", lvl).
					Pretty("No results found").
					PrettyOnly().
					Log(ctx)
				return nil
			}
			if searchLimit > 0 && len(results) > searchLimit {
				results = results[:searchLimit]
			}

			searchUlog.Info("Search results").
				Field("query", query).
				Field("level", lvl).
				Field("result_count", len(results)).
				Pretty(fmt.Sprintf("Found %d results:", len(results))).
				PrettyOnly().
				Log(ctx)

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"#", "Path", "Kind"})
			for i, m := range results {
				tw.AppendRow(table.Row{i + 1, m.Display, m.Node.Kind})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&lvl, "level", "l", 1, "Level whose filesystem to search")
	cmd.Flags().StringVar(&from, "from", "/", "Path to search below")
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "Include dot entries")
	cmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum results")

	return cmd
}
