package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-terminus/pkg/level"
	"github.com/mattsolo1/grove-terminus/pkg/tree"
)

// reconstruct rebuilds the filesystem the player sees on entering level n.
func reconstruct(n int, scenario string, log *logrus.Entry) (*tree.Node, error) {
	catalog := level.Default()
	if _, ok := catalog.ByOrdinal(n); !ok {
		return nil, fmt.Errorf("no level %d (have 1-%d)", n, catalog.Len())
	}
	engine := catalog.Engine()
	engine.Log = log
	engine.Scenario = scenario
	root, failures := engine.Replay(level.Genesis(), n)
	for _, f := range failures {
		log.WithError(f).Warn("Level hook skipped")
	}
	return root, nil
}

// NewReconstructCmd creates the `terminus reconstruct` command.
func NewReconstructCmd(logger *logrus.Logger) *cobra.Command {
	var (
		format   string
		from     string
		scenario string
	)

	cmd := &cobra.Command{
		Use:   "reconstruct <level>",
		Short: "Print the filesystem of a level",
		Long: `Rebuild the filesystem a player sees on entering a level and print it.

Examples:
  terminus reconstruct 5                       # Whole tree as text
  terminus reconstruct 12 --from /daemons      # One subtree
  terminus reconstruct 3 --format yaml         # YAML document`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseLevel(args[0])
			if err != nil {
				return err
			}
			root, err := reconstruct(n, scenario, logrus.NewEntry(logger))
			if err != nil {
				return err
			}

			node := root
			if from != "" && from != "/" {
				path, ok := tree.Lookup(root, from)
				if !ok {
					return fmt.Errorf("%s: %w", from, tree.ErrNotFound)
				}
				node, _ = tree.NodeAt(root, path)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				data, err := tree.Encode(node)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			case "text":
				printTree(out, node, 0)
				return nil
			}
			return fmt.Errorf("unknown format %q (want text or yaml)", format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or yaml")
	cmd.Flags().StringVar(&from, "from", "/", "Print only the subtree at this path")
	cmd.Flags().StringVar(&scenario, "scenario", "", "Force a level 12 scenario")

	return cmd
}

func printTree(w io.Writer, n *tree.Node, depth int) {
	name := n.Name + "/"
	switch {
	case n.ParentID == "":
		name = "/"
	case !n.Kind.IsContainer():
		name = n.Name
	}
	var marks []string
	if n.Protected {
		marks = append(marks, "protected")
	}
	if n.Honeypot {
		marks = append(marks, "honeypot")
	}
	if n.Kind == tree.KindArchive {
		marks = append(marks, "archive")
	}
	line := strings.Repeat("  ", depth) + name
	if len(marks) > 0 {
		line += " [" + strings.Join(marks, ",") + "]"
	}
	fmt.Fprintln(w, line)
	for _, c := range n.Children {
		printTree(w, c, depth+1)
	}
}
