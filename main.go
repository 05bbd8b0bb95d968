package main

import (
	"os"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-terminus/cmd"
	"github.com/mattsolo1/grove-terminus/cmd/config"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"terminus",
		"A terminal file-manager training game",
	)
	config.AddGlobalFlags(rootCmd)
	if rootCmd.PersistentFlags().Lookup("verbose") == nil {
		rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	rootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		// This runs once before any subcommand
		config.InitConfig()
		if verbose, _ := c.Flags().GetBool("verbose"); verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
		return nil
	}

	rootCmd.AddCommand(cmd.NewTuiCmd(logger))
	rootCmd.AddCommand(cmd.NewLevelsCmd())
	rootCmd.AddCommand(cmd.NewReconstructCmd(logger))
	rootCmd.AddCommand(cmd.NewSearchCmd(logger))
	rootCmd.AddCommand(cmd.NewFrecencyCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
