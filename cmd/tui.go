package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/mattsolo1/grove-core/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-terminus/cmd/config"
	"github.com/mattsolo1/grove-terminus/internal/tui/browser"
	"github.com/mattsolo1/grove-terminus/pkg/frecency"
	"github.com/mattsolo1/grove-terminus/pkg/session"
	"github.com/mattsolo1/grove-terminus/pkg/telemetry"
)

// NewTuiCmd creates the `terminus tui` command.
func NewTuiCmd(logger *logrus.Logger) *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Play the game",
		Long: `Start the game in the terminal.

Examples:
  terminus tui                          # Start at level 1
  terminus tui --level 9 --skip-intro   # Jump to level 9
  terminus tui --level 4 --tasks all    # Level 4 with every task already done`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range []string{"level", "skip-intro", "tasks"} {
				key := name
				if name == "skip-intro" {
					key = "skip_intro"
				}
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return fmt.Errorf("failed to bind --%s: %w", name, err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("TUI mode requires an interactive terminal")
			}

			settings := config.Load()
			log := logrus.NewEntry(logger)
			ctx := context.Background()

			sink, closeSink := openSink(settings, log)
			defer closeSink()

			var store frecency.Store
			db, err := frecency.NewSQLiteStore(settings.FrecencyDB)
			if err != nil {
				log.WithError(err).Warn("Frecency history will not be saved")
			} else {
				defer db.Close()
				store = db
			}
			history := frecency.LoadOrSeed(ctx, store, time.Now(), log)

			sess, err := session.New(session.Config{
				Frecency: history,
				Sink:     sink,
				Log:      log,
				Scenario: scenario,
			}, session.Options{
				Level:     viper.GetInt("level"),
				SkipIntro: viper.GetBool("skip_intro"),
				Tasks:     session.ParseTasks(viper.GetString("tasks")),
			})
			if err != nil {
				return err
			}

			model := browser.New(sess, browser.Options{Store: store, Log: log})
			p := tea.NewProgram(model, tea.WithAltScreen())

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntP("level", "l", 1, "Level to start on")
	cmd.Flags().Bool("skip-intro", false, "Skip the level intro screens")
	cmd.Flags().String("tasks", "", "Tasks of the start level to mark done: all or a,b,c")
	cmd.Flags().StringVar(&scenario, "scenario", "", "Force a level 12 scenario")
	_ = cmd.Flags().MarkHidden("scenario")

	return cmd
}

// openSink builds the telemetry sink from settings. The returned func
// flushes and closes it.
func openSink(settings config.Settings, log *logrus.Entry) (telemetry.Sink, func()) {
	var sinks telemetry.Multi
	closeFn := func() {}

	if settings.TelemetryFile != "" {
		fs, err := telemetry.NewFileSink(settings.TelemetryFile, nil)
		if err != nil {
			log.WithError(err).Warn("Telemetry file disabled")
		} else {
			sinks = append(sinks, fs)
			closeFn = func() {
				if err := fs.Close(); err != nil {
					log.WithError(err).Warn("Failed to close telemetry file")
				}
			}
		}
	}
	if settings.OTel {
		shutdown, err := telemetry.Init(context.Background(), version.GetInfo().Version)
		if err != nil {
			log.WithError(err).Warn("OpenTelemetry export disabled")
		} else {
			sinks = append(sinks, telemetry.NewOTelSink())
			closeFile := closeFn
			closeFn = func() {
				closeFile()
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.WithError(err).Warn("Failed to flush telemetry")
				}
			}
		}
	}

	if len(sinks) == 0 {
		return telemetry.Discard, closeFn
	}
	return sinks, closeFn
}
