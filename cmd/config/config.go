package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var envKeys = strings.NewReplacer(".", "_", "-", "_")

// Settings is the resolved configuration of a run.
type Settings struct {
	DataDir       string
	FrecencyDB    string
	TelemetryFile string
	OTel          bool
}

// InitConfig reads the config file and environment into viper.
func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "terminus"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("TERMINUS")
	viper.SetEnvKeyReplacer(envKeys)
	viper.AutomaticEnv()

	SetDefaults(os.Getenv("HOME"))

	// A missing config file is normal.
	_ = viper.ReadInConfig()
}

// SetDefaults registers the default values relative to home.
func SetDefaults(home string) {
	viper.SetDefault("data_dir", filepath.Join(home, ".grove", "terminus"))
	viper.SetDefault("frecency.db", "")
	viper.SetDefault("telemetry.file", "")
	viper.SetDefault("telemetry.otel", false)
	viper.SetDefault("level", 1)
	viper.SetDefault("skip_intro", false)
	viper.SetDefault("tasks", "")
}

// Load resolves the settings. Empty file locations fall under data_dir.
func Load() Settings {
	s := Settings{
		DataDir:       viper.GetString("data_dir"),
		FrecencyDB:    viper.GetString("frecency.db"),
		TelemetryFile: viper.GetString("telemetry.file"),
		OTel:          viper.GetBool("telemetry.otel"),
	}
	if s.FrecencyDB == "" {
		s.FrecencyDB = filepath.Join(s.DataDir, "frecency.db")
	}
	if s.TelemetryFile == "" {
		s.TelemetryFile = filepath.Join(s.DataDir, "telemetry.jsonl")
	}
	return s
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/terminus/config.yaml)")
}
