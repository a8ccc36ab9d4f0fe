// Package cmd holds the oltd command tree: serve runs the HTTP API daemon,
// run executes commands against a single device and prints the result, and
// classify reprocesses captured output offline.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"oltd/internal/config"
	"oltd/internal/log"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "oltd",
	Short: "Telnet session daemon for OLT devices",
	Long: `oltd speaks the line-oriented telnet dialect of OLT network devices:
login exchanges, privilege escalation, --More-- pagination and prompt
detection, with command output classified into tables and records.

serve exposes the session engine over an HTTP API; run is the one-shot
mode for scripts and debugging.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo fills the version string shown by --version.
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
}

// loadConfig reads the --config file (or the defaults) and initializes the
// process logger from it.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if _, err := log.Setup(log.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Source: cfg.Log.Source,
	}); err != nil {
		return nil, fmt.Errorf("logging setup: %w", err)
	}
	return cfg, nil
}
