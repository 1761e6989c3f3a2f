package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nvandessel/swipesim/internal/config"
	"github.com/nvandessel/swipesim/internal/constants"
	"github.com/nvandessel/swipesim/internal/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "swipesim",
		Short: "Two-sided swipe market simulator",
		Long: `swipesim simulates a dating market in which two cohorts swipe on each
other for a number of days, then reports how likes and matches are
distributed across each cohort and across attractiveness buckets.

The chance that an agent is liked is a formula of its attractiveness x,
given per cohort, for example x^5.67 or x^1.22.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if !constants.Format(output).Valid() {
				return fmt.Errorf("invalid --output %q (valid: %s, %s)", output, constants.FormatTable, constants.FormatJSON)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable.String(), "Output format: table or json")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (same as --output json)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.swipesim/config.yaml plus environment)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newFormulaCmd(),
		newConfigCmd(),
		newPlotsCmd(),
	)

	return rootCmd
}

// jsonOutput reports whether cmd should print JSON instead of tables.
func jsonOutput(cmd *cobra.Command) bool {
	if j, _ := cmd.Flags().GetBool("json"); j {
		return true
	}
	output, _ := cmd.Flags().GetString("output")
	return constants.Format(output) == constants.FormatJSON
}

// loadConfig reads --config when given, otherwise the default locations.
// An explicit file is used as is; environment overrides apply only to the
// default locations.
func loadConfig(cmd *cobra.Command) (*config.SwipesimConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.SwipesimConfig
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// newLogger builds the operational logger. Logs go to w so that stdout
// stays free for results and the MCP transport.
func newLogger(cfg *config.SwipesimConfig, w io.Writer) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, w)
}

// signalContext returns a context cancelled on interrupt or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
