package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/swipesim/internal/logging"
	"github.com/nvandessel/swipesim/internal/mcp"
	"github.com/nvandessel/swipesim/internal/run"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as an MCP server over stdio",
		Long: `Serve swipesim tools over the Model Context Protocol on stdin/stdout.

Tools:
  swipesim_run            run a simulation
  swipesim_formula_curve  sample a like-probability formula
  swipesim_formula_check  validate a formula

Every call is recorded in audit.jsonl in the log directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			dayLog := logging.NewDayLogger(cfg.Logging.Dir, cfg.Logging.Level)
			defer dayLog.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "swipesim",
				Version:  version,
				Settings: cfg,
				AuditDir: cfg.Logging.Dir,
				Logger:   logger,
				Runner:   run.NewRunner(run.WithLogger(logger), run.WithDayLogger(dayLog)),
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return server.Run(ctx)
		},
	}
}
