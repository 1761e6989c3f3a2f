package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/swipesim/internal/api"
	"github.com/nvandessel/swipesim/internal/logging"
	"github.com/nvandessel/swipesim/internal/run"
	"github.com/nvandessel/swipesim/internal/tracing"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation over HTTP",
		Long: `Start the HTTP front end.

Routes:
  GET  /health                 liveness and version
  POST /run_simulation         run a simulation; JSON body with men_users,
                               men_swipes, men_formula, women_users,
                               women_swipes, women_formula, days, seed, bins
  GET  /plots/{name}           rendered charts
  GET  /api/formula/curve      sample a formula (?formula=x^2&points=101)
  GET  /api/formula/functions  functions allowed in formulas

Fields missing from a request use the configured defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if noPlots, _ := cmd.Flags().GetBool("no-plots"); noPlots {
				cfg.Plots.Enabled = false
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			shutdown, err := tracing.Setup(ctx, cfg.Tracing, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to set up tracing: %w", err)
			}
			defer shutdown(cmd.Context())

			logger := newLogger(cfg, cmd.ErrOrStderr())
			dayLog := logging.NewDayLogger(cfg.Logging.Dir, cfg.Logging.Level)
			defer dayLog.Close()

			srv := api.NewServer(cfg,
				api.WithLogger(logger),
				api.WithVersion(version),
				api.WithRunner(run.NewRunner(run.WithLogger(logger), run.WithDayLogger(dayLog))),
			)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides config)")
	cmd.Flags().Bool("no-plots", false, "Do not render charts for requests")

	return cmd
}
