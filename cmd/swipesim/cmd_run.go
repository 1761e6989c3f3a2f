package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/swipesim/internal/config"
	"github.com/nvandessel/swipesim/internal/logging"
	"github.com/nvandessel/swipesim/internal/run"
	"github.com/nvandessel/swipesim/internal/tracing"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and report likes and matches",
		Long: `Run a simulation with the configured defaults, overridden by flags.

Both cohorts are populated, every agent swipes through its daily budget
for the given number of days, and the mean and median likes and matches
are reported per cohort and per attractiveness bucket. Charts of both
formulas and of the bucket distribution are written to the plot
directory unless --no-plots is given.

Examples:
  swipesim run
  swipesim run --days 7 --seed 42 --replenish-swipes
  swipesim run --formula-a "x^2" --formula-b "sqrt(x)" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
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

			dayLog := logging.NewDayLogger(cfg.Logging.Dir, cfg.Logging.Level)
			defer dayLog.Close()

			verify, _ := cmd.Flags().GetBool("verify")
			runner := run.NewRunner(
				run.WithLogger(newLogger(cfg, cmd.ErrOrStderr())),
				run.WithDayLogger(dayLog),
				run.WithVerify(verify),
			)

			spec := run.SpecFromConfig(cfg)
			res, err := runner.Run(ctx, spec)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(cmd.OutOrStdout(), res, spec)
			return nil
		},
	}

	cmd.Flags().Int("size-a", 0, "Number of agents in cohort A")
	cmd.Flags().Int("size-b", 0, "Number of agents in cohort B")
	cmd.Flags().Int("swipes-a", 0, "Daily swipe budget of each cohort A agent")
	cmd.Flags().Int("swipes-b", 0, "Daily swipe budget of each cohort B agent")
	cmd.Flags().String("formula-a", "", "Like probability of cohort A agents as a formula of x")
	cmd.Flags().String("formula-b", "", "Like probability of cohort B agents as a formula of x")
	cmd.Flags().String("label-a", "", "Name of cohort A in reports")
	cmd.Flags().String("label-b", "", "Name of cohort B in reports")
	cmd.Flags().Int("days", 0, "Number of days to simulate")
	cmd.Flags().Uint64("seed", 0, "Random seed (default: fresh per run)")
	cmd.Flags().Int("bins", 0, "Number of attractiveness buckets")
	cmd.Flags().Int("workers", 0, "Decide each day with this many goroutines (results stay deterministic per seed)")
	cmd.Flags().Bool("replenish-swipes", false, "Restore swipe budgets between days")
	cmd.Flags().Bool("clear-likes", false, "Forget likes between days")
	cmd.Flags().String("plots", "", "Write charts to this directory")
	cmd.Flags().Bool("no-plots", false, "Do not write charts")
	cmd.Flags().Bool("verify", false, "Check population invariants after the run")

	return cmd
}

// applyRunFlags overrides cfg with every flag the user set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.SwipesimConfig) error {
	flags := cmd.Flags()
	sim := &cfg.Simulation

	ints := map[string]*int{
		"size-a":   &sim.CohortA.PopulationSize,
		"size-b":   &sim.CohortB.PopulationSize,
		"swipes-a": &sim.CohortA.SwipeBudget,
		"swipes-b": &sim.CohortB.SwipeBudget,
		"days":     &sim.Days,
		"bins":     &sim.Bins,
		"workers":  &sim.Workers,
	}
	for name, dst := range ints {
		if flags.Changed(name) {
			v, err := flags.GetInt(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	strs := map[string]*string{
		"formula-a": &sim.CohortA.Formula,
		"formula-b": &sim.CohortB.Formula,
		"label-a":   &sim.CohortA.Label,
		"label-b":   &sim.CohortB.Label,
	}
	for name, dst := range strs {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = v
		}
	}

	if flags.Changed("seed") {
		seed, err := flags.GetUint64("seed")
		if err != nil {
			return err
		}
		sim.Seed = &seed
	}
	if flags.Changed("replenish-swipes") {
		sim.ReplenishSwipesDaily, _ = flags.GetBool("replenish-swipes")
	}
	if flags.Changed("clear-likes") {
		sim.ClearLikesDaily, _ = flags.GetBool("clear-likes")
	}

	if dir, _ := flags.GetString("plots"); dir != "" {
		cfg.Plots.Enabled = true
		cfg.Plots.Dir = dir
	}
	if noPlots, _ := flags.GetBool("no-plots"); noPlots {
		cfg.Plots.Enabled = false
	}
	return nil
}
