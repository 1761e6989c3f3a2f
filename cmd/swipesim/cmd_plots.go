package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/swipesim/internal/plot"
)

func newPlotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plots",
		Short: "Inspect and prune rendered charts",
	}
	cmd.AddCommand(newPlotsListCmd(), newPlotsPruneCmd())
	return cmd
}

func newPlotsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List runs with charts in the plot directory, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			runs, err := plot.ListRuns(cfg.Plots.Dir)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				type entry struct {
					RunID   string    `json:"run_id"`
					Files   []string  `json:"files"`
					Bytes   int64     `json:"bytes"`
					ModTime time.Time `json:"mod_time"`
				}
				out := make([]entry, 0, len(runs))
				for _, r := range runs {
					out = append(out, entry{r.RunID, r.Paths, r.Size, r.ModTime})
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no charts in "+cfg.Plots.Dir))
				return nil
			}
			t := newTable("run", "files", "bytes", "written")
			for _, r := range runs {
				t.Row(r.RunID, strconv.Itoa(len(r.Paths)), strconv.FormatInt(r.Size, 10),
					r.ModTime.Format(time.DateTime))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func newPlotsPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete charts outside the retention limits",
		Long: `Delete the charts of runs that break the retention limits.

Limits come from plots.keep_runs and plots.max_age in the configuration,
overridden by --keep and --max-age. A run is kept only if it satisfies
every limit that is set.

Examples:
  swipesim plots prune --keep 20
  swipesim plots prune --max-age 7d --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("keep") {
				cfg.Plots.KeepRuns, _ = flags.GetInt("keep")
			}
			if flags.Changed("max-age") {
				cfg.Plots.MaxAge, _ = flags.GetString("max-age")
			}
			if cfg.Plots.KeepRuns < 0 {
				return fmt.Errorf("--keep must be non-negative, got %d", cfg.Plots.KeepRuns)
			}

			policy, err := plot.RetentionFromConfig(cfg.Plots)
			if err != nil {
				return err
			}
			if policy == nil {
				return fmt.Errorf("no retention limit set (use --keep or --max-age)")
			}

			var deleted []string
			dryRun, _ := flags.GetBool("dry-run")
			if dryRun {
				var expired []plot.RunCharts
				expired, err = plot.Expired(cfg.Plots.Dir, policy)
				for _, r := range expired {
					deleted = append(deleted, r.Paths...)
				}
			} else {
				deleted, err = plot.Prune(cfg.Plots.Dir, policy)
			}
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"dry_run": dryRun,
					"deleted": deleted,
				})
			}
			verb := "deleted"
			if dryRun {
				verb = "would delete"
			}
			for _, path := range deleted {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(verb+" "+filepath.Base(path)))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d file(s) in %s\n", verb, len(deleted), cfg.Plots.Dir)
			return nil
		},
	}

	cmd.Flags().Int("keep", 0, "Keep the charts of this many most recent runs")
	cmd.Flags().String("max-age", "", "Delete charts older than this (e.g. 48h, 7d, 2w)")
	cmd.Flags().Bool("dry-run", false, "List what would be deleted without deleting")
	return cmd
}
