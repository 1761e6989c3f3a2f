// Package run executes one complete simulation request: build, simulate,
// read the report and buckets, optionally render charts, then reset. The
// HTTP server, the MCP tools and the CLI all go through Runner.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/swipesim/internal/config"
	"github.com/nvandessel/swipesim/internal/constants"
	"github.com/nvandessel/swipesim/internal/logging"
	"github.com/nvandessel/swipesim/internal/plot"
	"github.com/nvandessel/swipesim/internal/simulation"
	"github.com/nvandessel/swipesim/internal/tracing"
)

// Spec is a fully resolved run request.
type Spec struct {
	Config simulation.Config
	Days   int
	Bins   int
	LabelA string
	LabelB string

	// Plots, when non-nil, renders both charts into Plots.Dir.
	Plots *PlotSpec
}

// PlotSpec says where and how large to render charts.
type PlotSpec struct {
	Dir    string
	Width  int
	Height int
}

// SpecFromConfig builds a Spec from loaded configuration. A nil seed in cfg
// draws a fresh one.
func SpecFromConfig(cfg *config.SwipesimConfig) Spec {
	spec := Spec{
		Config: simulation.FromSettings(cfg.Simulation),
		Days:   cfg.Simulation.Days,
		Bins:   cfg.Simulation.Bins,
		LabelA: cfg.Simulation.CohortA.Label,
		LabelB: cfg.Simulation.CohortB.Label,
	}
	if cfg.Plots.Enabled {
		spec.Plots = &PlotSpec{Dir: cfg.Plots.Dir, Width: cfg.Plots.Width, Height: cfg.Plots.Height}
	}
	return spec
}

// Result is what a run reports back.
type Result struct {
	RunID string `json:"run_id"`
	Seed  uint64 `json:"seed"`
	Days  int    `json:"days"`

	// Stats holds the eight summary values under "<label>_<metric>_<stat>" keys.
	Stats   map[string]float64             `json:"stats"`
	Report  simulation.Report              `json:"report"`
	Buckets map[string][]simulation.Bucket `json:"buckets"`
	Plots   *plot.Files                    `json:"plots,omitempty"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDayLogger records one line per simulated day.
func WithDayLogger(dl *logging.DayLogger) Option {
	return func(r *Runner) { r.dayLog = dl }
}

// WithIDFunc replaces the run ID generator.
func WithIDFunc(fn func() string) Option {
	return func(r *Runner) { r.newID = fn }
}

// WithVerify checks population invariants after every run.
func WithVerify(v bool) Option {
	return func(r *Runner) { r.verify = v }
}

// Runner executes Specs. It holds no per-run state and is safe for
// concurrent use.
type Runner struct {
	logger *slog.Logger
	dayLog *logging.DayLogger
	newID  func() string
	verify bool
}

// NewRunner creates a Runner with a discarding logger and random run IDs.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.New(slog.DiscardHandler),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes spec. Formula and configuration errors are returned before
// any simulation state exists.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Result, error) {
	if spec.Days < 0 {
		return nil, &simulation.ConfigurationError{Field: "day count", Value: spec.Days, Reason: "must be non-negative"}
	}
	if spec.Bins <= 0 {
		return nil, &simulation.ConfigurationError{Field: "bin count", Value: spec.Bins, Reason: "must be positive"}
	}
	if spec.LabelA == "" {
		spec.LabelA = constants.DefaultLabelA
	}
	if spec.LabelB == "" {
		spec.LabelB = constants.DefaultLabelB
	}
	if spec.LabelA == spec.LabelB {
		return nil, fmt.Errorf("cohort labels must differ, both are %q", spec.LabelA)
	}

	runID := r.newID()
	logger := r.logger.With("run_id", runID)

	ctx, span := tracing.StartSpan(ctx, "run.Run")
	defer span.End()
	span.SetAttributes(tracing.StringAttr("run_id", runID))

	start := time.Now()
	sim, err := simulation.New(spec.Config,
		simulation.WithLogger(logger),
		simulation.WithDayHook(func(d simulation.DayStats) {
			r.dayLog.Log(logging.DayEvent{
				RunID:       runID,
				Day:         d.Day,
				SwipesA:     d.SwipesA,
				SwipesB:     d.SwipesB,
				LikesGivenA: d.LikesGivenA,
				LikesGivenB: d.LikesGivenB,
				Matches:     d.Matches,
			})
		}),
	)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	if err := sim.Simulate(ctx, spec.Days); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if r.verify {
		if err := sim.Population().CheckInvariants(); err != nil {
			tracing.RecordError(span, err)
			return nil, fmt.Errorf("invariant check: %w", err)
		}
	}

	out, err := sim.Snapshot(spec.Bins)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	res := &Result{
		RunID:  runID,
		Seed:   spec.Config.Seed,
		Days:   out.Report.Days,
		Stats:  out.Report.Flat(spec.LabelA, spec.LabelB),
		Report: out.Report,
		Buckets: map[string][]simulation.Bucket{
			spec.LabelA: out.BucketsA,
			spec.LabelB: out.BucketsB,
		},
	}

	if spec.Plots != nil {
		files, err := plot.Render(ctx, sim, spec.Plots.Dir, runID, spec.Bins, plot.Options{
			Width:  spec.Plots.Width,
			Height: spec.Plots.Height,
			LabelA: spec.LabelA,
			LabelB: spec.LabelB,
		})
		if err != nil {
			tracing.RecordError(span, err)
			return nil, fmt.Errorf("rendering plots: %w", err)
		}
		res.Plots = &files
	}

	sim.ResetAll()

	logger.Info("run complete",
		"seed", spec.Config.Seed,
		"days", res.Days,
		"elapsed", time.Since(start).Round(time.Millisecond))
	tracing.SetOK(span)
	return res, nil
}
