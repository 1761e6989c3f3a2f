package simulation

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/nvandessel/swipesim/internal/formula"
	"github.com/nvandessel/swipesim/internal/tracing"
)

// streamKey is the fixed second word of the PCG state, so that a run is
// fully determined by Config.Seed.
const streamKey = 0x9e3779b97f4a7c15

// Config holds everything that determines a run.
type Config struct {
	Seed     uint64       `json:"seed"`
	CohortA  CohortConfig `json:"cohort_a"`
	CohortB  CohortConfig `json:"cohort_b"`
	Boundary DayBoundary  `json:"boundary"`
	Workers  int          `json:"workers,omitempty"`
}

// Report is the outcome of a run for both cohorts.
type Report struct {
	Days int           `json:"days"`
	A    CohortSummary `json:"a"`
	B    CohortSummary `json:"b"`
}

// Cohort returns the summary of cohort c.
func (r Report) Cohort(c Cohort) CohortSummary {
	if c == CohortB {
		return r.B
	}
	return r.A
}

// Flat returns the eight summary values keyed as
// "<label>_{likes,matches}_{mean,median}", labelA and labelB naming the
// cohorts (the browser front end uses "men" and "women").
func (r Report) Flat(labelA, labelB string) map[string]float64 {
	out := make(map[string]float64, 8)
	for _, e := range []struct {
		label string
		s     CohortSummary
	}{{labelA, r.A}, {labelB, r.B}} {
		out[e.label+"_likes_mean"] = e.s.LikesMean
		out[e.label+"_likes_median"] = e.s.LikesMedian
		out[e.label+"_matches_mean"] = e.s.MatchesMean
		out[e.label+"_matches_median"] = e.s.MatchesMedian
	}
	return out
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger used for run and day events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDayHook registers fn to be called after every simulated day.
func WithDayHook(fn func(DayStats)) Option {
	return func(s *Simulation) { s.onDay = fn }
}

// Simulation ties a population to its engine and exposes the read and
// reset operations the outer layers use.
type Simulation struct {
	cfg    Config
	pop    *Population
	engine *Engine
	logger *slog.Logger
	onDay  func(DayStats)
}

// New builds the population for cfg. Formula errors and configuration
// errors are returned before any agent exists.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	s := &Simulation{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, streamKey))
	pop, err := NewPopulation(cfg.CohortA, cfg.CohortB, rng)
	if err != nil {
		return nil, err
	}
	s.pop = pop
	s.engine = NewEngine(pop, rng, cfg.Boundary, cfg.Workers)
	s.engine.logger = s.logger
	s.engine.onDay = s.onDay

	s.logger.Debug("population built",
		"seed", cfg.Seed,
		"size_a", pop.size(CohortA),
		"size_b", pop.size(CohortB),
		"formula_a", cfg.CohortA.Formula,
		"formula_b", cfg.CohortB.Formula)
	return s, nil
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() Config { return s.cfg }

// Population returns the agent arena.
func (s *Simulation) Population() *Population { return s.pop }

// Days returns the number of days simulated since construction.
func (s *Simulation) Days() int { return s.engine.Days() }

// Simulate runs days consecutive days.
func (s *Simulation) Simulate(ctx context.Context, days int) error {
	ctx, span := tracing.StartSpan(ctx, "simulation.Simulate")
	defer span.End()
	span.SetAttributes(
		tracing.IntAttr("days", days),
		tracing.IntAttr("size_a", s.pop.size(CohortA)),
		tracing.IntAttr("size_b", s.pop.size(CohortB)),
	)

	if err := s.engine.Run(ctx, days); err != nil {
		tracing.RecordError(span, err)
		return err
	}
	tracing.SetOK(span)
	s.logger.Info("simulation complete", "days", s.engine.Days())
	return nil
}

// Summarize reports both cohorts' current statistics without changing
// any state. Calling it twice returns the same report.
func (s *Simulation) Summarize() Report {
	return Report{
		Days: s.engine.Days(),
		A:    Summarize(CohortA, s.pop.members(CohortA)),
		B:    Summarize(CohortB, s.pop.members(CohortB)),
	}
}

// ResetAll clears every agent's daily state and restores budgets.
func (s *Simulation) ResetAll() {
	s.pop.ResetAll()
}

// CollectAndReset returns Summarize and then calls ResetAll, matching the
// read-then-reset report cycle of the web front end. A second call returns
// all-zero summaries.
func (s *Simulation) CollectAndReset() Report {
	r := s.Summarize()
	s.ResetAll()
	return r
}

// Buckets groups cohort c by attractiveness into nBins buckets.
func (s *Simulation) Buckets(c Cohort, nBins int) ([]Bucket, error) {
	members, err := s.pop.Members(c)
	if err != nil {
		return nil, err
	}
	return BucketByAttractiveness(members, nBins)
}

// Outcome is a report together with both cohorts' attractiveness buckets.
type Outcome struct {
	Report   Report   `json:"report"`
	BucketsA []Bucket `json:"buckets_a"`
	BucketsB []Bucket `json:"buckets_b"`
}

// Snapshot reads the report and nBins buckets per cohort without changing
// any state.
func (s *Simulation) Snapshot(nBins int) (Outcome, error) {
	a, err := s.Buckets(CohortA, nBins)
	if err != nil {
		return Outcome{}, err
	}
	b, err := s.Buckets(CohortB, nBins)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Report: s.Summarize(), BucketsA: a, BucketsB: b}, nil
}

// Formula returns the compiled formula of cohort c.
func (s *Simulation) Formula(c Cohort) (*formula.Formula, error) {
	return s.pop.Formula(c)
}
