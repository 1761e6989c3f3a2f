package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/swipesim/internal/constants"
	"github.com/nvandessel/swipesim/internal/formula"
	"github.com/nvandessel/swipesim/internal/ratelimit"
	"github.com/nvandessel/swipesim/internal/run"
	"github.com/nvandessel/swipesim/internal/simulation"
)

// registerTools registers all swipesim MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "swipesim_run",
		Description: "Simulate a two-sided swipe market and report likes and matches per cohort and per attractiveness bucket",
	}, s.handleRun)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "swipesim_formula_curve",
		Description: "Sample a like-probability formula on [0, 1]",
	}, s.handleFormulaCurve)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "swipesim_formula_check",
		Description: "Validate a like-probability formula and report the error position if it does not compile",
	}, s.handleFormulaCheck)
}

func (s *Server) handleRun(ctx context.Context, req *sdk.CallToolRequest, args RunInput) (_ *sdk.CallToolResult, _ RunOutput, retErr error) {
	start := time.Now()
	var runID string
	defer func() {
		s.auditTool("swipesim_run", start, retErr, runID, sanitizeToolParams(map[string]any{
			"men_users": args.MenUsers, "men_swipes": args.MenSwipes, "men_formula": args.MenFormula,
			"women_users": args.WomenUsers, "women_swipes": args.WomenSwipes, "women_formula": args.WomenFormula,
			"days": args.Days, "seed": args.Seed, "bins": args.Bins,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "swipesim_run"); err != nil {
		return nil, RunOutput{}, err
	}

	spec, err := s.resolveRun(args)
	if err != nil {
		return nil, RunOutput{}, err
	}

	res, err := s.runner.Run(ctx, spec)
	if err != nil {
		return nil, RunOutput{}, describe(err)
	}
	runID = res.RunID

	return nil, RunOutput{
		RunID:   res.RunID,
		Seed:    res.Seed,
		Days:    res.Days,
		Stats:   res.Stats,
		Report:  res.Report,
		Buckets: res.Buckets,
		Plots:   res.Plots,
	}, nil
}

// resolveRun applies args over the configured defaults. Charts are not
// rendered for tool calls.
func (s *Server) resolveRun(args RunInput) (run.Spec, error) {
	spec := run.SpecFromConfig(s.settings)
	spec.Plots = nil

	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&spec.Config.CohortA.Size, args.MenUsers)
	set(&spec.Config.CohortA.SwipeBudget, args.MenSwipes)
	set(&spec.Config.CohortB.Size, args.WomenUsers)
	set(&spec.Config.CohortB.SwipeBudget, args.WomenSwipes)
	set(&spec.Days, args.Days)
	set(&spec.Bins, args.Bins)
	if args.MenFormula != nil {
		spec.Config.CohortA.Formula = *args.MenFormula
	}
	if args.WomenFormula != nil {
		spec.Config.CohortB.Formula = *args.WomenFormula
	}
	if args.Seed != nil {
		spec.Config.Seed = *args.Seed
	}

	for _, c := range []simulation.CohortConfig{spec.Config.CohortA, spec.Config.CohortB} {
		if c.Size > constants.MaxPopulationSize || c.SwipeBudget > constants.MaxPopulationSize {
			return run.Spec{}, fmt.Errorf("population size and swipe budget must be at most %d", constants.MaxPopulationSize)
		}
	}
	if spec.Days < 1 || spec.Days > constants.MaxDays {
		return run.Spec{}, fmt.Errorf("days must be between 1 and %d, got %d", constants.MaxDays, spec.Days)
	}
	if spec.Bins < 1 || spec.Bins > constants.MaxBins {
		return run.Spec{}, fmt.Errorf("bins must be between 1 and %d, got %d", constants.MaxBins, spec.Bins)
	}
	return spec, nil
}

func (s *Server) handleFormulaCurve(ctx context.Context, req *sdk.CallToolRequest, args CurveInput) (_ *sdk.CallToolResult, _ CurveOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("swipesim_formula_curve", start, retErr, "", sanitizeToolParams(map[string]any{
			"formula": args.Formula, "points": args.Points,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "swipesim_formula_curve"); err != nil {
		return nil, CurveOutput{}, err
	}

	points := args.Points
	if points == 0 {
		points = constants.DefaultCurvePoints
	}
	if points < 2 || points > constants.MaxCurvePoints {
		return nil, CurveOutput{}, fmt.Errorf("points must be between 2 and %d, got %d", constants.MaxCurvePoints, points)
	}

	f, err := formula.Compile(args.Formula)
	if err != nil {
		return nil, CurveOutput{}, describe(err)
	}

	out := CurveOutput{
		Normalized: f.String(),
		Points:     make([]CurveSample, 0, points),
		Min:        math.Inf(1),
		Max:        math.Inf(-1),
	}
	for _, p := range f.Linspace(0, 1, points) {
		sample := CurveSample{X: p.X}
		if !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) {
			y := p.Y
			sample.Y = &y
			out.Min = math.Min(out.Min, y)
			out.Max = math.Max(out.Max, y)
			if y < 0 || y > 1 {
				out.OutOfRange++
			}
		}
		out.Points = append(out.Points, sample)
	}
	if math.IsInf(out.Min, 1) {
		out.Min, out.Max = 0, 0
	}
	return nil, out, nil
}

func (s *Server) handleFormulaCheck(ctx context.Context, req *sdk.CallToolRequest, args CheckInput) (_ *sdk.CallToolResult, _ CheckOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("swipesim_formula_check", start, retErr, "", sanitizeToolParams(map[string]any{
			"formula": args.Formula,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "swipesim_formula_check"); err != nil {
		return nil, CheckOutput{}, err
	}

	f, err := formula.Compile(args.Formula)
	if err != nil {
		var fe *formula.FormulaError
		if errors.As(err, &fe) {
			return nil, CheckOutput{Valid: false, Error: fe.Msg, Position: fe.Pos}, nil
		}
		return nil, CheckOutput{}, err
	}
	return nil, CheckOutput{Valid: true, Normalized: f.String()}, nil
}

// describe adds the supported syntax to formula errors so a client can
// correct its call.
func describe(err error) error {
	var fe *formula.FormulaError
	if errors.As(err, &fe) {
		return fmt.Errorf("%w (operators: + - * / ^ **, functions: %v, constants: pi e)", err, formula.Functions())
	}
	return err
}
