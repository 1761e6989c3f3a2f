package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nvandessel/swipesim/internal/config"
	"github.com/nvandessel/swipesim/internal/constants"
	"github.com/nvandessel/swipesim/internal/run"
	"github.com/nvandessel/swipesim/internal/simulation"
)

// requestError reports a request value outside what the server accepts.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func requestErrorf(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// flexInt accepts a JSON integer or a string holding one, the way HTML
// form values arrive. null and "" leave it unset.
type flexInt struct {
	set bool
	v   int64
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || fv != math.Trunc(fv) || math.Abs(fv) > math.MaxInt32 {
			return requestErrorf("%q is not an integer", s)
		}
		n = int64(fv)
	}
	f.set, f.v = true, n
	return nil
}

func (f flexInt) or(def int) int {
	if !f.set {
		return def
	}
	return int(f.v)
}

// RunRequest is the body of POST /run_simulation. Cohort fields keep the
// front end's men_/women_ names for cohorts A and B. Missing fields take
// the server's configured defaults.
type RunRequest struct {
	MenUsers     flexInt `json:"men_users"`
	MenSwipes    flexInt `json:"men_swipes"`
	MenFormula   *string `json:"men_formula"`
	WomenUsers   flexInt `json:"women_users"`
	WomenSwipes  flexInt `json:"women_swipes"`
	WomenFormula *string `json:"women_formula"`

	Days  flexInt `json:"days"`
	Seed  flexInt `json:"seed"`
	Bins  flexInt `json:"bins"`
	Plots *bool   `json:"plots"`
}

// InputParams echoes the resolved request back to the client.
type InputParams struct {
	MenUsers     int    `json:"men_users"`
	MenSwipes    int    `json:"men_swipes"`
	MenFormula   string `json:"men_formula"`
	WomenUsers   int    `json:"women_users"`
	WomenSwipes  int    `json:"women_swipes"`
	WomenFormula string `json:"women_formula"`
	Days         int    `json:"days"`
	Seed         uint64 `json:"seed"`
	Bins         int    `json:"bins"`
}

// resolve fills defaults from cfg, enforces the server's size limits and
// returns the run spec. Formulas are compiled later by the runner.
func (req RunRequest) resolve(cfg *config.SwipesimConfig) (run.Spec, InputParams, error) {
	def := cfg.Simulation
	spec := run.SpecFromConfig(cfg)

	spec.Config.CohortA = simulation.CohortConfig{
		Size:        req.MenUsers.or(def.CohortA.PopulationSize),
		SwipeBudget: req.MenSwipes.or(def.CohortA.SwipeBudget),
		Formula:     strOr(req.MenFormula, def.CohortA.Formula),
	}
	spec.Config.CohortB = simulation.CohortConfig{
		Size:        req.WomenUsers.or(def.CohortB.PopulationSize),
		SwipeBudget: req.WomenSwipes.or(def.CohortB.SwipeBudget),
		Formula:     strOr(req.WomenFormula, def.CohortB.Formula),
	}
	spec.Days = req.Days.or(def.Days)
	spec.Bins = req.Bins.or(def.Bins)

	if req.Seed.set {
		if req.Seed.v < 0 {
			return run.Spec{}, InputParams{}, requestErrorf("seed must be non-negative, got %d", req.Seed.v)
		}
		spec.Config.Seed = uint64(req.Seed.v)
	}
	if req.Plots != nil && !*req.Plots {
		spec.Plots = nil
	}

	for _, c := range []struct {
		name string
		cc   simulation.CohortConfig
	}{{"men", spec.Config.CohortA}, {"women", spec.Config.CohortB}} {
		if c.cc.Size > constants.MaxPopulationSize {
			return run.Spec{}, InputParams{}, requestErrorf("%s_users must be at most %d, got %d", c.name, constants.MaxPopulationSize, c.cc.Size)
		}
		if c.cc.SwipeBudget > constants.MaxPopulationSize {
			return run.Spec{}, InputParams{}, requestErrorf("%s_swipes must be at most %d, got %d", c.name, constants.MaxPopulationSize, c.cc.SwipeBudget)
		}
	}
	if spec.Days < 1 || spec.Days > constants.MaxDays {
		return run.Spec{}, InputParams{}, requestErrorf("days must be between 1 and %d, got %d", constants.MaxDays, spec.Days)
	}
	if spec.Bins < 1 || spec.Bins > constants.MaxBins {
		return run.Spec{}, InputParams{}, requestErrorf("bins must be between 1 and %d, got %d", constants.MaxBins, spec.Bins)
	}

	params := InputParams{
		MenUsers:     spec.Config.CohortA.Size,
		MenSwipes:    spec.Config.CohortA.SwipeBudget,
		MenFormula:   spec.Config.CohortA.Formula,
		WomenUsers:   spec.Config.CohortB.Size,
		WomenSwipes:  spec.Config.CohortB.SwipeBudget,
		WomenFormula: spec.Config.CohortB.Formula,
		Days:         spec.Days,
		Seed:         spec.Config.Seed,
		Bins:         spec.Bins,
	}
	return spec, params, nil
}

func strOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
