package mcp

import (
	"github.com/nvandessel/swipesim/internal/plot"
	"github.com/nvandessel/swipesim/internal/simulation"
)

// RunInput defines the input for the swipesim_run tool. Omitted fields use
// the configured defaults.
type RunInput struct {
	MenUsers     *int    `json:"men_users,omitempty" jsonschema:"Number of agents in cohort A"`
	MenSwipes    *int    `json:"men_swipes,omitempty" jsonschema:"Daily swipe budget of each cohort A agent"`
	MenFormula   *string `json:"men_formula,omitempty" jsonschema:"Like probability of a cohort A agent as a function of attractiveness x, e.g. x^5.67"`
	WomenUsers   *int    `json:"women_users,omitempty" jsonschema:"Number of agents in cohort B"`
	WomenSwipes  *int    `json:"women_swipes,omitempty" jsonschema:"Daily swipe budget of each cohort B agent"`
	WomenFormula *string `json:"women_formula,omitempty" jsonschema:"Like probability of a cohort B agent as a function of attractiveness x, e.g. x^1.22"`
	Days         *int    `json:"days,omitempty" jsonschema:"Number of consecutive days to simulate (default 1)"`
	Seed         *uint64 `json:"seed,omitempty" jsonschema:"Random seed; the same seed and inputs reproduce the same result"`
	Bins         *int    `json:"bins,omitempty" jsonschema:"Number of attractiveness buckets in the result (default 10)"`
}

// RunOutput defines the output for the swipesim_run tool.
type RunOutput struct {
	RunID   string                         `json:"run_id" jsonschema:"Identifier of this run"`
	Seed    uint64                         `json:"seed" jsonschema:"Seed that reproduces this run"`
	Days    int                            `json:"days" jsonschema:"Days simulated"`
	Stats   map[string]float64             `json:"stats" jsonschema:"Mean and median likes and matches per cohort, keyed <label>_<metric>_<stat>"`
	Report  simulation.Report              `json:"report" jsonschema:"Per-cohort summaries"`
	Buckets map[string][]simulation.Bucket `json:"buckets" jsonschema:"Mean likes and matches per attractiveness bucket, keyed by cohort label"`
	Plots   *plot.Files                    `json:"plots,omitempty" jsonschema:"Chart file names in the configured plot directory"`
}

// CurveInput defines the input for the swipesim_formula_curve tool.
type CurveInput struct {
	Formula string `json:"formula" jsonschema:"Formula in x to sample"`
	Points  int    `json:"points,omitempty" jsonschema:"Number of evenly spaced samples on [0, 1] (default 101)"`
}

// CurveSample is one sample of a formula. Y is omitted where the formula
// is not finite.
type CurveSample struct {
	X float64  `json:"x"`
	Y *float64 `json:"y,omitempty"`
}

// CurveOutput defines the output for the swipesim_formula_curve tool.
type CurveOutput struct {
	Normalized string        `json:"normalized" jsonschema:"Fully parenthesized form of the formula"`
	Points     []CurveSample `json:"points" jsonschema:"Samples of the formula"`
	Min        float64       `json:"min" jsonschema:"Smallest finite sample"`
	Max        float64       `json:"max" jsonschema:"Largest finite sample"`
	OutOfRange int           `json:"out_of_range" jsonschema:"Samples outside [0, 1]; these behave as never (below 0) or always (above 1) liked"`
}

// CheckInput defines the input for the swipesim_formula_check tool.
type CheckInput struct {
	Formula string `json:"formula" jsonschema:"Formula in x to validate"`
}

// CheckOutput defines the output for the swipesim_formula_check tool.
type CheckOutput struct {
	Valid      bool   `json:"valid" jsonschema:"Whether the formula compiles"`
	Normalized string `json:"normalized,omitempty" jsonschema:"Fully parenthesized form of a valid formula"`
	Error      string `json:"error,omitempty" jsonschema:"Why the formula is invalid"`
	Position   int    `json:"position,omitempty" jsonschema:"Byte offset of the error in the formula"`
}
