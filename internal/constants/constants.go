// Package constants provides named defaults used throughout swipesim.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Population defaults
const (
	// DefaultSwipeBudget is the number of profiles an agent may view per day.
	DefaultSwipeBudget = 200

	// DefaultPopulationSizeA and DefaultPopulationSizeB are the cohort sizes
	// used when no configuration is given.
	DefaultPopulationSizeA = 1400
	DefaultPopulationSizeB = 600

	// DefaultFormulaA and DefaultFormulaB map attractiveness to the
	// probability of being liked.
	DefaultFormulaA = "x^5.67"
	DefaultFormulaB = "x^1.22"

	// DefaultLabelA and DefaultLabelB name the cohorts in flat report keys.
	DefaultLabelA = "men"
	DefaultLabelB = "women"
)

// Run defaults
const (
	// DefaultDays is the number of days simulated per run.
	DefaultDays = 1

	// DefaultBins is the number of attractiveness percentile buckets.
	DefaultBins = 10

	// MaxBins caps bucket counts accepted from untrusted input.
	MaxBins = 100

	// MaxDays caps the days accepted from untrusted input.
	MaxDays = 365

	// MaxPopulationSize caps cohort sizes accepted from untrusted input.
	MaxPopulationSize = 100_000
)

// Formula curve sampling
const (
	// CurveStep is the grid spacing for formula curves.
	CurveStep = 0.001

	// CurveStartA is where cohort A's curve starts. The first point is
	// skipped so formulas such as log(x) stay finite.
	CurveStartA = 0.001

	// CurveStartB is where cohort B's curve starts.
	CurveStartB = 0.0

	// DefaultCurvePoints is the sample count for curve queries.
	DefaultCurvePoints = 101

	// MaxCurvePoints caps curve queries from untrusted input.
	MaxCurvePoints = 10_000
)

// Plot defaults
const (
	DefaultPlotWidth  = 1200
	DefaultPlotHeight = 500
)
