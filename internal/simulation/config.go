package simulation

import (
	"math/rand/v2"

	"github.com/nvandessel/swipesim/internal/config"
)

// FromSettings converts the file/env simulation section into a run Config.
// A nil seed in sc draws a fresh one, so the returned Config always records
// the seed that reproduces the run.
func FromSettings(sc config.SimulationConfig) Config {
	seed := rand.Uint64()
	if sc.Seed != nil {
		seed = *sc.Seed
	}
	return Config{
		Seed:    seed,
		CohortA: cohortFromSettings(sc.CohortA),
		CohortB: cohortFromSettings(sc.CohortB),
		Boundary: DayBoundary{
			ReplenishSwipes: sc.ReplenishSwipesDaily,
			ClearLikes:      sc.ClearLikesDaily,
		},
		Workers: sc.Workers,
	}
}

func cohortFromSettings(c config.CohortConfig) CohortConfig {
	return CohortConfig{
		Size:        c.PopulationSize,
		SwipeBudget: c.SwipeBudget,
		Formula:     c.Formula,
	}
}
