// Package simulation runs a two-sided swipe market.
//
// Two cohorts of agents are drawn once per run. Each agent gets an
// attractiveness score from Uniform(0,1) and an attractiveness rate computed
// by its own cohort's formula: the probability that any opposite-cohort
// agent who views it will like it. Every simulated day each agent samples up
// to its remaining swipes from the opposite cohort without replacement,
// spends one swipe per view, and likes the viewed agent with probability
// equal to the target's rate. Mutual likes are matches.
//
// Agents live in a flat arena and refer to each other by index, so like
// sets iterate deterministically and a fixed seed reproduces a run exactly.
//
// Usage:
//
//	sim, err := simulation.New(simulation.Config{
//	    Seed:    42,
//	    CohortA: simulation.CohortConfig{Size: 1400, SwipeBudget: 200, Formula: "x^5.67"},
//	    CohortB: simulation.CohortConfig{Size: 600, SwipeBudget: 200, Formula: "x^1.22"},
//	})
//	if err != nil {
//	    return err
//	}
//	if err := sim.Simulate(ctx, 1); err != nil {
//	    return err
//	}
//	buckets, _ := sim.Buckets(simulation.CohortA, 10)
//	report := sim.CollectAndReset()
package simulation
