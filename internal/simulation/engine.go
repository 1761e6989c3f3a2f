package simulation

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/sourcegraph/conc/pool"
)

// DayBoundary controls what happens between consecutive days of one
// engine. The zero value carries swipes and likes over unchanged, so a
// budget is consumed once across a multi-day run and likes accumulate.
type DayBoundary struct {
	// ReplenishSwipes restores every agent's full budget before each day
	// after the first.
	ReplenishSwipes bool `json:"replenish_swipes" yaml:"replenish_swipes_daily"`

	// ClearLikes empties like sets and counters before each day after the
	// first.
	ClearLikes bool `json:"clear_likes" yaml:"clear_likes_daily"`
}

// DayStats summarizes one simulated day. LikesGivenA and LikesGivenB count
// likes new that day; liking an already-liked agent again adds nothing.
type DayStats struct {
	Day         int `json:"day"`
	SwipesA     int `json:"swipes_a"`
	SwipesB     int `json:"swipes_b"`
	LikesGivenA int `json:"likes_given_a"`
	LikesGivenB int `json:"likes_given_b"`
	Matches     int `json:"matches"` // mutual pairs across the population
}

// Engine executes simulated days against a population. An engine is not
// safe for concurrent use; Workers only parallelizes work inside a day.
type Engine struct {
	pop      *Population
	rng      *rand.Rand
	boundary DayBoundary
	workers  int
	days     int
	logger   *slog.Logger
	onDay    func(DayStats)
}

// NewEngine creates an engine drawing from rng. workers <= 1 runs each day
// sequentially on rng; larger values decide in parallel on per-agent
// streams seeded from rng.
func NewEngine(pop *Population, rng *rand.Rand, boundary DayBoundary, workers int) *Engine {
	return &Engine{
		pop:      pop,
		rng:      rng,
		boundary: boundary,
		workers:  workers,
		logger:   slog.New(slog.DiscardHandler),
	}
}

// Days returns the number of days simulated so far.
func (e *Engine) Days() int { return e.days }

// Run simulates days consecutive days. The context is checked between
// days only; a started day always completes.
func (e *Engine) Run(ctx context.Context, days int) error {
	for d := 0; d < days; d++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.RunDay()
	}
	return nil
}

// RunDay simulates one day: cohort A swipes, then cohort B, then every
// agent's counters are recomputed.
func (e *Engine) RunDay() DayStats {
	if e.days > 0 {
		e.applyBoundary()
	}

	stats := DayStats{Day: e.days + 1}
	for _, c := range Cohorts {
		var swipes, likes int
		if e.workers > 1 {
			swipes, likes = e.swipeCohortParallel(c)
		} else {
			swipes, likes = e.swipeCohort(c)
		}
		if c == CohortA {
			stats.SwipesA, stats.LikesGivenA = swipes, likes
		} else {
			stats.SwipesB, stats.LikesGivenB = swipes, likes
		}
	}
	e.pop.RecomputeStats()

	matches := 0
	for _, a := range e.pop.members(CohortA) {
		matches += a.numMatches
	}
	stats.Matches = matches
	e.days++

	e.logger.Debug("simulated day",
		"day", stats.Day,
		"swipes_a", stats.SwipesA,
		"swipes_b", stats.SwipesB,
		"likes_a", stats.LikesGivenA,
		"likes_b", stats.LikesGivenB,
		"matches", stats.Matches)
	if e.onDay != nil {
		e.onDay(stats)
	}
	return stats
}

func (e *Engine) applyBoundary() {
	if !e.boundary.ReplenishSwipes && !e.boundary.ClearLikes {
		return
	}
	for i := range e.pop.agents {
		a := &e.pop.agents[i]
		if e.boundary.ReplenishSwipes {
			a.remaining = a.SwipeBudget
		}
		if e.boundary.ClearLikes {
			a.clearLikes()
		}
	}
}

// swipeCohort runs one cohort's day on the engine's stream. Per agent the
// candidate sample is drawn in one batch, then one uniform per view.
func (e *Engine) swipeCohort(c Cohort) (swipes, likes int) {
	swipers := e.pop.members(c)
	candidates := e.pop.members(c.Opposite())
	buf := make([]int, len(candidates))

	for i := range swipers {
		a := &swipers[i]
		k := min(a.remaining, len(candidates))
		if k <= 0 {
			continue
		}
		for _, t := range sampleIndices(e.rng, buf, k) {
			if !a.spendSwipe() {
				break
			}
			swipes++
			target := &candidates[t]
			if e.rng.Float64() < target.Rate {
				if !a.Likes(target.ID) {
					likes++
				}
				a.Like(target)
			}
		}
	}
	return swipes, likes
}

// decision is the outcome of one agent's day before any state changes.
type decision struct {
	views int
	liked []int // candidate offsets, in viewing order
}

// swipeCohortParallel decides every agent's day concurrently and then
// applies all swipes and likes in a single pass in agent order. The result
// depends only on the engine's stream, not on goroutine scheduling.
func (e *Engine) swipeCohortParallel(c Cohort) (swipes, likes int) {
	swipers := e.pop.members(c)
	candidates := e.pop.members(c.Opposite())

	seeds := make([]uint64, len(swipers))
	for i := range seeds {
		seeds[i] = e.rng.Uint64()
	}

	decisions := make([]decision, len(swipers))
	p := pool.New().WithMaxGoroutines(e.workers)
	for i := range swipers {
		k := min(swipers[i].remaining, len(candidates))
		if k <= 0 {
			continue
		}
		p.Go(func() {
			rng := rand.New(rand.NewPCG(seeds[i], uint64(swipers[i].ID)))
			buf := make([]int, len(candidates))
			d := decision{views: k}
			for _, t := range sampleIndices(rng, buf, k) {
				if rng.Float64() < candidates[t].Rate {
					d.liked = append(d.liked, t)
				}
			}
			decisions[i] = d
		})
	}
	p.Wait()

	for i, d := range decisions {
		a := &swipers[i]
		a.remaining -= d.views
		swipes += d.views
		for _, t := range d.liked {
			target := &candidates[t]
			if !a.Likes(target.ID) {
				likes++
			}
			a.Like(target)
		}
	}
	return swipes, likes
}

// sampleIndices draws k distinct indices from [0, len(buf)) uniformly
// without replacement using a partial Fisher-Yates shuffle over buf.
func sampleIndices(rng *rand.Rand, buf []int, k int) []int {
	n := len(buf)
	for i := range buf {
		buf[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:k]
}
