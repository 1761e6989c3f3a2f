package simulation

import (
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/swipesim/internal/formula"
)

// CohortConfig describes one cohort of a run.
type CohortConfig struct {
	Size        int    `json:"population_size" yaml:"population_size"`
	SwipeBudget int    `json:"swipe_budget" yaml:"swipe_budget"`
	Formula     string `json:"formula" yaml:"formula"`
}

// Validate rejects negative sizes and budgets.
func (c CohortConfig) Validate() error {
	if c.Size < 0 {
		return &ConfigurationError{Field: "population size", Value: c.Size, Reason: "must be non-negative"}
	}
	if c.SwipeBudget < 0 {
		return &ConfigurationError{Field: "swipe budget", Value: c.SwipeBudget, Reason: "must be non-negative"}
	}
	return nil
}

type span struct{ start, n int }

// Population is the agent arena for one run. Cohort A occupies IDs
// [0, sizeA) and cohort B occupies [sizeA, sizeA+sizeB). Membership never
// changes after construction.
type Population struct {
	agents   []Agent
	spans    [2]span
	formulas [2]*formula.Formula
}

// NewPopulation compiles both formulas, validates both cohorts and then
// draws every agent's score from rng, cohort A first. No agent is created
// unless both formulas compile.
func NewPopulation(a, b CohortConfig, rng *rand.Rand) (*Population, error) {
	cfgs := [2]CohortConfig{a, b}

	var formulas [2]*formula.Formula
	for i, c := range cfgs {
		f, err := formula.Compile(c.Formula)
		if err != nil {
			return nil, fmt.Errorf("cohort %s: %w", Cohorts[i], err)
		}
		formulas[i] = f
	}
	for i, c := range cfgs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("cohort %s: %w", Cohorts[i], err)
		}
	}

	p := &Population{
		agents:   make([]Agent, 0, a.Size+b.Size),
		formulas: formulas,
	}
	for i, c := range cfgs {
		cohort := Cohorts[i]
		p.spans[i] = span{start: len(p.agents), n: c.Size}
		for j := 0; j < c.Size; j++ {
			score := rng.Float64()
			rate := formulas[i].Eval(score)
			p.agents = append(p.agents, newAgent(len(p.agents), cohort, score, rate, c.SwipeBudget))
		}
	}
	return p, nil
}

// Members returns the agents of cohort c as a view into the arena.
func (p *Population) Members(c Cohort) ([]Agent, error) {
	if err := checkCohort(c); err != nil {
		return nil, err
	}
	return p.members(c), nil
}

func (p *Population) members(c Cohort) []Agent {
	s := p.spans[c.index()]
	return p.agents[s.start : s.start+s.n]
}

// Size returns the number of agents in cohort c.
func (p *Population) Size(c Cohort) (int, error) {
	if err := checkCohort(c); err != nil {
		return 0, err
	}
	return p.size(c), nil
}

func (p *Population) size(c Cohort) int { return p.spans[c.index()].n }

// Len returns the total number of agents.
func (p *Population) Len() int { return len(p.agents) }

// Agent returns the agent with the given ID, or nil if out of range.
func (p *Population) Agent(id int) *Agent {
	if id < 0 || id >= len(p.agents) {
		return nil
	}
	return &p.agents[id]
}

// All returns every agent, cohort A first.
func (p *Population) All() []Agent { return p.agents }

// Formula returns the compiled formula of cohort c.
func (p *Population) Formula(c Cohort) (*formula.Formula, error) {
	if err := checkCohort(c); err != nil {
		return nil, err
	}
	return p.formulas[c.index()], nil
}

// RecomputeStats refreshes every agent's counters.
func (p *Population) RecomputeStats() {
	for i := range p.agents {
		p.agents[i].RecomputeStats()
	}
}

// ResetAll resets every agent's daily state.
func (p *Population) ResetAll() {
	for i := range p.agents {
		p.agents[i].Reset()
	}
}

// CheckInvariants verifies swipe bounds, cohort separation of like sets,
// like conservation and match symmetry. It returns the first violation.
func (p *Population) CheckInvariants() error {
	given, received := 0, 0
	for i := range p.agents {
		a := &p.agents[i]
		if a.remaining < 0 || a.remaining > a.SwipeBudget {
			return fmt.Errorf("agent %d: remaining swipes %d outside [0, %d]", a.ID, a.remaining, a.SwipeBudget)
		}
		for id := range a.given {
			b := p.Agent(id)
			if b == nil || b.Cohort == a.Cohort {
				return fmt.Errorf("agent %d: liked non-opposite agent %d", a.ID, id)
			}
			if !b.LikedBy(a.ID) {
				return fmt.Errorf("agent %d: like of %d not recorded on the target", a.ID, id)
			}
			if b.Likes(a.ID) != a.LikedBy(id) {
				return fmt.Errorf("agents %d and %d: match is not symmetric", a.ID, id)
			}
		}
		for id := range a.received {
			b := p.Agent(id)
			if b == nil || b.Cohort == a.Cohort {
				return fmt.Errorf("agent %d: liked by non-opposite agent %d", a.ID, id)
			}
		}
		given += len(a.given)
		received += len(a.received)
	}
	if given != received {
		return fmt.Errorf("likes given %d != likes received %d", given, received)
	}
	return nil
}
