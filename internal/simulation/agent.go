package simulation

import "sort"

// Agent is one participant. ID, Cohort, Score, Rate and SwipeBudget are
// fixed for the run; the remaining fields are daily state cleared by Reset.
type Agent struct {
	ID          int     `json:"id"` // index into the population arena
	Cohort      Cohort  `json:"cohort"`
	Score       float64 `json:"score"`        // attractiveness in [0,1)
	Rate        float64 `json:"rate"`         // probability of being liked when viewed
	SwipeBudget int     `json:"swipe_budget"` // swipes allotted per day

	remaining  int
	given      map[int]struct{}
	received   map[int]struct{}
	numLikes   int
	numMatches int
}

func newAgent(id int, cohort Cohort, score, rate float64, budget int) Agent {
	return Agent{
		ID:          id,
		Cohort:      cohort,
		Score:       score,
		Rate:        rate,
		SwipeBudget: budget,
		remaining:   budget,
	}
}

// Like records a like from a to other. Same-cohort likes are ignored. The
// remaining swipe budget is not checked here; callers spend it per view.
func (a *Agent) Like(other *Agent) {
	if other.Cohort == a.Cohort {
		return
	}
	if a.given == nil {
		a.given = make(map[int]struct{})
	}
	if other.received == nil {
		other.received = make(map[int]struct{})
	}
	a.given[other.ID] = struct{}{}
	other.received[a.ID] = struct{}{}
}

// RecomputeStats refreshes NumLikes and NumMatches from the like sets.
func (a *Agent) RecomputeStats() {
	a.numLikes = len(a.received)
	matches := 0
	for id := range a.given {
		if _, ok := a.received[id]; ok {
			matches++
		}
	}
	a.numMatches = matches
}

// Reset restores the full swipe budget and clears likes and counters.
func (a *Agent) Reset() {
	a.remaining = a.SwipeBudget
	a.clearLikes()
}

func (a *Agent) clearLikes() {
	a.given = nil
	a.received = nil
	a.numLikes = 0
	a.numMatches = 0
}

// spendSwipe consumes one swipe. It reports false when none are left.
func (a *Agent) spendSwipe() bool {
	if a.remaining <= 0 {
		return false
	}
	a.remaining--
	return true
}

// RemainingSwipes returns the swipes left in the current budget.
func (a *Agent) RemainingSwipes() int { return a.remaining }

// NumLikes is the number of likes received as of the last RecomputeStats.
func (a *Agent) NumLikes() int { return a.numLikes }

// NumMatches is the number of mutual likes as of the last RecomputeStats.
func (a *Agent) NumMatches() int { return a.numMatches }

// GivenLikes returns the IDs this agent has liked, ascending.
func (a *Agent) GivenLikes() []int { return sortedIDs(a.given) }

// ReceivedLikes returns the IDs that have liked this agent, ascending.
func (a *Agent) ReceivedLikes() []int { return sortedIDs(a.received) }

// Likes reports whether a has liked the agent with the given ID.
func (a *Agent) Likes(id int) bool {
	_, ok := a.given[id]
	return ok
}

// LikedBy reports whether the agent with the given ID has liked a.
func (a *Agent) LikedBy(id int) bool {
	_, ok := a.received[id]
	return ok
}

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
