package simulation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func newTestSim(t *testing.T, cfg Config) *Simulation {
	t.Helper()
	sim, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sim
}

func baseConfig() Config {
	return Config{
		Seed:    42,
		CohortA: CohortConfig{Size: 60, SwipeBudget: 20, Formula: "x^2"},
		CohortB: CohortConfig{Size: 40, SwipeBudget: 25, Formula: "sqrt(x)"},
	}
}

func TestEngine_BudgetBounds(t *testing.T) {
	cfg := baseConfig()
	cfg.CohortA.SwipeBudget = 100 // more than cohort B has
	sim := newTestSim(t, cfg)

	if err := sim.Simulate(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	for _, a := range sim.Population().All() {
		given := len(a.GivenLikes())
		viewed := a.SwipeBudget - a.RemainingSwipes()
		if given > viewed {
			t.Errorf("agent %d gave %d likes with %d views", a.ID, given, viewed)
		}
		if a.Cohort == CohortA && viewed != 40 {
			t.Errorf("agent %d viewed %d, want the whole opposite cohort (40)", a.ID, viewed)
		}
		if a.Cohort == CohortB && viewed != 25 {
			t.Errorf("agent %d viewed %d, want its budget (25)", a.ID, viewed)
		}
	}
	if err := sim.Population().CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestEngine_ZeroFormulaNoLikes(t *testing.T) {
	cfg := baseConfig()
	cfg.CohortA.Formula = "0"
	cfg.CohortB.Formula = "0"
	sim := newTestSim(t, cfg)

	if err := sim.Simulate(context.Background(), 3); err != nil {
		t.Fatal(err)
	}

	r := sim.Summarize()
	if r.A.LikesMean != 0 || r.B.LikesMean != 0 || r.A.MatchesMean != 0 {
		t.Errorf("report = %+v, want all zero", r)
	}
}

func TestEngine_OneFormulaLikesEveryView(t *testing.T) {
	cfg := Config{
		Seed:    7,
		CohortA: CohortConfig{Size: 10, SwipeBudget: 4, Formula: "1"},
		CohortB: CohortConfig{Size: 8, SwipeBudget: 10, Formula: "1"},
	}
	sim := newTestSim(t, cfg)

	var days []DayStats
	sim.engine.onDay = func(d DayStats) { days = append(days, d) }
	if err := sim.Simulate(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	d := days[0]
	if d.SwipesA != 40 || d.LikesGivenA != 40 {
		t.Errorf("cohort A swipes/likes = %d/%d, want 40/40", d.SwipesA, d.LikesGivenA)
	}
	// Every B agent views all 10 A agents.
	if d.SwipesB != 80 || d.LikesGivenB != 80 {
		t.Errorf("cohort B swipes/likes = %d/%d, want 80/80", d.SwipesB, d.LikesGivenB)
	}
	// Each A agent is liked by every B agent, and each like from A is returned.
	for _, a := range sim.Population().All() {
		if a.Cohort == CohortA {
			if a.NumLikes() != 8 || a.NumMatches() != 4 {
				t.Errorf("A agent %d likes/matches = %d/%d, want 8/4", a.ID, a.NumLikes(), a.NumMatches())
			}
		}
	}
	if d.Matches != 40 {
		t.Errorf("Matches = %d, want 40", d.Matches)
	}
}

func TestEngine_LikeUsesTargetRate(t *testing.T) {
	for _, workers := range []int{0, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			// Nobody likes an A agent; every B agent is liked when viewed.
			sim := newTestSim(t, Config{
				Seed:    11,
				CohortA: CohortConfig{Size: 10, SwipeBudget: 4, Formula: "0"},
				CohortB: CohortConfig{Size: 8, SwipeBudget: 10, Formula: "1"},
				Workers: workers,
			})
			if err := sim.Simulate(context.Background(), 1); err != nil {
				t.Fatal(err)
			}

			receivedB := 0
			for _, a := range sim.Population().All() {
				switch a.Cohort {
				case CohortA:
					if a.NumLikes() != 0 {
						t.Errorf("A agent %d received %d likes, want 0", a.ID, a.NumLikes())
					}
					if got := len(a.GivenLikes()); got != 4 {
						t.Errorf("A agent %d gave %d likes, want one per view (4)", a.ID, got)
					}
				case CohortB:
					if got := len(a.GivenLikes()); got != 0 {
						t.Errorf("B agent %d gave %d likes, want 0", a.ID, got)
					}
					receivedB += a.NumLikes()
				}
				if a.NumMatches() != 0 {
					t.Errorf("agent %d has %d matches, want 0", a.ID, a.NumMatches())
				}
			}
			if receivedB != 40 {
				t.Errorf("B agents received %d likes, want 40", receivedB)
			}
		})
	}
}

func TestEngine_RepeatLikesNotRecounted(t *testing.T) {
	for _, workers := range []int{0, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			sim := newTestSim(t, Config{
				Seed:     5,
				CohortA:  CohortConfig{Size: 3, SwipeBudget: 3, Formula: "1"},
				CohortB:  CohortConfig{Size: 3, SwipeBudget: 3, Formula: "1"},
				Boundary: DayBoundary{ReplenishSwipes: true},
				Workers:  workers,
			})

			var days []DayStats
			sim.engine.onDay = func(d DayStats) { days = append(days, d) }
			if err := sim.Simulate(context.Background(), 3); err != nil {
				t.Fatal(err)
			}

			if days[0].LikesGivenA != 9 || days[0].LikesGivenB != 9 {
				t.Errorf("day 1 likes = %d/%d, want 9/9", days[0].LikesGivenA, days[0].LikesGivenB)
			}
			for _, d := range days[1:] {
				if d.SwipesA != 9 {
					t.Errorf("day %d swipes A = %d, want 9 after replenishing", d.Day, d.SwipesA)
				}
				if d.LikesGivenA != 0 || d.LikesGivenB != 0 {
					t.Errorf("day %d likes = %d/%d, want 0/0 for repeat likes", d.Day, d.LikesGivenA, d.LikesGivenB)
				}
			}
			for _, a := range sim.Population().All() {
				if got := len(a.GivenLikes()); got != 3 {
					t.Errorf("agent %d like set = %d, want 3", a.ID, got)
				}
			}
		})
	}
}

func TestEngine_Deterministic(t *testing.T) {
	for _, workers := range []int{0, 4} {
		cfg := baseConfig()
		cfg.Workers = workers

		first := newTestSim(t, cfg)
		second := newTestSim(t, cfg)
		for _, s := range []*Simulation{first, second} {
			if err := s.Simulate(context.Background(), 2); err != nil {
				t.Fatal(err)
			}
		}

		for i, a := range first.Population().All() {
			b := second.Population().Agent(i)
			if !reflect.DeepEqual(a.GivenLikes(), b.GivenLikes()) {
				t.Fatalf("workers=%d: agent %d like sets differ", workers, i)
			}
		}
	}
}

func TestEngine_ParallelIndependentOfWorkerCount(t *testing.T) {
	cfgTwo := baseConfig()
	cfgTwo.Workers = 2
	cfgEight := baseConfig()
	cfgEight.Workers = 8

	two := newTestSim(t, cfgTwo)
	eight := newTestSim(t, cfgEight)
	for _, s := range []*Simulation{two, eight} {
		if err := s.Simulate(context.Background(), 1); err != nil {
			t.Fatal(err)
		}
		if err := s.Population().CheckInvariants(); err != nil {
			t.Fatal(err)
		}
	}

	if !reflect.DeepEqual(two.Summarize(), eight.Summarize()) {
		t.Errorf("reports differ: %+v vs %+v", two.Summarize(), eight.Summarize())
	}
}

func TestEngine_DayBoundary(t *testing.T) {
	tests := []struct {
		name          string
		boundary      DayBoundary
		wantDay2Swipe bool
	}{
		{"carry over", DayBoundary{}, false},
		{"replenish", DayBoundary{ReplenishSwipes: true}, true},
		{"replenish and clear", DayBoundary{ReplenishSwipes: true, ClearLikes: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Boundary = tt.boundary
			sim := newTestSim(t, cfg)

			var days []DayStats
			sim.engine.onDay = func(d DayStats) { days = append(days, d) }
			if err := sim.Simulate(context.Background(), 2); err != nil {
				t.Fatal(err)
			}

			if days[0].Day != 1 || days[1].Day != 2 {
				t.Errorf("day numbers = %d, %d, want 1, 2", days[0].Day, days[1].Day)
			}
			if got := days[1].SwipesA > 0; got != tt.wantDay2Swipe {
				t.Errorf("day 2 swipes = %d, want swipes: %v", days[1].SwipesA, tt.wantDay2Swipe)
			}
			if tt.boundary.ClearLikes {
				given := 0
				for _, a := range sim.Population().All() {
					given += len(a.GivenLikes())
				}
				if given != days[1].LikesGivenA+days[1].LikesGivenB {
					t.Errorf("like sets hold %d likes, want only day 2's %d", given, days[1].LikesGivenA+days[1].LikesGivenB)
				}
			}
			if err := sim.Population().CheckInvariants(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestEngine_ContextCancelled(t *testing.T) {
	sim := newTestSim(t, baseConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sim.Simulate(ctx, 3)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if sim.Days() != 0 {
		t.Errorf("Days = %d, want 0", sim.Days())
	}
}

func TestSampleIndices(t *testing.T) {
	rng := testRNG(3)
	buf := make([]int, 10)

	got := sampleIndices(rng, buf, 10)
	seen := make(map[int]bool)
	for _, i := range got {
		if i < 0 || i >= 10 || seen[i] {
			t.Fatalf("sample %v is not a permutation of [0,10)", got)
		}
		seen[i] = true
	}

	if got := sampleIndices(rng, buf, 0); len(got) != 0 {
		t.Errorf("k=0 sample = %v, want empty", got)
	}
}
