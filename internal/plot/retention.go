package plot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nvandessel/swipesim/internal/config"
)

// RunCharts is the set of chart files one run left in a plot directory.
type RunCharts struct {
	RunID string
	Paths []string
	Size  int64

	// ModTime is the newest modification time among Paths.
	ModTime time.Time
}

// RetentionPolicy decides which runs' charts to keep.
type RetentionPolicy interface {
	Apply(runs []RunCharts) (keep []RunCharts)
}

// CountPolicy keeps the charts of the N most recent runs.
type CountPolicy struct {
	MaxRuns int
}

// Apply keeps the first MaxRuns runs (assumed sorted newest-first).
func (p *CountPolicy) Apply(runs []RunCharts) []RunCharts {
	if len(runs) <= p.MaxRuns {
		return runs
	}
	return runs[:p.MaxRuns]
}

// AgePolicy keeps charts newer than MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
	Now    func() time.Time
}

// Apply keeps runs whose ModTime is within MaxAge of now.
func (p *AgePolicy) Apply(runs []RunCharts) []RunCharts {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	cutoff := now().Add(-p.MaxAge)
	var keep []RunCharts
	for _, r := range runs {
		if r.ModTime.After(cutoff) {
			keep = append(keep, r)
		}
	}
	return keep
}

// AllPolicy keeps a run only if EVERY sub-policy keeps it (intersection),
// so "keep 50 runs, none older than a week" drops whatever breaks either rule.
type AllPolicy struct {
	Policies []RetentionPolicy
}

// Apply returns the runs kept by all sub-policies, in input order.
func (p *AllPolicy) Apply(runs []RunCharts) []RunCharts {
	votes := make(map[string]int, len(runs))
	for _, policy := range p.Policies {
		for _, r := range policy.Apply(runs) {
			votes[r.RunID]++
		}
	}

	var keep []RunCharts
	for _, r := range runs {
		if votes[r.RunID] == len(p.Policies) {
			keep = append(keep, r)
		}
	}
	return keep
}

// RetentionFromConfig builds the policy described by cfg. It returns nil
// when cfg keeps everything.
func RetentionFromConfig(cfg config.PlotsConfig) (RetentionPolicy, error) {
	var policies []RetentionPolicy
	if cfg.KeepRuns > 0 {
		policies = append(policies, &CountPolicy{MaxRuns: cfg.KeepRuns})
	}
	if cfg.MaxAge != "" {
		d, err := config.ParseDuration(cfg.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("plots.max_age: %w", err)
		}
		policies = append(policies, &AgePolicy{MaxAge: d})
	}

	switch len(policies) {
	case 0:
		return nil, nil
	case 1:
		return policies[0], nil
	default:
		return &AllPolicy{Policies: policies}, nil
	}
}

// chartPrefixes are the file name prefixes FileNames produces.
var chartPrefixes = []string{"functions-", "distributions-"}

// runIDOf returns the run ID encoded in a chart file name.
func runIDOf(name string) (string, bool) {
	if !strings.HasSuffix(name, ".png") {
		return "", false
	}
	base := strings.TrimSuffix(name, ".png")
	for _, prefix := range chartPrefixes {
		if id, ok := strings.CutPrefix(base, prefix); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// ListRuns scans dir for chart files and groups them by run, newest first.
// A missing directory has no runs.
func ListRuns(dir string) ([]RunCharts, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading plot directory: %w", err)
	}

	byID := make(map[string]*RunCharts)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := runIDOf(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		rc, ok := byID[id]
		if !ok {
			rc = &RunCharts{RunID: id}
			byID[id] = rc
		}
		rc.Paths = append(rc.Paths, filepath.Join(dir, e.Name()))
		rc.Size += info.Size()
		if info.ModTime().After(rc.ModTime) {
			rc.ModTime = info.ModTime()
		}
	}

	runs := make([]RunCharts, 0, len(byID))
	for _, rc := range byID {
		runs = append(runs, *rc)
	}
	// Run IDs carry no ordering, so sort by time and break ties by ID.
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].ModTime.Equal(runs[j].ModTime) {
			return runs[i].ModTime.After(runs[j].ModTime)
		}
		return runs[i].RunID < runs[j].RunID
	})
	return runs, nil
}

// Expired lists the runs in dir that policy does not keep.
func Expired(dir string, policy RetentionPolicy) ([]RunCharts, error) {
	runs, err := ListRuns(dir)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool)
	for _, r := range policy.Apply(runs) {
		keep[r.RunID] = true
	}

	var expired []RunCharts
	for _, r := range runs {
		if !keep[r.RunID] {
			expired = append(expired, r)
		}
	}
	return expired, nil
}

// Prune deletes the charts of every run policy does not keep and returns
// the removed paths.
func Prune(dir string, policy RetentionPolicy) (deleted []string, err error) {
	expired, err := Expired(dir, policy)
	if err != nil {
		return nil, err
	}
	for _, r := range expired {
		for _, path := range r.Paths {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return deleted, fmt.Errorf("removing %s: %w", filepath.Base(path), err)
			}
			deleted = append(deleted, path)
		}
	}
	return deleted, nil
}
