package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nvandessel/swipesim/internal/run"
	"github.com/nvandessel/swipesim/internal/simulation"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func printResult(w io.Writer, res *run.Result, spec run.Spec) {
	labels := [2]string{spec.LabelA, spec.LabelB}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Run %s", res.RunID)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("seed %d, %d day(s)", res.Seed, res.Days)))
	fmt.Fprintln(w)

	summary := newTable("cohort", "agents", "likes mean", "likes median", "matches mean", "matches median")
	for i, c := range simulation.Cohorts {
		s := res.Report.Cohort(c)
		if s.NoData {
			summary.Row(labels[i], "0", "-", "-", "-", "-")
			continue
		}
		summary.Row(labels[i], strconv.Itoa(s.Count),
			formatFloat(s.LikesMean), formatFloat(s.LikesMedian),
			formatFloat(s.MatchesMean), formatFloat(s.MatchesMedian))
	}
	fmt.Fprintln(w, summary)

	for _, label := range labels {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s by attractiveness", label)))
		buckets := newTable("percentile", "agents", "likes mean", "matches mean")
		for _, b := range res.Buckets[label] {
			if b.Count == 0 {
				buckets.Row(b.Label, "0", "-", "-")
				continue
			}
			buckets.Row(b.Label, strconv.Itoa(b.Count), formatFloat(b.LikesMean), formatFloat(b.MatchesMean))
		}
		fmt.Fprintln(w, buckets)
	}

	if res.Plots != nil && spec.Plots != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, mutedStyle.Render("charts: "+
			filepath.Join(spec.Plots.Dir, res.Plots.Functions)+", "+
			filepath.Join(spec.Plots.Dir, res.Plots.Distributions)))
	}
}

// newTable returns a bordered table whose first column is text and the
// rest right-aligned numbers.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numberStyle
			}
		}).
		Headers(headers...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
