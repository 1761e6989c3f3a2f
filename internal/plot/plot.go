// Package plot renders the two report charts of a run as PNG images: the
// like-probability curve of each cohort's formula, and mean likes and
// matches per attractiveness bucket.
package plot

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/nvandessel/swipesim/internal/constants"
	"github.com/nvandessel/swipesim/internal/formula"
	"github.com/nvandessel/swipesim/internal/pathutil"
	"github.com/nvandessel/swipesim/internal/simulation"
	"github.com/nvandessel/swipesim/internal/tracing"
)

// Options controls image size and cohort labels.
type Options struct {
	Width  int
	Height int
	LabelA string
	LabelB string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = constants.DefaultPlotWidth
	}
	if o.Height <= 0 {
		o.Height = constants.DefaultPlotHeight
	}
	if o.LabelA == "" {
		o.LabelA = constants.DefaultLabelA
	}
	if o.LabelB == "" {
		o.LabelB = constants.DefaultLabelB
	}
	return o
}

// suptitleHeight is the band above the panels holding the figure title.
const suptitleHeight = 30

// Curves samples both formulas on the grids the report uses: cohort A on
// [0.001, 1) so that negative exponents stay finite, cohort B on [0, 1).
func Curves(fa, fb *formula.Formula) (a, b []formula.Point) {
	return fa.Curve(constants.CurveStartA, 1, constants.CurveStep),
		fb.Curve(constants.CurveStartB, 1, constants.CurveStep)
}

// Functions draws one line panel per cohort, side by side.
func Functions(curveA, curveB []formula.Point, opts Options) *image.RGBA {
	opts = opts.withDefaults()
	c := newCanvas(opts.Width, opts.Height)
	c.centered(opts.Width/2, lineHeight+8, "Attractiveness distribution function", textColor)

	for i, e := range []struct {
		label string
		pts   []formula.Point
	}{{opts.LabelA, curveA}, {opts.LabelB, curveB}} {
		frame := halfFrame(opts, i)
		xmin, xmax, ymin, ymax := bounds(e.pts)
		p := newPanel(frame, xmin, xmax, ymin, ymax)
		c.drawFrame(p, title(e.label), "Attractiveness", "Probability to get like", true)
		c.polyline(p, e.pts, seriesColors[0])
	}
	return c.img
}

// Distributions draws grouped bars of mean likes (left) and mean matches
// (right) per attractiveness bucket, one bar color per cohort. Both bucket
// slices must come from the same bin count.
func Distributions(bucketsA, bucketsB []simulation.Bucket, opts Options) *image.RGBA {
	opts = opts.withDefaults()
	c := newCanvas(opts.Width, opts.Height)
	c.centered(opts.Width/2, lineHeight+8, "Distribution of likes/matches by attractiveness", textColor)

	metrics := []struct {
		title string
		value func(simulation.Bucket) float64
	}{
		{"Number of Likes by Attractiveness", func(b simulation.Bucket) float64 { return b.LikesMean }},
		{"Number of Matches by Attractiveness", func(b simulation.Bucket) float64 { return b.MatchesMean }},
	}
	for i, m := range metrics {
		groups := [2][]float64{values(bucketsA, m.value), values(bucketsB, m.value)}
		top := 0.0
		for _, g := range groups {
			for _, v := range g {
				top = math.Max(top, v)
			}
		}
		if top == 0 {
			top = 1
		}
		p := newPanel(halfFrame(opts, i), 0, 1, 0, top*1.1)
		c.drawFrame(p, m.title, "Attractiveness", strings.TrimPrefix(m.title, "Number of "), false)
		c.bars(p, labels(bucketsA, bucketsB), groups)
		c.legend(p, [2]string{title(opts.LabelA), title(opts.LabelB)})
	}
	return c.img
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// Files names the chart files of one run, relative to the plot directory.
type Files struct {
	Functions     string `json:"functions"`
	Distributions string `json:"distributions"`
}

// FileNames returns the chart file names for runID.
func FileNames(runID string) Files {
	return Files{
		Functions:     "functions-" + runID + ".png",
		Distributions: "distributions-" + runID + ".png",
	}
}

// Render writes both charts for sim into dir and returns their names.
func Render(ctx context.Context, sim *simulation.Simulation, dir, runID string, bins int, opts Options) (Files, error) {
	_, span := tracing.StartSpan(ctx, "plot.Render")
	defer span.End()
	span.SetAttributes(tracing.StringAttr("run_id", runID), tracing.IntAttr("bins", bins))

	files, err := render(sim, dir, runID, bins, opts)
	if err != nil {
		tracing.RecordError(span, err)
		return Files{}, err
	}
	tracing.SetOK(span)
	return files, nil
}

func render(sim *simulation.Simulation, dir, runID string, bins int, opts Options) (Files, error) {
	if err := pathutil.EnsureDir(dir); err != nil {
		return Files{}, err
	}

	fa, err := sim.Formula(simulation.CohortA)
	if err != nil {
		return Files{}, err
	}
	fb, err := sim.Formula(simulation.CohortB)
	if err != nil {
		return Files{}, err
	}
	bucketsA, err := sim.Buckets(simulation.CohortA, bins)
	if err != nil {
		return Files{}, err
	}
	bucketsB, err := sim.Buckets(simulation.CohortB, bins)
	if err != nil {
		return Files{}, err
	}

	files := FileNames(runID)
	curveA, curveB := Curves(fa, fb)
	if err := writePNG(dir, files.Functions, Functions(curveA, curveB, opts)); err != nil {
		return Files{}, err
	}
	if err := writePNG(dir, files.Distributions, Distributions(bucketsA, bucketsB, opts)); err != nil {
		return Files{}, err
	}
	return files, nil
}

func writePNG(dir, name string, img image.Image) error {
	path, err := pathutil.SafeJoin(dir, name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", pathutil.RedactPath(path), err)
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return f.Close()
}

// halfFrame returns the left (i=0) or right (i=1) panel area below the title.
func halfFrame(opts Options, i int) image.Rectangle {
	half := opts.Width / 2
	return image.Rect(i*half, suptitleHeight, (i+1)*half, opts.Height)
}

// bounds returns the data range of the finite points in pts.
func bounds(pts []formula.Point) (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		if !finite(p.Y) {
			continue
		}
		xmin, xmax = math.Min(xmin, p.X), math.Max(xmax, p.X)
		ymin, ymax = math.Min(ymin, p.Y), math.Max(ymax, p.Y)
	}
	if math.IsInf(xmin, 1) {
		return 0, 1, 0, 1
	}
	return xmin, xmax, ymin, ymax
}

// polyline connects consecutive finite points; a non-finite point breaks
// the line.
func (c *canvas) polyline(p panel, pts []formula.Point, col color.RGBA) {
	havePrev := false
	var x0, y0 int
	for _, pt := range pts {
		if !finite(pt.Y) {
			havePrev = false
			continue
		}
		x, y := p.px(pt.X), p.py(pt.Y)
		if havePrev {
			c.line(x0, y0, x, y, 2, col, p.clip())
		} else {
			c.dot(x, y, 2, col, p.clip())
		}
		x0, y0, havePrev = x, y, true
	}
}

func (c *canvas) bars(p panel, labels []string, groups [2][]float64) {
	n := len(labels)
	if n == 0 {
		return
	}
	slot := float64(p.area.Dx()) / float64(n)
	barWidth := int(slot * 0.4)
	if barWidth < 1 {
		barWidth = 1
	}

	// Skip labels that would overlap their neighbours.
	every := 1
	widest := maxWidth(labels)
	for every < n && float64(widest+6) > slot*float64(every) {
		every++
	}

	for i := 0; i < n; i++ {
		center := p.area.Min.X + int(slot*(float64(i)+0.5))
		for s, g := range groups {
			if i >= len(g) {
				continue
			}
			x0 := center - barWidth + s*barWidth
			c.fill(image.Rect(x0, p.py(g[i]), x0+barWidth, p.area.Max.Y), seriesColors[s])
		}
		if i%every == 0 {
			c.centered(center, p.area.Max.Y+4+lineHeight, labels[i], textColor)
		}
	}
}

func (c *canvas) legend(p panel, names [2]string) {
	x := p.area.Max.X - 8 - maxWidth(names[:]) - 18
	y := p.area.Min.Y + 6
	for i, name := range names {
		c.fill(image.Rect(x, y+i*18, x+12, y+i*18+12), seriesColors[i])
		c.text(x+18, y+i*18+11, name, textColor)
	}
}

func values(buckets []simulation.Bucket, fn func(simulation.Bucket) float64) []float64 {
	out := make([]float64, len(buckets))
	for i, b := range buckets {
		out[i] = fn(b)
	}
	return out
}

func labels(a, b []simulation.Bucket) []string {
	src := a
	if len(b) > len(a) {
		src = b
	}
	out := make([]string, len(src))
	for i, bk := range src {
		out[i] = bk.Label
	}
	return out
}

func maxWidth(ss []string) int {
	w := 0
	for _, s := range ss {
		w = max(w, textWidth(s))
	}
	return w
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
