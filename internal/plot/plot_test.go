package plot

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/swipesim/internal/formula"
	"github.com/nvandessel/swipesim/internal/simulation"
)

func countNonBackground(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) != background {
				n++
			}
		}
	}
	return n
}

func TestFunctions_DrawsBothPanels(t *testing.T) {
	fa := formula.MustCompile("x^5.67")
	fb := formula.MustCompile("x^1.22")
	a, b := Curves(fa, fb)

	img := Functions(a, b, Options{Width: 600, Height: 300})
	require.Equal(t, image.Rect(0, 0, 600, 300), img.Bounds())

	left := newPanel(halfFrame(Options{Width: 600, Height: 300}, 0), 0, 1, 0, 1).area
	right := newPanel(halfFrame(Options{Width: 600, Height: 300}, 1), 0, 1, 0, 1).area
	assert.Greater(t, countNonBackground(img, left), 100, "left panel should contain a curve")
	assert.Greater(t, countNonBackground(img, right), 100, "right panel should contain a curve")
}

func TestCurves_Grids(t *testing.T) {
	a, b := Curves(formula.MustCompile("x"), formula.MustCompile("x"))
	require.NotEmpty(t, a)
	require.NotEmpty(t, b)

	assert.InDelta(t, 0.001, a[0].X, 1e-12)
	assert.Equal(t, 0.0, b[0].X)
	assert.Less(t, a[len(a)-1].X, 1.0)
	assert.Len(t, b, 1000)
}

func TestFunctions_SkipsNonFinite(t *testing.T) {
	// 1/x is +Inf at x=0 on cohort B's grid.
	f := formula.MustCompile("1/x")
	pts := f.Curve(0, 1, 0.01)
	require.True(t, math.IsInf(pts[0].Y, 1))

	xmin, _, _, ymax := bounds(pts)
	assert.InDelta(t, 0.01, xmin, 1e-12)
	assert.InDelta(t, 100, ymax, 1e-9)

	assert.NotPanics(t, func() { Functions(pts, pts, Options{}) })
}

func TestBounds_AllNonFinite(t *testing.T) {
	xmin, xmax, ymin, ymax := bounds([]formula.Point{{X: 0, Y: math.NaN()}})
	assert.Equal(t, [4]float64{0, 1, 0, 1}, [4]float64{xmin, xmax, ymin, ymax})
}

func TestDistributions(t *testing.T) {
	buckets := []simulation.Bucket{
		{Label: "0-50", LikesMean: 1, MatchesMean: 0},
		{Label: "50-100", LikesMean: 10, MatchesMean: 3},
	}
	img := Distributions(buckets, buckets, Options{Width: 400, Height: 200})
	require.Equal(t, 400, img.Bounds().Dx())

	// The tallest bar reaches close to the top of the axes.
	p := newPanel(halfFrame(Options{Width: 400, Height: 200}, 0), 0, 1, 0, 11)
	assert.Less(t, p.py(10), p.area.Max.Y-50)
	assert.Greater(t, countNonBackground(img, p.area), 500)
}

func TestDistributions_AllZero(t *testing.T) {
	buckets := []simulation.Bucket{{Label: "0-100"}}
	assert.NotPanics(t, func() { Distributions(buckets, nil, Options{}) })
}

func TestNiceTicks(t *testing.T) {
	tests := []struct {
		lo, hi float64
		want   []float64
	}{
		{0, 1, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}},
		{0, 10, []float64{0, 2, 4, 6, 8, 10}},
		{0, 0.5, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5}},
	}
	for _, tt := range tests {
		got := niceTicks(tt.lo, tt.hi, 5)
		require.Len(t, got, len(tt.want), "niceTicks(%v, %v) = %v", tt.lo, tt.hi, got)
		for i := range got {
			assert.InDelta(t, tt.want[i], got[i], 1e-12)
		}
	}
	assert.Equal(t, []float64{3}, niceTicks(3, 3, 5))
}

func TestFormatTick(t *testing.T) {
	assert.Equal(t, "0", formatTick(0))
	assert.Equal(t, "0.3", formatTick(0.30000000000000004))
	assert.Equal(t, "150", formatTick(150))
}

func TestEncode_RoundTrip(t *testing.T) {
	img := Functions(nil, nil, Options{Width: 300, Height: 200})
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestRender_WritesFiles(t *testing.T) {
	sim, err := simulation.New(simulation.Config{
		Seed:    1,
		CohortA: simulation.CohortConfig{Size: 30, SwipeBudget: 10, Formula: "x^2"},
		CohortB: simulation.CohortConfig{Size: 20, SwipeBudget: 10, Formula: "x"},
	})
	require.NoError(t, err)
	require.NoError(t, sim.Simulate(context.Background(), 1))

	dir := filepath.Join(t.TempDir(), "plots")
	files, err := Render(context.Background(), sim, dir, "run1", 5, Options{Width: 400, Height: 200})
	require.NoError(t, err)
	assert.Equal(t, FileNames("run1"), files)

	for _, name := range []string{files.Functions, files.Distributions} {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		_, err = png.Decode(f)
		f.Close()
		assert.NoError(t, err, name)
	}
}

func TestRender_RejectsBadRunID(t *testing.T) {
	sim, err := simulation.New(simulation.Config{
		CohortA: simulation.CohortConfig{Size: 2, SwipeBudget: 1, Formula: "x"},
		CohortB: simulation.CohortConfig{Size: 2, SwipeBudget: 1, Formula: "x"},
	})
	require.NoError(t, err)

	_, err = Render(context.Background(), sim, t.TempDir(), "../escape", 5, Options{})
	assert.Error(t, err)
}

func TestRender_InvalidBins(t *testing.T) {
	sim, err := simulation.New(simulation.Config{
		CohortA: simulation.CohortConfig{Size: 2, SwipeBudget: 1, Formula: "x"},
		CohortB: simulation.CohortConfig{Size: 2, SwipeBudget: 1, Formula: "x"},
	})
	require.NoError(t, err)

	_, err = Render(context.Background(), sim, t.TempDir(), "r", 0, Options{})
	var cfgErr *simulation.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
