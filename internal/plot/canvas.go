package plot

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	background = color.RGBA{255, 255, 255, 255}
	axisColor  = color.RGBA{40, 40, 40, 255}
	gridColor  = color.RGBA{225, 225, 225, 255}
	textColor  = color.RGBA{20, 20, 20, 255}

	// Series colors for cohort A and cohort B.
	seriesColors = [2]color.RGBA{
		{31, 119, 180, 255},
		{255, 127, 14, 255},
	}
)

var face = basicfont.Face7x13

// lineHeight is the pixel height of one text line in face.
const lineHeight = 13

type canvas struct {
	img *image.RGBA
}

func newCanvas(w, h int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return &canvas{img: img}
}

func (c *canvas) fill(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), image.NewUniform(col), image.Point{}, draw.Over)
}

// dot paints a width x width square centered on (x, y), clipped to clip.
func (c *canvas) dot(x, y, width int, col color.RGBA, clip image.Rectangle) {
	half := width / 2
	for dy := -half; dy < width-half; dy++ {
		for dx := -half; dx < width-half; dx++ {
			p := image.Pt(x+dx, y+dy)
			if p.In(clip) {
				c.img.SetRGBA(p.X, p.Y, col)
			}
		}
	}
}

// line draws a Bresenham line clipped to clip.
func (c *canvas) line(x0, y0, x1, y1, width int, col color.RGBA, clip image.Rectangle) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.dot(x0, y0, width, col, clip)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// text draws s with its baseline at y, starting at x.
func (c *canvas) text(x, y int, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// centered draws s horizontally centered on cx.
func (c *canvas) centered(cx, y int, s string, col color.Color) {
	c.text(cx-textWidth(s)/2, y, s, col)
}

// vertical draws s rotated 90 degrees counter-clockwise, centered on cy,
// with the glyph tops facing left at x.
func (c *canvas) vertical(x, cy int, s string, col color.Color) {
	w := textWidth(s)
	tmp := image.NewRGBA(image.Rect(0, 0, w, lineHeight+3))
	d := &font.Drawer{Dst: tmp, Src: image.NewUniform(col), Face: face, Dot: fixed.P(0, lineHeight)}
	d.DrawString(s)

	top := cy + w/2
	for py := 0; py < tmp.Bounds().Dy(); py++ {
		for px := 0; px < w; px++ {
			if _, _, _, a := tmp.At(px, py).RGBA(); a > 0 {
				c.img.Set(x+py, top-px, tmp.At(px, py))
			}
		}
	}
}

func textWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// niceTicks returns about n round tick values covering [lo, hi].
func niceTicks(lo, hi float64, n int) []float64 {
	if n < 1 || !(hi > lo) {
		return []float64{lo}
	}
	raw := (hi - lo) / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := 10 * mag
	for _, m := range []float64{1, 2, 5} {
		if raw <= m*mag {
			step = m * mag
			break
		}
	}
	var ticks []float64
	for v := math.Ceil(lo/step) * step; v <= hi+step*1e-9; v += step {
		// Snap away float noise such as 0.30000000000000004.
		ticks = append(ticks, math.Round(v/step)*step)
	}
	return ticks
}

func formatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
