package plot

import (
	"image"
	"math"
)

// Margins around the axes inside one panel.
const (
	marginLeft   = 58
	marginRight  = 14
	marginTop    = 26
	marginBottom = 42
)

// panel maps data coordinates onto one axes rectangle of the canvas.
type panel struct {
	frame image.Rectangle
	area  image.Rectangle

	xmin, xmax float64
	ymin, ymax float64
}

func newPanel(frame image.Rectangle, xmin, xmax, ymin, ymax float64) panel {
	if !(xmax > xmin) {
		xmax = xmin + 1
	}
	if !(ymax > ymin) {
		ymin, ymax = ymin-0.5, ymax+0.5
	}
	return panel{
		frame: frame,
		area: image.Rect(
			frame.Min.X+marginLeft, frame.Min.Y+marginTop,
			frame.Max.X-marginRight, frame.Max.Y-marginBottom,
		),
		xmin: xmin, xmax: xmax,
		ymin: ymin, ymax: ymax,
	}
}

func (p panel) px(x float64) int {
	return p.area.Min.X + int(math.Round((x-p.xmin)/(p.xmax-p.xmin)*float64(p.area.Dx())))
}

func (p panel) py(y float64) int {
	return p.area.Max.Y - int(math.Round((y-p.ymin)/(p.ymax-p.ymin)*float64(p.area.Dy())))
}

// clip is the axes rectangle grown by one pixel so lines on the border show.
func (p panel) clip() image.Rectangle {
	return p.area.Inset(-1)
}

// drawFrame paints the title, axis labels, y grid and ticks. X ticks are
// drawn only when xTicks is set; bar charts label categories themselves.
func (c *canvas) drawFrame(p panel, title, xLabel, yLabel string, xTicks bool) {
	c.centered((p.area.Min.X+p.area.Max.X)/2, p.frame.Min.Y+lineHeight+4, title, textColor)

	for _, v := range niceTicks(p.ymin, p.ymax, 5) {
		y := p.py(v)
		if y < p.area.Min.Y || y > p.area.Max.Y {
			continue
		}
		c.line(p.area.Min.X, y, p.area.Max.X, y, 1, gridColor, p.clip())
		c.line(p.area.Min.X-4, y, p.area.Min.X, y, 1, axisColor, p.frame)
		label := formatTick(v)
		c.text(p.area.Min.X-6-textWidth(label), y+4, label, textColor)
	}

	if xTicks {
		for _, v := range niceTicks(p.xmin, p.xmax, 5) {
			x := p.px(v)
			if x < p.area.Min.X || x > p.area.Max.X {
				continue
			}
			c.line(x, p.area.Max.Y, x, p.area.Max.Y+4, 1, axisColor, p.frame)
			c.centered(x, p.area.Max.Y+4+lineHeight, formatTick(v), textColor)
		}
	}

	// Axes on the left and bottom edges.
	c.line(p.area.Min.X, p.area.Min.Y, p.area.Min.X, p.area.Max.Y, 1, axisColor, p.frame)
	c.line(p.area.Min.X, p.area.Max.Y, p.area.Max.X, p.area.Max.Y, 1, axisColor, p.frame)

	c.centered((p.area.Min.X+p.area.Max.X)/2, p.frame.Max.Y-6, xLabel, textColor)
	c.vertical(p.frame.Min.X+2, (p.area.Min.Y+p.area.Max.Y)/2, yLabel, textColor)
}
