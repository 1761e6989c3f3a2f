// Package formula compiles attractiveness-to-probability expressions.
//
// An expression is written over the single variable x and may use numeric
// literals, the constants pi and e, the operators + - * / ^ (also **),
// unary minus, parentheses and the one-argument functions sqrt, sin, tan,
// asin, acos, atan, log, log2 and abs. Expressions are parsed once into a
// tree; evaluation walks the tree and never interprets text.
//
// Results are not clamped. Callers that treat the value as a probability
// decide what out-of-range values mean.
package formula

import (
	"fmt"
	"math"
)

// FormulaError reports a malformed expression. Pos is the byte offset of
// the offending token in Source.
type FormulaError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("formula %q: %s at position %d", e.Source, e.Msg, e.Pos)
}

func errorf(src string, pos int, format string, args ...any) *FormulaError {
	return &FormulaError{Source: src, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Formula is a compiled expression. It is immutable and safe for
// concurrent use.
type Formula struct {
	src  string
	root node
}

// Compile parses src. All syntax problems, unknown names and arity
// mistakes are reported here as a *FormulaError.
func Compile(src string) (*Formula, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Formula{src: src, root: root}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Formula {
	f, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return f
}

// Eval evaluates the formula at x.
func (f *Formula) Eval(x float64) float64 {
	return f.root.eval(x)
}

// Source returns the expression as it was written.
func (f *Formula) Source() string { return f.src }

// String returns a fully parenthesized rendering of the parsed tree.
func (f *Formula) String() string { return f.root.String() }

// Point is one sample of a formula curve.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Curve samples the formula on the half-open grid [start, stop) with the
// given step, the same grid numpy's arange produces. Non-finite results are
// kept; renderers skip them.
func (f *Formula) Curve(start, stop, step float64) []Point {
	if step <= 0 || stop <= start {
		return nil
	}
	n := int(math.Ceil((stop - start) / step))
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		x := start + float64(i)*step
		pts = append(pts, Point{X: x, Y: f.Eval(x)})
	}
	return pts
}

// Linspace samples the formula at n evenly spaced points on [start, stop].
func (f *Formula) Linspace(start, stop float64, n int) []Point {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []Point{{X: start, Y: f.Eval(start)}}
	}
	step := (stop - start) / float64(n-1)
	pts := make([]Point, n)
	for i := range pts {
		x := start + float64(i)*step
		if i == n-1 {
			x = stop
		}
		pts[i] = Point{X: x, Y: f.Eval(x)}
	}
	return pts
}
