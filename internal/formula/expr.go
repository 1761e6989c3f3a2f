package formula

import (
	"math"
	"strconv"
)

// node is one vertex of a compiled expression tree.
type node interface {
	eval(x float64) float64
	String() string
}

type numberNode struct {
	v    float64
	text string
}

func (n numberNode) eval(float64) float64 { return n.v }
func (n numberNode) String() string {
	if n.text != "" {
		return n.text
	}
	return strconv.FormatFloat(n.v, 'g', -1, 64)
}

type varNode struct{}

func (varNode) eval(x float64) float64 { return x }
func (varNode) String() string         { return "x" }

type constNode struct {
	name string
	v    float64
}

func (n constNode) eval(float64) float64 { return n.v }
func (n constNode) String() string       { return n.name }

type negNode struct{ arg node }

func (n negNode) eval(x float64) float64 { return -n.arg.eval(x) }
func (n negNode) String() string         { return "(-" + n.arg.String() + ")" }

type binaryNode struct {
	op          byte
	left, right node
}

func (n binaryNode) eval(x float64) float64 {
	l, r := n.left.eval(x), n.right.eval(x)
	switch n.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r
	case '^':
		return math.Pow(l, r)
	}
	return math.NaN()
}

func (n binaryNode) String() string {
	return "(" + n.left.String() + " " + string(n.op) + " " + n.right.String() + ")"
}

type callNode struct {
	name string
	fn   func(float64) float64
	arg  node
}

func (n callNode) eval(x float64) float64 { return n.fn(n.arg.eval(x)) }
func (n callNode) String() string         { return n.name + "(" + n.arg.String() + ")" }

// constants recognized by name.
var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// functions recognized by name. Every function takes exactly one argument.
var functions = map[string]func(float64) float64{
	"sqrt": math.Sqrt,
	"sin":  math.Sin,
	"tan":  math.Tan,
	"asin": math.Asin,
	"acos": math.Acos,
	"atan": math.Atan,
	"log":  math.Log,
	"log2": math.Log2,
	"abs":  math.Abs,
}

// Functions returns the names of the supported unary functions.
func Functions() []string {
	return []string{"sqrt", "sin", "tan", "asin", "acos", "atan", "log", "log2", "abs"}
}
