package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/swipesim/internal/constants"
	"github.com/nvandessel/swipesim/internal/formula"
)

func newFormulaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formula",
		Short: "Check and evaluate like-probability formulas",
		Long: `Work with the formulas that map attractiveness x in [0, 1] to the
probability of being liked.

Formulas use x, numbers, pi, e, the operators + - * / ^ (or **),
parentheses and the functions ` + strings.Join(formula.Functions(), ", ") + `.`,
	}

	cmd.AddCommand(
		newFormulaCheckCmd(),
		newFormulaEvalCmd(),
		newFormulaCurveCmd(),
	)

	return cmd
}

func newFormulaCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FORMULA",
		Short: "Validate a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut := jsonOutput(cmd)
			out := cmd.OutOrStdout()

			f, err := formula.Compile(args[0])
			var fe *formula.FormulaError
			switch {
			case err == nil:
				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]any{"valid": true, "normalized": f.String()})
				}
				fmt.Fprintf(out, "ok: %s\n", f.String())
				return nil
			case errors.As(err, &fe):
				if jsonOut {
					if encErr := json.NewEncoder(out).Encode(map[string]any{
						"valid": false, "error": fe.Msg, "position": fe.Pos,
					}); encErr != nil {
						return encErr
					}
				} else {
					printCaret(out, fe)
				}
				return err
			default:
				return err
			}
		},
	}
}

// printCaret prints the formula with a caret under the offending byte.
func printCaret(w io.Writer, fe *formula.FormulaError) {
	fmt.Fprintln(w, fe.Source)
	fmt.Fprintf(w, "%s^ %s\n", strings.Repeat(" ", fe.Pos), fe.Msg)
}

func newFormulaEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "eval FORMULA X...",
		Short:   "Evaluate a formula at the given points",
		Example: `  swipesim formula eval "x^5.67" 0.5 0.9 1`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formula.Compile(args[0])
			if err != nil {
				return err
			}

			points := make([]formula.Point, 0, len(args)-1)
			for _, arg := range args[1:] {
				x, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid x %q: %w", arg, err)
				}
				points = append(points, formula.Point{X: x, Y: f.Eval(x)})
			}
			return printPoints(cmd, points)
		},
	}
}

func newFormulaCurveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve FORMULA",
		Short: "Sample a formula at evenly spaced points on [0, 1]",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("points")
			if n < 2 || n > constants.MaxCurvePoints {
				return fmt.Errorf("points must be between 2 and %d, got %d", constants.MaxCurvePoints, n)
			}
			f, err := formula.Compile(args[0])
			if err != nil {
				return err
			}
			return printPoints(cmd, f.Linspace(0, 1, n))
		},
	}

	cmd.Flags().Int("points", 11, "Number of samples")

	return cmd
}

// printPoints writes one "x y" line per point, or a JSON array with
// non-finite values as null.
func printPoints(cmd *cobra.Command, points []formula.Point) error {
	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		type point struct {
			X float64  `json:"x"`
			Y *float64 `json:"y"`
		}
		rows := make([]point, len(points))
		for i, p := range points {
			rows[i].X = p.X
			if !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) {
				y := p.Y
				rows[i].Y = &y
			}
		}
		return json.NewEncoder(out).Encode(rows)
	}

	for _, p := range points {
		fmt.Fprintf(out, "%-8s %s\n",
			strconv.FormatFloat(p.X, 'g', 6, 64),
			strconv.FormatFloat(p.Y, 'g', 6, 64))
	}
	return nil
}
