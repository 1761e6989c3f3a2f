package api

import (
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nvandessel/swipesim/internal/constants"
	"github.com/nvandessel/swipesim/internal/formula"
	"github.com/nvandessel/swipesim/internal/pathutil"
	"github.com/nvandessel/swipesim/internal/simulation"
	"github.com/nvandessel/swipesim/internal/tracing"
)

// RunResponse is the body returned by POST /run_simulation.
type RunResponse struct {
	RunID       string                         `json:"run_id"`
	InputParams InputParams                    `json:"input_params"`
	Stats       map[string]float64             `json:"stats"`
	Report      simulation.Report              `json:"report"`
	Buckets     map[string][]simulation.Bucket `json:"buckets"`
	Plots       *PlotURLs                      `json:"plots,omitempty"`
}

// PlotURLs are server-relative chart locations.
type PlotURLs struct {
	Functions     string `json:"functions"`
	Distributions string `json:"distributions"`
}

// CurvePoint is one sample of a formula. Y is null where the formula is
// not finite, which JSON cannot represent otherwise.
type CurvePoint struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"`
}

// CurveResponse is the body returned by GET /api/formula/curve.
type CurveResponse struct {
	Formula    string       `json:"formula"`
	Normalized string       `json:"normalized"`
	Points     []CurvePoint `json:"points"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) handleRunSimulation(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "api.run_simulation")
	defer span.End()

	var req RunRequest
	if !decode(w, r, &req) {
		return
	}

	spec, params, err := req.resolve(s.cfg)
	if err != nil {
		tracing.RecordError(span, err)
		writeError(w, s.logger, err)
		return
	}

	res, err := s.runner.Run(ctx, spec)
	if err != nil {
		tracing.RecordError(span, err)
		writeError(w, s.logger, err)
		return
	}
	span.SetAttributes(tracing.StringAttr("run_id", res.RunID))

	resp := RunResponse{
		RunID:       res.RunID,
		InputParams: params,
		Stats:       res.Stats,
		Report:      res.Report,
		Buckets:     res.Buckets,
	}
	if res.Plots != nil {
		resp.Plots = &PlotURLs{
			Functions:     "/plots/" + res.Plots.Functions,
			Distributions: "/plots/" + res.Plots.Distributions,
		}
	}
	tracing.SetOK(span)
	ok(w, resp)
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !strings.HasSuffix(name, ".png") {
		notFound(w, "plot not found")
		return
	}
	path, err := pathutil.SafeJoin(s.cfg.Plots.Dir, name)
	if err != nil {
		notFound(w, "plot not found")
		return
	}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		notFound(w, "plot not found")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=0")
	http.ServeFile(w, r, path)
}

func (s *Server) handleFormulaCurve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src := q.Get("formula")
	if src == "" {
		badRequest(w, "invalid_request", "missing 'formula' query parameter")
		return
	}

	points := constants.DefaultCurvePoints
	if v := q.Get("points"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 || n > constants.MaxCurvePoints {
			badRequest(w, "invalid_request", "points must be an integer between 2 and "+strconv.Itoa(constants.MaxCurvePoints))
			return
		}
		points = n
	}

	f, err := formula.Compile(src)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	ok(w, CurveResponse{
		Formula:    src,
		Normalized: f.String(),
		Points:     curvePoints(f.Linspace(0, 1, points)),
	})
}

func (s *Server) handleFormulaFunctions(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string][]string{
		"functions": formula.Functions(),
		"constants": {"pi", "e"},
		"operators": {"+", "-", "*", "/", "^", "**"},
	})
}

func curvePoints(pts []formula.Point) []CurvePoint {
	out := make([]CurvePoint, len(pts))
	for i, p := range pts {
		out[i].X = p.X
		if !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) {
			y := p.Y
			out[i].Y = &y
		}
	}
	return out
}
