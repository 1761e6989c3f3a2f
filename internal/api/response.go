package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nvandessel/swipesim/internal/formula"
	"github.com/nvandessel/swipesim/internal/simulation"
)

// ErrorResponse is the error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// Position is the byte offset of a formula error.
	Position *int `json:"position,omitempty"`
}

// writeJSON writes data with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("json encode", "error", err)
	}
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func badRequest(w http.ResponseWriter, code, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: code})
}

func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: message, Code: "not_found"})
}

// internalError logs err and returns a generic message to the client.
func internalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// writeError maps domain errors to 400 and anything else to 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		fe  *formula.FormulaError
		ce  *simulation.ConfigurationError
		ice *simulation.InvalidCohortError
		re  *requestError
	)
	switch {
	case errors.As(err, &fe):
		pos := fe.Pos
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_formula", Position: &pos})
	case errors.As(err, &ce):
		badRequest(w, "invalid_configuration", err.Error())
	case errors.As(err, &ice):
		badRequest(w, "invalid_cohort", err.Error())
	case errors.As(err, &re):
		badRequest(w, "invalid_request", err.Error())
	default:
		internalError(w, logger, err)
	}
}

// decode reads a JSON body into dst. It returns false and writes a 400
// response if parsing fails.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		badRequest(w, "invalid_json", "invalid JSON: "+err.Error())
		return false
	}
	return true
}

const maxBodyBytes = 64 << 10
