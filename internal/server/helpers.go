package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cwbudde/proxsweep/internal/minimize"
	"github.com/cwbudde/proxsweep/internal/objective"
	"github.com/cwbudde/proxsweep/internal/prox"
	"github.com/cwbudde/proxsweep/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// badRequestError marks malformed requests.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		unknown  *objective.UnknownObjectiveError
		settings *minimize.SettingsError
		bad      *badRequestError
	)
	switch {
	case errors.Is(err, minimize.ErrInvalidInterval),
		errors.Is(err, prox.ErrInvalidParameter),
		errors.As(err, &unknown),
		errors.As(err, &settings),
		errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, minimize.ErrNonFiniteObjective):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrJobNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrJobFinished):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

// fail writes err with the status statusFor picks.
func fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	writeError(w, code, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}
