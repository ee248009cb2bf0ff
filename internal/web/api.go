package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sloppy/threatone/internal/app"
	"github.com/sloppy/threatone/internal/intel"
	"github.com/sloppy/threatone/internal/logger"
	"github.com/sloppy/threatone/internal/store"
	"github.com/sloppy/threatone/internal/view"
)

const maxJSONBody = 1 << 20

var errBadRequest = errors.New("bad request")

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "API request failed", "path", r.URL.Path, "error", err)
	}
	s.jsonResponse(w, map[string]string{"error": err.Error()}, status)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, format string, args ...any) {
	s.jsonError(w, r, fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...)))
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrValidation),
		errors.Is(err, app.ErrMissingInput),
		errors.Is(err, app.ErrUnknownFormat),
		errors.Is(err, app.ErrUnknownFilter):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, app.ErrUnknownAction),
		errors.Is(err, app.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, intel.ErrInvalidTransition),
		errors.Is(err, view.ErrInvalidTransition),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", errBadRequest)
		}
		return fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
	}
	return nil
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return id, nil
}
