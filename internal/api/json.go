package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/chemid/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error          string `json:"error" validate:"required"`
	UpstreamStatus int    `json:"upstream_status,omitempty" example:"503"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps the lookup error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if code, ok := apperr.StatusCode(err); ok {
		slog.Warn(op+" upstream error", slog.Int("upstream_status", code), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errResponse{Error: "upstream error", UpstreamStatus: code})
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// Client went away; nothing useful to send.
	default:
		slog.Error(op+" failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
