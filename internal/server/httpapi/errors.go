package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/monkeyandriver/healthforge/internal/server/evaluation"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "error encoding response", "error", err.Error())
	}
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, &errorResponse{Error: msg})
}

// writeError maps domain errors to HTTP status codes. Messages stay generic
// for 5xx responses so upstream bodies and internal detail never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *evaluation.UpstreamError
	var processing *evaluation.ProcessingError

	switch {
	case errors.Is(err, common.ErrValidation):
		s.writeStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		s.writeStatus(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		s.writeStatus(w, http.StatusNotFound, "not found")
	case errors.As(err, &upstream),
		errors.As(err, &processing),
		errors.Is(err, evaluation.ErrMalformedResponse):
		s.logger.Error(r.Context(), "evaluation failed", "error", err.Error())
		s.writeStatus(w, http.StatusBadGateway, "evaluation service unavailable")
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		s.writeStatus(w, http.StatusInternalServerError, "internal error")
	}
}
