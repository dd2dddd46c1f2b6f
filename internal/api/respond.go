package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"item-server/internal/apperr"

	"github.com/go-chi/chi/v5/middleware"
)

type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

type ErrorResponse struct {
	Success bool                `json:"success" example:"false"`
	Error   string              `json:"error" example:"Not found"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondSuccess(w http.ResponseWriter) {
	respondWithJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// respondError writes the JSON error envelope for err. Causes of internal
// failures are logged, never returned.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	resp := ErrorResponse{Error: apperr.Message(err)}

	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	}

	switch {
	case status >= http.StatusInternalServerError:
		s.log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	case status == http.StatusUnauthorized:
		s.metrics.authFailures.WithLabelValues("unauthenticated").Inc()
	case status == http.StatusTooManyRequests:
		s.metrics.authFailures.WithLabelValues("rate_limited").Inc()
	}

	respondWithJSON(w, status, resp)
}
