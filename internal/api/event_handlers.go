package api

import (
	"net/http"
	"strconv"

	"item-server/internal/apperr"
	"item-server/internal/models"
)

// @Summary      Get new events
// @Description  Retrieves up to 100 item events that happened after the given event ID. Used for client-side cache synchronization.
// @Tags         events
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        since  query     int  false  "The ID of the last event received. Omit or use 0 to get all events."
// @Success      200    {array}   models.Event
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /events [get]
func (s *Server) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	sinceStr := r.URL.Query().Get("since")
	if sinceStr == "" {
		sinceStr = "0"
	}

	sinceID, err := strconv.ParseInt(sinceStr, 10, 64)
	if err != nil {
		s.respondError(w, r, apperr.Validation("since", "must be a number"))
		return
	}

	events, err := s.store.GetEventsSince(r.Context(), currentUserID(r), sinceID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	respondWithJSON(w, http.StatusOK, events)
}
