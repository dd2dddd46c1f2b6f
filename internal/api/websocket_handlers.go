package api

import (
	"net/http"
	"time"

	"item-server/internal/apperr"
	"item-server/internal/websocket"
)

type TicketResponse struct {
	Success   bool      `json:"success" example:"true"`
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

// @Summary      Get a websocket ticket
// @Description  Issues a short-lived ticket to pass as ?ticket= when opening /ws.
// @Tags         events
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Success      200  {object}  TicketResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /ws/ticket [get]
func (s *Server) WsTicketHandler(w http.ResponseWriter, r *http.Request) {
	ticket, expiresAt, err := s.tickets.Issue(currentUserID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, TicketResponse{Success: true, Ticket: ticket, ExpiresAt: expiresAt})
}

// ServeWsHandler upgrades to a websocket that streams the caller's item
// events.
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		s.respondError(w, r, apperr.ErrUnauthenticated)
		return
	}

	claims, err := s.tickets.Verify(ticket)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket connection attempt with invalid ticket")
		s.respondError(w, r, apperr.ErrUnauthenticated)
		return
	}

	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	websocket.NewClient(s.wsHub, conn, claims.UserID).Serve()
}
