package api

import (
	"net/http"

	"item-server/internal/models"
	"item-server/internal/session"
)

// @Summary      List active sessions
// @Description  Gets a list of all active sessions for the currently authenticated user, which can be displayed to allow them to manage devices.
// @Tags         sessions
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Success      200  {array}   models.Session
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions [get]
func (s *Server) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context(), currentUserID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}

	respondWithJSON(w, http.StatusOK, sessions)
}

// @Summary      Terminate a specific session
// @Description  Terminates (logs out) a specific session by its ID. Sessions of other users are reported as not found.
// @Tags         sessions
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "ID of the session to terminate" format(uuid)
// @Success      200        {object}  SuccessResponse
// @Failure      401        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      500        {object}  ErrorResponse
// @Router       /sessions/{sessionId} [delete]
func (s *Server) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuidParam(r, "sessionId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.sessions.DestroyByID(r.Context(), currentUserID(r), sessionID); err != nil {
		s.respondError(w, r, err)
		return
	}

	respondSuccess(w)
}

// @Summary      Terminate all sessions (Log out everywhere)
// @Description  Terminates all sessions of the current user, including the one making the request.
// @Tags         sessions
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions/terminate_all [post]
func (s *Server) TerminateAllSessionsHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.DestroyAll(r.Context(), currentUserID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}

	session.ClearCookie(w, s.cookie)
	respondSuccess(w)
}
