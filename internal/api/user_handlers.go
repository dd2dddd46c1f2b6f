package api

import (
	"net/http"

	"item-server/internal/models"
	"item-server/internal/session"
)

type UserResponse struct {
	Success bool         `json:"success" example:"true"`
	User    *models.User `json:"user"`
}

type LinkPhoneRequest struct {
	MethodID string `json:"method_id" form:"method_id"`
	Code     string `json:"code" form:"code" example:"123456"`
}

// @Summary      Get current user info
// @Description  Returns the user behind the presented session.
// @Tags         users
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Get(r.Context(), currentUserID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, UserResponse{Success: true, User: user})
}

// @Summary      Delete the current user
// @Description  Deletes the account with all of its sessions, items and events.
// @Tags         users
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /me [delete]
func (s *Server) DeleteCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Delete(r.Context(), currentUserID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}

	session.ClearCookie(w, s.cookie)
	respondSuccess(w)
}

// @Summary      Link a phone number
// @Description  Attaches a phone verified with a one-time code to the current user.
// @Tags         users
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Security     SessionCookie
// @Security     BearerAuth
// @Param        linkPhoneRequest  body      LinkPhoneRequest  true  "Code sent by /auth/phone/start"
// @Success      200               {object}  UserResponse
// @Failure      400               {object}  ErrorResponse
// @Failure      401               {object}  ErrorResponse
// @Failure      409               {object}  ErrorResponse
// @Failure      500               {object}  ErrorResponse
// @Router       /me/phone [post]
func (s *Server) LinkPhoneHandler(w http.ResponseWriter, r *http.Request) {
	var req LinkPhoneRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.accounts.LinkPhone(r.Context(), currentUserID(r), req.MethodID, req.Code)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, UserResponse{Success: true, User: user})
}
