package api

import (
	"net/http"
	"time"

	"item-server/internal/accounts"
	"item-server/internal/apperr"
	"item-server/internal/models"
	"item-server/internal/session"

	"github.com/go-chi/chi/v5"
)

type LoginRequest struct {
	Email    string `json:"email" form:"email" example:"a@x.com"`
	Password string `json:"password" form:"password" example:"correct horse"`
}

// SessionResponse is returned by every sign-in route. Browsers use the
// cookie; mobile clients send Token as a Bearer credential.
type SessionResponse struct {
	Success   bool         `json:"success" example:"true"`
	User      *models.User `json:"user"`
	Token     string       `json:"token" example:"V1StGXR8_Z5jdHi6B-myT78q_Z5jdHi6B-myT78q_Z5jdHi6B"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type PhoneStartRequest struct {
	Phone string `json:"phone" form:"phone" example:"+48123456789"`
}

type PhoneStartResponse struct {
	Success  bool   `json:"success" example:"true"`
	MethodID string `json:"method_id" example:"phone-number-test-d5a3b680-e8a3-40c0-b815-ab79986666d0"`
}

type PhoneVerifyRequest struct {
	MethodID string `json:"method_id" form:"method_id"`
	Code     string `json:"code" form:"code" example:"123456"`
	Email    string `json:"email,omitempty" form:"email" example:"a@x.com"`
}

// startSession issues a session for user, sets the cookie and writes the
// response.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *models.User, method string, status int) {
	sess, err := s.sessions.Create(r.Context(), user.ID, session.Metadata{
		UserAgent: r.UserAgent(),
		ClientIP:  r.RemoteAddr,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.sessionsCreated.WithLabelValues(method).Inc()

	session.SetCookie(w, sess.Token, sess.ExpiresAt, s.cookie)
	respondWithJSON(w, status, SessionResponse{
		Success:   true,
		User:      user,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	})
}

// @Summary      Register a new user
// @Description  Creates a user with an email and password and signs them in.
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        registerRequest  body      accounts.RegisterInput  true  "New account"
// @Success      201              {object}  SessionResponse
// @Failure      400              {object}  ErrorResponse
// @Failure      409              {object}  ErrorResponse
// @Failure      500              {object}  ErrorResponse
// @Router       /auth/register [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req accounts.RegisterInput
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, withConstraints(err, req.Validate))
		return
	}

	user, err := s.accounts.Register(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.startSession(w, r, user, "register", http.StatusCreated)
}

// @Summary      Logs a user in
// @Description  Checks an email and password and issues a session cookie.
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        loginRequest  body      LoginRequest  true  "Login Credentials"
// @Success      200           {object}  SessionResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      401           {object}  ErrorResponse
// @Failure      500           {object}  ErrorResponse
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.startSession(w, r, user, "password", http.StatusOK)
}

// @Summary      Logs the current session out
// @Description  Destroys the presented session and clears the cookie. Succeeds even without a valid session.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context(), s.guard.TokenFromRequest(r)); err != nil {
		s.respondError(w, r, err)
		return
	}

	session.ClearCookie(w, s.cookie)
	respondSuccess(w)
}

// @Summary      Send a one-time code
// @Description  Sends an SMS code to the phone number. The returned method_id is needed to verify it.
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        phoneStartRequest  body      PhoneStartRequest  true  "Phone number in E.164 format"
// @Success      200                {object}  PhoneStartResponse
// @Failure      400                {object}  ErrorResponse
// @Failure      500                {object}  ErrorResponse
// @Router       /auth/phone/start [post]
func (s *Server) PhoneStartHandler(w http.ResponseWriter, r *http.Request) {
	var req PhoneStartRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	methodID, err := s.accounts.StartPhone(r.Context(), req.Phone)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, PhoneStartResponse{Success: true, MethodID: methodID})
}

// @Summary      Verify a one-time code
// @Description  Signs in the owner of the verified phone. An unknown phone creates an account, which requires an email.
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        phoneVerifyRequest  body      PhoneVerifyRequest  true  "Code to verify"
// @Success      200                 {object}  SessionResponse
// @Failure      400                 {object}  ErrorResponse
// @Failure      401                 {object}  ErrorResponse
// @Failure      409                 {object}  ErrorResponse
// @Failure      500                 {object}  ErrorResponse
// @Router       /auth/phone/verify [post]
func (s *Server) PhoneVerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req PhoneVerifyRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.accounts.VerifyPhone(r.Context(), req.MethodID, req.Code, req.Email)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.startSession(w, r, user, "phone", http.StatusOK)
}

// @Summary      Start an OAuth login
// @Description  Redirects to the provider's consent page with state and PKCE parameters.
// @Tags         auth
// @Param        provider  path      string  true  "Provider name, e.g. google"
// @Success      302       {string}  string  "Redirect to the provider"
// @Failure      404       {object}  ErrorResponse
// @Router       /auth/oauth/{provider}/login [get]
func (s *Server) OAuthLoginHandler(w http.ResponseWriter, r *http.Request) {
	provider, err := s.oauth.Get(chi.URLParam(r, "provider"))
	if err != nil {
		s.respondError(w, r, apperr.ErrNotFound)
		return
	}

	state, challenge, err := s.oauthFlow.Begin(w)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	http.Redirect(w, r, provider.AuthCodeURL(state, challenge), http.StatusFound)
}

// @Summary      Finish an OAuth login
// @Description  Validates state, exchanges the code, links or creates the user and issues a session.
// @Tags         auth
// @Produce      json
// @Param        provider  path      string  true  "Provider name, e.g. google"
// @Param        code      query     string  true  "Authorization code"
// @Param        state     query     string  true  "State echoed by the provider"
// @Success      200       {object}  SessionResponse
// @Failure      401       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      409       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /auth/oauth/{provider}/callback [get]
func (s *Server) OAuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	provider, err := s.oauth.Get(chi.URLParam(r, "provider"))
	if err != nil {
		s.respondError(w, r, apperr.ErrNotFound)
		return
	}

	verifier, ok := s.oauthFlow.Complete(w, r)
	code := r.URL.Query().Get("code")
	if !ok || code == "" {
		s.metrics.authFailures.WithLabelValues("oauth_state").Inc()
		s.respondError(w, r, apperr.ErrUnauthenticated)
		return
	}

	identity, err := provider.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		s.log.Warn().Err(err).Str("provider", provider.Name()).Msg("oauth exchange failed")
		s.respondError(w, r, apperr.ErrUnauthenticated)
		return
	}

	user, err := s.accounts.ResolveIdentity(r.Context(), identity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.startSession(w, r, user, "oauth_"+provider.Name(), http.StatusOK)
}
