package api

import (
	"item-server/internal/accounts"
	"item-server/internal/auth"
	"item-server/internal/config"
	"item-server/internal/database"
	"item-server/internal/items"
	"item-server/internal/oauth"
	"item-server/internal/ratelimit"
	"item-server/internal/session"
	"item-server/internal/websocket"

	"github.com/rs/zerolog"
)

// Dependencies are the collaborators the HTTP layer is built from. Limiter
// and OAuth may be nil.
type Dependencies struct {
	Config   *config.Config
	Store    *database.Store
	Sessions *session.Store
	Tickets  *auth.Tickets
	Accounts *accounts.Service
	Items    *items.Service
	OAuth    *oauth.Registry
	Limiter  *ratelimit.Limiter
	Hub      *websocket.Hub
	Metrics  *Metrics
	Log      zerolog.Logger
}

type Server struct {
	config    *config.Config
	store     *database.Store
	sessions  *session.Store
	guard     *auth.Guard
	tickets   *auth.Tickets
	accounts  *accounts.Service
	items     *items.Service
	oauth     *oauth.Registry
	oauthFlow oauth.Flow
	limiter   *ratelimit.Limiter
	wsHub     *websocket.Hub
	metrics   *Metrics
	cookie    session.CookieOptions
	log       zerolog.Logger
}

func NewServer(deps Dependencies) *Server {
	s := &Server{
		config:    deps.Config,
		store:     deps.Store,
		sessions:  deps.Sessions,
		tickets:   deps.Tickets,
		accounts:  deps.Accounts,
		items:     deps.Items,
		oauth:     deps.OAuth,
		oauthFlow: oauth.Flow{Secure: deps.Config.Session.SecureCookie},
		limiter:   deps.Limiter,
		wsHub:     deps.Hub,
		metrics:   deps.Metrics,
		cookie: session.CookieOptions{
			Name:   deps.Config.Session.CookieName,
			Secure: deps.Config.Session.SecureCookie,
		},
		log: deps.Log,
	}
	if s.oauth == nil {
		s.oauth = oauth.NewRegistry()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.guard = auth.NewGuard(deps.Sessions, deps.Config.Session.CookieName, s.respondError)
	return s
}
