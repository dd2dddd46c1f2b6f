package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes builds the application router. Callers may mount extra routes on
// the returned mux, such as /metrics and /swagger.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.HealthCheckHandler)
	r.Get("/ws", s.ServeWsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(s.respondError))
		}

		r.Post("/auth/register", s.RegisterHandler)
		r.Post("/auth/login", s.LoginHandler)
		r.Post("/auth/logout", s.LogoutHandler)
		r.Post("/auth/phone/start", s.PhoneStartHandler)
		r.Post("/auth/phone/verify", s.PhoneVerifyHandler)
		r.Get("/auth/oauth/{provider}/login", s.OAuthLoginHandler)
		r.Get("/auth/oauth/{provider}/callback", s.OAuthCallbackHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.guard.Middleware)

			r.Get("/me", s.GetCurrentUserHandler)
			r.Delete("/me", s.DeleteCurrentUserHandler)
			r.Post("/me/phone", s.LinkPhoneHandler)

			r.Get("/sessions", s.ListSessionsHandler)
			r.Delete("/sessions/{sessionId}", s.DeleteSessionHandler)
			r.Post("/sessions/terminate_all", s.TerminateAllSessionsHandler)

			r.Get("/items", s.ListItemsHandler)
			r.Post("/items", s.CreateItemHandler)
			r.Get("/items/{itemId}", s.GetItemHandler)
			r.Put("/items/{itemId}", s.UpdateItemHandler)
			r.Patch("/items/{itemId}", s.UpdateItemHandler)
			r.Delete("/items/{itemId}", s.DeleteItemHandler)
			r.Post("/items/{itemId}/image", s.UploadItemImageHandler)
			r.Get("/items/{itemId}/image", s.GetItemImageHandler)

			r.Get("/events", s.GetEventsHandler)
			r.Get("/ws/ticket", s.WsTicketHandler)
		})
	})

	return r
}
