package auth

import (
	"context"
	"net/http"
	"strings"

	"item-server/internal/apperr"
)

// Resolver maps a session token to its owner. *session.Store satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

// ErrorWriter renders a failed authentication. The api package supplies its
// JSON envelope here.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Guard authenticates requests from the session cookie or, failing that, a
// Bearer token, and gates access to owned records.
type Guard struct {
	sessions   Resolver
	cookieName string
	onError    ErrorWriter
}

func NewGuard(sessions Resolver, cookieName string, onError ErrorWriter) *Guard {
	if cookieName == "" {
		cookieName = "session"
	}
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, apperr.Message(err), apperr.Status(err))
		}
	}
	return &Guard{sessions: sessions, cookieName: cookieName, onError: onError}
}

// TokenFromRequest returns the session token carried by r. The cookie wins
// over the Authorization header.
func (g *Guard) TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(g.cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "Bearer") {
		return ""
	}
	return headerParts[1]
}

func (g *Guard) Authenticate(r *http.Request) (int64, error) {
	token := g.TokenFromRequest(r)
	if token == "" {
		return 0, apperr.ErrUnauthenticated
	}
	return g.sessions.Resolve(r.Context(), token)
}

// Middleware rejects unauthenticated requests and stores the caller's id in
// the request context.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := g.Authenticate(r)
		if err != nil {
			g.onError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

type contextKey string

const userContextKey = contextKey("user")

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userContextKey).(int64)
	return userID, ok
}

// AuthorizeOwnership allows the caller to touch a record only when it owns
// it. A foreign record is reported as missing so its existence never leaks.
func AuthorizeOwnership(callerID, ownerID int64) error {
	if callerID != ownerID {
		return apperr.ErrNotFound
	}
	return nil
}
