package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"item-server/internal/apperr"

	"github.com/stretchr/testify/require"
)

type staticResolver map[string]int64

func (s staticResolver) Resolve(_ context.Context, token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, apperr.ErrUnauthenticated
}

func TestGuard_Authenticate(t *testing.T) {
	guard := NewGuard(staticResolver{"cookie-token": 1, "bearer-token": 2}, "session", nil)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		wantID  int64
		wantErr error
	}{
		{
			name:    "no credentials",
			prepare: func(r *http.Request) {},
			wantErr: apperr.ErrUnauthenticated,
		},
		{
			name: "cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "session", Value: "cookie-token"})
			},
			wantID: 1,
		},
		{
			name: "bearer",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer bearer-token")
			},
			wantID: 2,
		},
		{
			name: "cookie wins over header",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "session", Value: "cookie-token"})
				r.Header.Set("Authorization", "Bearer bearer-token")
			},
			wantID: 1,
		},
		{
			name: "malformed header",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Token bearer-token")
			},
			wantErr: apperr.ErrUnauthenticated,
		},
		{
			name: "unknown token",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer nope")
			},
			wantErr: apperr.ErrUnauthenticated,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.prepare(req)

			userID, err := guard.Authenticate(req)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantID, userID)
		})
	}
}

func TestGuard_Middleware(t *testing.T) {
	guard := NewGuard(staticResolver{"good": 77}, "session", nil)

	var seen int64
	handler := guard.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Zero(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, int64(77), seen)
}

func TestAuthorizeOwnership(t *testing.T) {
	require.NoError(t, AuthorizeOwnership(1, 1))
	require.ErrorIs(t, AuthorizeOwnership(1, 2), apperr.ErrNotFound)
}
