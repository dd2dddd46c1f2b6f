package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"item-server/internal/config"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type stubProvider struct{ name string }

func (s stubProvider) Name() string                              { return s.name }
func (s stubProvider) AuthCodeURL(state, challenge string) string { return "https://idp/?state=" + state }
func (s stubProvider) ExchangeCode(context.Context, string, string) (*Identity, error) {
	return &Identity{Provider: s.name}, nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(stubProvider{name: "google"})

	p, err := reg.Get("google")
	require.NoError(t, err)
	require.Equal(t, "google", p.Name())

	_, err = reg.Get("myspace")
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func cookieMap(cookies []*http.Cookie) map[string]*http.Cookie {
	m := make(map[string]*http.Cookie, len(cookies))
	for _, c := range cookies {
		m[c.Name] = c
	}
	return m
}

func TestFlow_RoundTrip(t *testing.T) {
	flow := Flow{Secure: true}

	rr := httptest.NewRecorder()
	state, challenge, err := flow.Begin(rr)
	require.NoError(t, err)

	cookies := cookieMap(rr.Result().Cookies())
	require.Equal(t, state, cookies[stateCookieName].Value)
	require.True(t, cookies[stateCookieName].HttpOnly)
	require.True(t, cookies[pkceCookieName].Secure)

	verifier := cookies[pkceCookieName].Value
	sum := sha256.Sum256([]byte(verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)

	req := httptest.NewRequest(http.MethodGet, "/callback?code=abc&state="+url.QueryEscape(state), nil)
	req.AddCookie(cookies[stateCookieName])
	req.AddCookie(cookies[pkceCookieName])

	rr = httptest.NewRecorder()
	got, ok := flow.Complete(rr, req)
	require.True(t, ok)
	require.Equal(t, verifier, got)

	cleared := cookieMap(rr.Result().Cookies())
	require.Equal(t, -1, cleared[stateCookieName].MaxAge)
	require.Equal(t, -1, cleared[pkceCookieName].MaxAge)
}

func TestFlow_StateMismatch(t *testing.T) {
	flow := Flow{}

	rr := httptest.NewRecorder()
	_, _, err := flow.Begin(rr)
	require.NoError(t, err)
	cookies := cookieMap(rr.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/callback?state=forged", nil)
	req.AddCookie(cookies[stateCookieName])
	req.AddCookie(cookies[pkceCookieName])

	_, ok := flow.Complete(httptest.NewRecorder(), req)
	require.False(t, ok)

	_, ok = flow.Complete(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback", nil))
	require.False(t, ok)
}

func TestGoogle_AuthCodeURL(t *testing.T) {
	g := newGoogle(config.OAuthClientConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/v1/auth/oauth/google/callback",
	}, oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: "https://accounts.example.com/token"}, nil)

	require.Equal(t, "google", g.Name())

	u, err := url.Parse(g.AuthCodeURL("st", "ch"))
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "st", q.Get("state"))
	require.Equal(t, "ch", q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Equal(t, "client", q.Get("client_id"))
	require.Contains(t, q.Get("scope"), "openid")
}

func TestNewGoogle_RequiresConfig(t *testing.T) {
	_, err := NewGoogle(context.Background(), config.OAuthClientConfig{ClientID: "only-id"})
	require.Error(t, err)
}
