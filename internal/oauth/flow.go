package oauth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	stateCookieName = "__oauth_state"
	pkceCookieName  = "__oauth_pkce"
	flowTTL         = 5 * time.Minute
)

// Flow carries the per-login secrets that must survive the round trip to
// the provider. Both live in short-lived HttpOnly cookies.
type Flow struct {
	Secure bool
}

// Begin sets the state and PKCE cookies and returns the values to put in
// the authorization URL.
func (f Flow) Begin(w http.ResponseWriter) (state, codeChallenge string, err error) {
	state, err = randomToken()
	if err != nil {
		return "", "", err
	}
	verifier := oauth2.GenerateVerifier()
	codeChallenge = oauth2.S256ChallengeFromVerifier(verifier)

	f.setCookie(w, stateCookieName, state, int(flowTTL.Seconds()))
	f.setCookie(w, pkceCookieName, verifier, int(flowTTL.Seconds()))
	return state, codeChallenge, nil
}

// Complete checks the state echoed by the provider and returns the PKCE
// verifier. The flow cookies are cleared either way.
func (f Flow) Complete(w http.ResponseWriter, r *http.Request) (verifier string, ok bool) {
	defer func() {
		f.setCookie(w, stateCookieName, "", -1)
		f.setCookie(w, pkceCookieName, "", -1)
	}()

	stateQuery := r.URL.Query().Get("state")
	if stateQuery == "" {
		return "", false
	}
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || subtle.ConstantTimeCompare([]byte(stateCookie.Value), []byte(stateQuery)) != 1 {
		return "", false
	}

	pkceCookie, err := r.Cookie(pkceCookieName)
	if err != nil || pkceCookie.Value == "" {
		return "", false
	}
	return pkceCookie.Value, true
}

func (f Flow) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   f.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
