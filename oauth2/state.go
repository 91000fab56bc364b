package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

const stateCookieName = "oauthstate"

// stateTTL bounds how long a login redirect may stay pending.
const stateTTL = 10 * time.Minute

// setStateCookie generates an unguessable state value, stores it in a
// short-lived cookie, and returns it for the authorize URL.
func setStateCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(stateTTL),
	})
	return state, nil
}

// checkState compares the state echoed by the provider with the cookie set
// at the start of the flow, then drops the cookie either way.
func checkState(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return fmt.Errorf("missing oauth state cookie")
	}
	if state := r.FormValue("state"); state == "" || state != cookie.Value {
		return fmt.Errorf("oauth state mismatch")
	}
	return nil
}
