// Package oauth2 implements the server-side OAuth redirect flows. Each
// provider turns a callback request into an identity Profile; session
// issuance stays with the caller.
package oauth2

import (
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/easytrans/authcore"
)

// Google drives the Google authorization-code flow.
type Google struct {
	config oauth2.Config
}

func NewGoogle(clientID, clientSecret, callbackURL string) *Google {
	return &Google{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
	}
}

// HandleStart sets the state cookie and redirects the browser to Google's
// consent page.
func (g *Google) HandleStart(w http.ResponseWriter, r *http.Request) {
	state, err := setStateCookie(w)
	if err != nil {
		slog.Error("google oauth: state generation failed", "err", err)
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, g.config.AuthCodeURL(state), http.StatusFound)
}

// Callback validates the state echo, exchanges the authorization code and
// fetches the user's profile from the userinfo endpoint.
func (g *Google) Callback(w http.ResponseWriter, r *http.Request) (authcore.Profile, error) {
	if err := checkState(w, r); err != nil {
		return authcore.Profile{}, err
	}

	token, err := g.config.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		return authcore.Profile{}, fmt.Errorf("code exchange failed: %w", err)
	}

	svc, err := goauth.NewService(r.Context(), option.WithTokenSource(g.config.TokenSource(r.Context(), token)))
	if err != nil {
		return authcore.Profile{}, fmt.Errorf("failed to build userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Do()
	if err != nil {
		return authcore.Profile{}, fmt.Errorf("failed to fetch userinfo: %w", err)
	}

	return authcore.Profile{
		Name:      info.Name,
		Email:     info.Email,
		AvatarURL: info.Picture,
	}, nil
}

// CallbackHandler adapts Callback into an http.Handler. Failures send the
// browser to failURL instead of a JSON error since this endpoint is only
// ever hit by a redirect.
func (g *Google) CallbackHandler(failURL string, complete func(w http.ResponseWriter, r *http.Request, profile authcore.Profile)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile, err := g.Callback(w, r)
		if err != nil {
			slog.Error("google oauth callback failed", "err", err)
			http.Redirect(w, r, failURL, http.StatusTemporaryRedirect)
			return
		}
		complete(w, r, profile)
	})
}
