package authcore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

// mailTimeout bounds reset-code delivery; a timeout is the same failure
// class as any other delivery error.
const mailTimeout = 10 * time.Second

// AuthController orchestrates registration, login, OAuth login and the
// password-reset flow into HTTP operations.
type AuthController struct {
	Store    CredentialStore
	Tokens   *TokenIssuer
	Codes    *ResetCodeManager
	Resolver *OAuthIdentityResolver
	Mailer   Mailer

	// Session is optional server-side session state; when set, logins
	// record the user ID there and logouts clear it.
	Session *scs.SessionManager

	// FrontendURL is where the browser is sent after a server-side OAuth
	// callback.
	FrontendURL string
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ErrBadRequest("Invalid request body.")
	}
	return nil
}

// issueSession signs a token for the user and attaches it to the response as
// the session cookie.
func (a *AuthController) issueSession(w http.ResponseWriter, r *http.Request, user *User) (string, error) {
	token, err := a.Tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("failed to issue session: %w", err)
	}
	http.SetCookie(w, a.Tokens.SessionCookie(token))
	if a.Session != nil {
		a.Session.Put(r.Context(), "loggedInUserId", user.ID)
	}
	return token, nil
}

// HandleRegister handles POST /register.
func (a *AuthController) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	email := NormalizeEmail(req.Email)
	if req.Name == "" || email == "" || req.Password == "" {
		writeError(w, ErrBadRequest("Name, email and password are required."))
		return
	}

	if _, err := a.Store.GetUserByEmail(r.Context(), email); err == nil {
		writeError(w, ErrConflict("User already registered."))
		return
	} else if err != ErrUserNotFound {
		slog.Error("register: lookup failed", "err", err)
		writeError(w, err)
		return
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		slog.Error("register: hash failed", "err", err)
		writeError(w, err)
		return
	}

	user := &User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
	}
	if err := a.Store.CreateUser(r.Context(), user); err != nil {
		slog.Error("register: create failed", "err", err)
		writeError(w, err)
		return
	}

	// No session on register - the caller logs in separately.
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Registration successful.",
	})
}

// HandleLogin handles POST /login. Unknown email and wrong password yield
// the same signal so callers cannot enumerate accounts.
func (a *AuthController) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.Store.GetUserByEmail(r.Context(), NormalizeEmail(req.Email))
	if err != nil {
		writeError(w, ErrNotFound("Invalid login credentials."))
		return
	}
	if !VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, ErrNotFound("Invalid login credentials."))
		return
	}

	if _, err := a.issueSession(w, r, user); err != nil {
		slog.Error("login: session issue failed", "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
		"message": "Login successful.",
	})
}

// HandleGoogleLogin handles POST /google-login: a client-submitted OAuth
// payload whose claims were already extracted by a client-side exchange.
func (a *AuthController) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Avatar string `json:"avatar"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.Resolver.ResolveOrCreate(r.Context(), Profile{
		Name:      req.Name,
		Email:     req.Email,
		AvatarURL: req.Avatar,
	})
	if err != nil {
		slog.Error("google login failed", "err", err)
		writeError(w, err)
		return
	}

	if _, err := a.issueSession(w, r, user); err != nil {
		slog.Error("google login: session issue failed", "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
		"message": "Login successful.",
	})
}

// CompleteOAuthLogin finishes a server-side OAuth callback: resolve the
// profile to a user, set the session cookie, and send the browser back to
// the front end. This path is a redirect, never a JSON response.
func (a *AuthController) CompleteOAuthLogin(w http.ResponseWriter, r *http.Request, profile Profile) {
	user, err := a.Resolver.ResolveOrCreate(r.Context(), profile)
	if err != nil {
		slog.Error("oauth callback failed", "err", err)
		writeError(w, err)
		return
	}
	if _, err := a.issueSession(w, r, user); err != nil {
		slog.Error("oauth callback: session issue failed", "err", err)
		writeError(w, err)
		return
	}
	http.Redirect(w, r, a.FrontendURL, http.StatusFound)
}

// HandleLogout handles GET /logout. Always succeeds.
func (a *AuthController) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, a.Tokens.ClearSessionCookie())
	if a.Session != nil {
		if err := a.Session.Clear(r.Context()); err != nil {
			slog.Warn("logout: failed to clear session", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logout successful.",
	})
}

// HandleForgotPassword handles POST /forgotPassword: issue a one-time code
// and deliver it by email. If delivery fails the challenge is cleared before
// reporting the failure - a code the user cannot have received must not stay
// active.
func (a *AuthController) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.Store.GetUserByEmail(r.Context(), NormalizeEmail(req.Email))
	if err != nil {
		writeError(w, ErrNotFound("There is no user with that email."))
		return
	}

	code, err := a.Codes.Issue(r.Context(), user)
	if err != nil {
		slog.Error("forgot password: issue failed", "err", err)
		writeError(w, err)
		return
	}

	mailCtx, cancel := context.WithTimeout(r.Context(), mailTimeout)
	defer cancel()
	if err := a.Mailer.Send(mailCtx, user.Email, ResetCodeEmailSubject, ResetCodeEmailBody(user.Name, code)); err != nil {
		slog.Error("forgot password: delivery failed", "err", err)
		if err := a.Codes.Consume(r.Context(), user); err != nil {
			slog.Error("forgot password: rollback failed", "err", err)
		}
		writeError(w, ErrInternal("There is an error in sending email."))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Reset code sent to email.",
	})
}

// HandleVerifyResetCode handles POST /verifyResetCode. Wrong and expired
// codes get one generic failure.
func (a *AuthController) HandleVerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResetCode string `json:"resetCode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := a.Codes.Verify(r.Context(), req.ResetCode); err != nil {
		if err == ErrUserNotFound {
			writeError(w, ErrBadRequest("Reset code invalid or expired."))
		} else {
			slog.Error("verify reset code failed", "err", err)
			writeError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
	})
}

// HandleResetPassword handles PUT /resetPassword. Requires a previously
// verified challenge; stores the new hash and clears the challenge in one
// write, then hands back a fresh session token in the payload.
func (a *AuthController) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.Store.GetUserByEmail(r.Context(), NormalizeEmail(req.Email))
	if err != nil {
		writeError(w, ErrNotFound("There is no user with that email."))
		return
	}

	if user.Reset == nil || !user.Reset.Verified {
		writeError(w, ErrBadRequest("Reset code not verified."))
		return
	}

	passwordHash, err := HashPassword(req.NewPassword)
	if err != nil {
		slog.Error("reset password: hash failed", "err", err)
		writeError(w, err)
		return
	}

	user.PasswordHash = passwordHash
	user.Reset = nil
	if err := a.Store.SaveUser(r.Context(), user); err != nil {
		slog.Error("reset password: save failed", "err", err)
		writeError(w, err)
		return
	}

	token, err := a.Tokens.Issue(user)
	if err != nil {
		slog.Error("reset password: token issue failed", "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
		"token":   token,
	})
}
