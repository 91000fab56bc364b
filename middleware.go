package authcore

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

type contextKey string

const loggedInUserKey = contextKey("loggedInUserId")

// Middleware resolves the logged-in user for a request. Identity is looked
// up in order: request context (already resolved upstream), the server-side
// session, then a bearer token from the Authorization header or the session
// cookie.
type Middleware struct {
	Tokens *TokenIssuer

	// Session is optional; when nil only token verification applies.
	Session *scs.SessionManager
}

// GetLoggedInUserID returns the authenticated user's ID for the request, or
// "" when the request carries no valid identity.
func (m *Middleware) GetLoggedInUserID(r *http.Request) string {
	if v, ok := r.Context().Value(loggedInUserKey).(string); ok && v != "" {
		return v
	}

	if m.Session != nil {
		if userID := m.Session.GetString(r.Context(), "loggedInUserId"); userID != "" {
			return userID
		}
	}

	tokens := r.Header.Values("Authorization")
	for _, cookie := range r.CookiesNamed(SessionCookieName) {
		if cookie.Value != "" {
			tokens = append(tokens, cookie.Value)
		}
	}
	for _, token := range tokens {
		claims, err := m.Tokens.Verify(stripBearerPrefix(token))
		if err == nil && claims.Subject != "" {
			return claims.Subject
		}
	}
	return ""
}

func stripBearerPrefix(token string) string {
	const prefix = "Bearer "
	if len(token) > len(prefix) && token[:len(prefix)] == prefix {
		return token[len(prefix):]
	}
	return token
}

// ExtractUser resolves the user and stashes the ID in the request context
// for downstream handlers. It does not reject anonymous requests.
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, m.withLoggedInUserID(r, m.GetLoggedInUserID(r)))
	})
}

// EnsureUser is ExtractUser plus a 401 for anonymous requests.
func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := m.GetLoggedInUserID(r)
		if userID == "" {
			writeError(w, ErrUnauthorized("Authentication required."))
			return
		}
		next.ServeHTTP(w, m.withLoggedInUserID(r, userID))
	})
}

func (m *Middleware) withLoggedInUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), loggedInUserKey, userID))
}

// LoggedInUserID reads the user ID stashed by ExtractUser or EnsureUser.
func LoggedInUserID(ctx context.Context) string {
	v, _ := ctx.Value(loggedInUserKey).(string)
	return v
}
