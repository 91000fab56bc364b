package authcore

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "access_token"

// SessionClaims are the identity claims embedded in every session token.
// There is no expiry claim: rotating the signing secret is the only way to
// invalidate outstanding tokens, which is an accepted tradeoff here.
type SessionClaims struct {
	jwt.RegisteredClaims
	Name   string `json:"name"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// TokenIssuer signs and verifies session tokens. The signing secret is fixed
// process configuration, loaded once at startup.
type TokenIssuer struct {
	SecretKey string

	// Production switches the cookie to Secure + SameSite=None. Otherwise
	// cookies are SameSite=Strict.
	Production bool
}

func NewTokenIssuer(secretKey string, production bool) *TokenIssuer {
	return &TokenIssuer{SecretKey: secretKey, Production: production}
}

// Issue signs a token carrying the user's identity claims.
func (t *TokenIssuer) Issue(user *User) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		Name:             user.Name,
		Role:             string(user.Role),
		Email:            user.Email,
		Avatar:           user.AvatarURL,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and structure of a token and returns its
// claims. There is no revocation list.
func (t *TokenIssuer) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}
	return claims, nil
}

func (t *TokenIssuer) sameSite() http.SameSite {
	if t.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteStrictMode
}

// SessionCookie builds the access_token cookie for a signed token.
func (t *TokenIssuer) SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.Production,
		SameSite: t.sameSite(),
	}
}

// ClearSessionCookie builds an expired cookie with attributes matching
// SessionCookie so browsers actually drop it.
func (t *TokenIssuer) ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   t.Production,
		SameSite: t.sameSite(),
		MaxAge:   -1,
	}
}
