// Package grpc carries session identity between gRPC clients and services.
// The interceptor verifies the bearer token from request metadata and makes
// the authenticated user available to handlers via the context.
package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/easytrans/authcore"
)

// MetadataKeyAuthorization is the gRPC metadata key carrying the session
// token, in the usual "Bearer <token>" form.
const MetadataKeyAuthorization = "authorization"

type claimsKey struct{}

// ClaimsFromContext returns the verified session claims for the request, or
// nil for an unauthenticated request.
func ClaimsFromContext(ctx context.Context) *authcore.SessionClaims {
	claims, _ := ctx.Value(claimsKey{}).(*authcore.SessionClaims)
	return claims
}

// UserIDFromContext returns the authenticated user ID, or "" when the
// request carries no valid session.
func UserIDFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}

// IsAuthenticated reports whether the context carries a verified session.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}

// TokenToOutgoingContext attaches a session token to an outgoing gRPC call.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, MetadataKeyAuthorization, "Bearer "+token)
}

func withClaims(ctx context.Context, claims *authcore.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// bearerToken pulls the first usable token out of incoming metadata.
func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(MetadataKeyAuthorization) {
		token := strings.TrimPrefix(value, "Bearer ")
		if token != "" {
			return token
		}
	}
	return ""
}
