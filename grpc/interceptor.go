package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/easytrans/authcore"
)

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Verify checks a session token and returns its claims. Usually
	// (*authcore.TokenIssuer).Verify.
	Verify func(token string) (*authcore.SessionClaims, error)

	// RequireAuth when true rejects unauthenticated requests. When false,
	// requests proceed and ClaimsFromContext returns nil.
	RequireAuth bool

	// PublicMethods is a set of full method names, like
	// "/package.Service/Method", that skip the auth requirement. Only
	// consulted when RequireAuth is true.
	PublicMethods map[string]bool
}

// NewInterceptorConfig returns a config that requires auth for every method
// except the listed public ones.
func NewInterceptorConfig(tokens *authcore.TokenIssuer, publicMethods ...string) *InterceptorConfig {
	config := &InterceptorConfig{
		Verify:        tokens.Verify,
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that verifies the
// session token and stashes the claims in the handler context.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := config.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor returns the stream counterpart of
// UnaryAuthInterceptor.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := config.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
	}
}

func (c *InterceptorConfig) authenticate(ctx context.Context, fullMethod string) (context.Context, error) {
	var claims *authcore.SessionClaims
	if token := bearerToken(ctx); token != "" && c.Verify != nil {
		if verified, err := c.Verify(token); err == nil {
			claims = verified
		}
	}
	if claims == nil {
		if c.RequireAuth && !c.PublicMethods[fullMethod] {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		return ctx, nil
	}
	return withClaims(ctx, claims), nil
}

// wrappedStream overrides the stream context so handlers see the claims.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}
