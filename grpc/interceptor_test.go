package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/easytrans/authcore"
)

func issueToken(t *testing.T, issuer *authcore.TokenIssuer) string {
	t.Helper()
	token, err := issuer.Issue(&authcore.User{
		ID:    "user-1",
		Name:  "Ann",
		Email: "ann@example.com",
		Role:  authcore.RoleUser,
	})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func invoke(t *testing.T, config *InterceptorConfig, ctx context.Context) (string, error) {
	t.Helper()
	interceptor := UnaryAuthInterceptor(config)
	var userID string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/auth.Users/GetUser"},
		func(ctx context.Context, req any) (any, error) {
			userID = UserIDFromContext(ctx)
			return nil, nil
		})
	return userID, err
}

func TestUnaryInterceptor(t *testing.T) {
	issuer := authcore.NewTokenIssuer("test-secret", false)
	config := NewInterceptorConfig(issuer, "/auth.Users/Login")
	token := issueToken(t, issuer)

	t.Run("valid token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(),
			metadata.Pairs(MetadataKeyAuthorization, "Bearer "+token))
		userID, err := invoke(t, config, ctx)
		if err != nil {
			t.Fatalf("interceptor rejected valid token: %v", err)
		}
		if userID != "user-1" {
			t.Errorf("user id = %q, want user-1", userID)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := invoke(t, config, context.Background())
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("got %v, want Unauthenticated", err)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(),
			metadata.Pairs(MetadataKeyAuthorization, "Bearer garbage"))
		_, err := invoke(t, config, ctx)
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("got %v, want Unauthenticated", err)
		}
	})

	t.Run("public method skips auth", func(t *testing.T) {
		interceptor := UnaryAuthInterceptor(config)
		called := false
		_, err := interceptor(context.Background(), nil,
			&grpc.UnaryServerInfo{FullMethod: "/auth.Users/Login"},
			func(ctx context.Context, req any) (any, error) {
				called = true
				if IsAuthenticated(ctx) {
					t.Error("anonymous call should not be authenticated")
				}
				return nil, nil
			})
		if err != nil || !called {
			t.Errorf("public method blocked: err=%v called=%v", err, called)
		}
	})
}

func TestOptionalAuth(t *testing.T) {
	issuer := authcore.NewTokenIssuer("test-secret", false)
	config := &InterceptorConfig{Verify: issuer.Verify, RequireAuth: false}

	userID, err := invoke(t, config, context.Background())
	if err != nil {
		t.Fatalf("optional auth rejected anonymous call: %v", err)
	}
	if userID != "" {
		t.Errorf("anonymous call produced user %q", userID)
	}
}

func TestTokenToOutgoingContext(t *testing.T) {
	ctx := TokenToOutgoingContext(context.Background(), "tok-1")
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("no outgoing metadata")
	}
	values := md.Get(MetadataKeyAuthorization)
	if len(values) != 1 || values[0] != "Bearer tok-1" {
		t.Errorf("authorization metadata = %v", values)
	}
}
