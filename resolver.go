package authcore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Profile is the fixed shape extracted from an external identity provider at
// the boundary. Nothing provider-specific travels past this struct.
type Profile struct {
	Name      string
	Email     string
	AvatarURL string
}

// Validate checks the minimum the resolver needs to reconcile an identity.
func (p *Profile) Validate() error {
	if NormalizeEmail(p.Email) == "" {
		return fmt.Errorf("profile has no email")
	}
	return nil
}

// OAuthIdentityResolver reconciles an external identity profile with a local
// account: look up by email, return the existing user untouched, or
// provision a fresh one.
type OAuthIdentityResolver struct {
	Store CredentialStore

	// Images, when set, imports the external avatar so the stored URL is
	// locally owned. When nil the provider's URL is stored as-is.
	Images ImageStore
}

func NewOAuthIdentityResolver(store CredentialStore, images ImageStore) *OAuthIdentityResolver {
	return &OAuthIdentityResolver{Store: store, Images: images}
}

// ResolveOrCreate returns the local account for the profile, creating one on
// first login. An existing account is never overwritten by OAuth data - a
// password-based account keeps its name, avatar and password.
func (r *OAuthIdentityResolver) ResolveOrCreate(ctx context.Context, profile Profile) (*User, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	email := NormalizeEmail(profile.Email)

	user, err := r.Store.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if err != ErrUserNotFound {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// First login through this provider: provision a local account with a
	// random unusable password so the schema stays uniform.
	password, err := GenerateUnusablePassword()
	if err != nil {
		return nil, err
	}
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user = &User{
		ID:           uuid.NewString(),
		Name:         profile.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
	}

	if profile.AvatarURL != "" {
		if r.Images != nil {
			// If the avatar cannot be imported the whole creation fails -
			// we never silently create the account without it.
			asset, err := ImportImageFromURL(ctx, r.Images, profile.AvatarURL, user.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to import avatar: %w", err)
			}
			user.AvatarURL = asset.URL
			user.AvatarAssetID = asset.ID
		} else {
			user.AvatarURL = profile.AvatarURL
		}
	}

	if err := r.Store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("provisioned user from oauth profile", "userId", user.ID, "email", email)
	return user, nil
}
