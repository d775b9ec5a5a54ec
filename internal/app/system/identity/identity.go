// Package identity is the authority on who a caller is. It owns credential
// storage, federated sign-in and the identity display fields, and announces
// every identity change on the event bus.
package identity

import (
	"context"
	"errors"

	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
)

// MinPasswordLength is the shortest password CreateIdentity accepts.
const MinPasswordLength = 6

var (
	ErrNotFound           = errors.New("identity not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password too short")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUnverifiedEmail    = errors.New("federated email not verified")
)

// FederatedProfile is what an external provider asserts about a user.
type FederatedProfile struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// ProfileUpdate changes identity display fields. Nil fields are untouched.
type ProfileUpdate struct {
	DisplayName *string
	AvatarURL   *string
}

// Provider is the identity capability set used by the rest of the app.
type Provider interface {
	Get(ctx context.Context, id string) (*models.Identity, error)
	CreateIdentity(ctx context.Context, email, password, displayName string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	SignInFederated(ctx context.Context, fp FederatedProfile) (*models.Identity, bool, error)
	SignOut(ctx context.Context, id string) error
	UpdateIdentityProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.Identity, error)
}
