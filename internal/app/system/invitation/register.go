package invitation

import (
	"context"
	"errors"
	"fmt"

	invitationstore "github.com/nacholimon/opinwork-firebase/internal/app/store/invitations"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrAlreadyRegistered is returned by RegisterFederated when the federated
// identity already has a profile. The invitation is left untouched.
var ErrAlreadyRegistered = errors.New("identity is already registered")

// Registration is the self-registration form.
type Registration struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Result describes a completed registration. InvitationMarked is false
// when the account was created but the invitation could not be burned.
type Result struct {
	Identity         *models.Identity `json:"identity"`
	Profile          models.Profile   `json:"profile"`
	InvitationMarked bool             `json:"invitation_marked"`
}

// Register re-validates rawID, creates the identity and its profile, then
// marks the invitation used. Failing to mark the invitation does not fail
// the registration.
func (s *Service) Register(ctx context.Context, rawID string, reg Registration) (*Result, error) {
	inv, err := s.requireValid(ctx, rawID)
	if err != nil {
		return nil, err
	}

	ident, err := s.identities.CreateIdentity(ctx, reg.Email, reg.Password, reg.Name)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return s.complete(ctx, inv, ident, reg.Name, reg.Phone)
}

// RegisterFederated completes registration for an identity the federated
// provider has already created or linked.
func (s *Service) RegisterFederated(ctx context.Context, rawID string, ident *models.Identity) (*Result, error) {
	inv, err := s.requireValid(ctx, rawID)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, inv, ident, ident.DisplayName, "")
}

func (s *Service) requireValid(ctx context.Context, rawID string) (*models.Invitation, error) {
	st, inv, err := s.Validate(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if st != StatusValid {
		s.audit.RegistrationRejected(ctx, rawID, string(st))
		return nil, &StatusError{Status: st}
	}
	return inv, nil
}

func (s *Service) complete(ctx context.Context, inv *models.Invitation, ident *models.Identity, name, phone string) (*Result, error) {
	prof, err := s.profiles.Create(ctx, models.Profile{
		ID:        ident.ID,
		Email:     ident.Email,
		Name:      name,
		Phone:     phone,
		PhotoURL:  ident.AvatarURL,
		Role:      models.RoleUser,
		Active:    models.Bool(true),
		CreatedAt: s.Now(),
	})
	if errors.Is(err, profilestore.ErrExists) {
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		s.log.Error("profile creation failed after identity was created",
			zap.String("identity_id", ident.ID),
			zap.String("invitation_id", inv.ID.Hex()),
			zap.Error(err))
		return nil, fmt.Errorf("create profile: %w", err)
	}

	marked := s.markUsed(ctx, inv.ID, ident.ID)

	s.audit.RegistrationCompleted(ctx, ident.ID, inv.ID.Hex(), ident.Provider)
	s.metrics.Registration(ident.Provider, marked)
	return &Result{Identity: ident, Profile: prof, InvitationMarked: marked}, nil
}

func (s *Service) markUsed(ctx context.Context, id primitive.ObjectID, identityID string) bool {
	err := s.invitations.MarkUsed(ctx, id, identityID, s.Now())
	if err == nil {
		return true
	}
	if errors.Is(err, invitationstore.ErrNotConsumable) {
		s.log.Warn("invitation consumed concurrently; registration kept",
			zap.String("identity_id", identityID),
			zap.String("invitation_id", id.Hex()))
	} else {
		s.log.Warn("failed to mark invitation used; registration kept",
			zap.String("identity_id", identityID),
			zap.String("invitation_id", id.Hex()),
			zap.Error(err))
	}
	s.audit.InvitationMarkFailed(ctx, identityID, id.Hex(), err)
	return false
}
