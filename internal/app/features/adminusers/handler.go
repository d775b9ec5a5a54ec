// internal/app/features/adminusers/handler.go
package adminusers

import (
	"context"
	"time"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/invitation"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

// ProfileLister lists every profile.
type ProfileLister interface {
	List(ctx context.Context) ([]models.Profile, error)
}

// FieldUpdater applies a validated patch. profileedit.Service satisfies it.
type FieldUpdater interface {
	UpdateFields(ctx context.Context, actorID, identityID string, p profilestore.Patch) (*models.Profile, error)
}

type Handler struct {
	Profiles    ProfileLister
	Editor      FieldUpdater
	Invitations *invitation.Service
	I18n        *i18n.Bundle
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
}

// NewHandler constructs the admin user-management handler.
func NewHandler(profiles ProfileLister, editor FieldUpdater, invitations *invitation.Service, bundle *i18n.Bundle, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles:    profiles,
		Editor:      editor,
		Invitations: invitations,
		I18n:        bundle,
		ErrLog:      errLog,
		Log:         logger,
	}
}

// userRow is one line of the admin user table.
type userRow struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	PhotoURL  string      `json:"photo_url,omitempty"`
	Role      models.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

func toRow(p models.Profile) userRow {
	return userRow{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Phone:     p.Phone,
		PhotoURL:  p.PhotoURL,
		Role:      p.EffectiveRole(),
		Active:    p.IsActive(),
		CreatedAt: p.CreatedAt,
	}
}
