// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"time"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/guard"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/invitation"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

const dashboardTimeout = 5 * time.Second

// ProfileStore reads profile records for both dashboards.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
}

// InvitationLister lists invitations with their derived state.
type InvitationLister interface {
	List(ctx context.Context) ([]invitation.Entry, error)
}

type Handler struct {
	Profiles    ProfileStore
	Invitations InvitationLister
	Roles       guard.Resolver
	I18n        *i18n.Bundle
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(profiles ProfileStore, invitations InvitationLister, roles guard.Resolver, bundle *i18n.Bundle, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles:    profiles,
		Invitations: invitations,
		Roles:       roles,
		I18n:        bundle,
		ErrLog:      errLog,
		Log:         logger,
	}
}
