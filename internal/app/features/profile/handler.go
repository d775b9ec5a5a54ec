// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"io"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

// ProfileReader loads the caller's profile record.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// Editor writes profile fields and avatars. profileedit.Service satisfies it.
type Editor interface {
	UpdateFields(ctx context.Context, actorID, identityID string, p profilestore.Patch) (*models.Profile, error)
	UpdateAvatar(ctx context.Context, identityID string, r io.Reader, contentType string) (string, error)
}

type Handler struct {
	Profiles ProfileReader
	Editor   Editor
	I18n     *i18n.Bundle
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(profiles ProfileReader, editor Editor, bundle *i18n.Bundle, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profiles,
		Editor:   editor,
		I18n:     bundle,
		ErrLog:   errLog,
		Log:      logger,
	}
}
