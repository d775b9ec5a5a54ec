// internal/app/features/catalog/handler.go
package catalog

import (
	"context"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

// ListingLister reads the housing catalog.
type ListingLister interface {
	List(ctx context.Context, limit int64) ([]models.Listing, error)
}

// Handler serves the housing catalog and the credit simulator.
type Handler struct {
	Listings ListingLister
	I18n     *i18n.Bundle
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(listings ListingLister, bundle *i18n.Bundle, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Listings: listings,
		I18n:     bundle,
		ErrLog:   errLog,
		Log:      logger,
	}
}
