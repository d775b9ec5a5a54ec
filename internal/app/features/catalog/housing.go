// internal/app/features/catalog/housing.go
package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	listingstore "github.com/nacholimon/opinwork-firebase/internal/app/store/listings"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
)

// maxListings caps the ?limit= parameter.
const maxListings = 200

type housingData struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Listings    []models.Listing `json:"listings"`
}

// ServeHousing handles GET /housing-catalog. ?limit= selects how many of the
// newest listings to return.
func (h *Handler) ServeHousing(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)

	limit := int64(listingstore.DefaultLimit)
	if raw := query.Get(r, "limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			uierrors.WriteFieldErrors(w, t("validationFailed"), map[string]string{"limit": "must be a positive integer"})
			return
		}
		limit = min(n, maxListings)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, err := h.Listings.List(ctx, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list housing failed", err, t("loadError"))
		return
	}

	uierrors.JSON(w, http.StatusOK, housingData{
		Title:       t("housingCatalog"),
		Description: t("housingCatalogDescription"),
		Listings:    items,
	})
}
