// internal/app/features/adminusers/list.go
package adminusers

import (
	"context"
	"net/http"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
)

// ServeList handles GET /admin-users.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	profiles, err := h.Profiles.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users failed", err, h.I18n.Printer(r)("loadError"))
		return
	}

	rows := make([]userRow, len(profiles))
	for i, p := range profiles {
		rows[i] = toRow(p)
	}
	uierrors.JSON(w, http.StatusOK, map[string]any{"users": rows})
}
