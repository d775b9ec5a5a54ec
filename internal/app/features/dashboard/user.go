// internal/app/features/dashboard/user.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

type userData struct {
	Title          string           `json:"title"`
	Identity       *models.Identity `json:"identity"`
	Role           string           `json:"role"`
	AccountCreated time.Time        `json:"account_created"`
	Profile        *models.Profile  `json:"profile,omitempty"`
}

// ServeDashboard handles GET /dashboard for any signed-in identity.
// A role lookup that has not completed shows as "pending" or "unknown";
// the page itself never depends on it.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		uierrors.Redirect(w, r, "/login", nil)
		return
	}

	roleCtx, cancel := context.WithTimeout(r.Context(), timeouts.RoleWait())
	rs := h.Roles.Resolve(roleCtx, ident.ID)
	cancel()

	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	prof, err := h.Profiles.GetByID(ctx, ident.ID)
	if err != nil && !errors.Is(err, profilestore.ErrNotFound) {
		h.Log.Warn("dashboard profile load failed", zap.String("identity_id", ident.ID), zap.Error(err))
		prof = nil
	}

	h.Log.Debug("dashboard served", zap.String("identity_id", ident.ID), zap.String("role", rs.Label()))
	uierrors.JSON(w, http.StatusOK, userData{
		Title:          t("dashboard"),
		Identity:       ident,
		Role:           rs.Label(),
		AccountCreated: ident.CreatedAt,
		Profile:        prof,
	})
}
