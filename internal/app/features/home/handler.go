package home

import (
	"context"
	"net/http"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/guard"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// AdminDashboardPath is where a positively identified admin lands.
const AdminDashboardPath = "/admin-dashboard"

// Handler holds dependencies needed to serve the splash route.
type Handler struct {
	Roles guard.Resolver
	I18n  *i18n.Bundle
	Log   *zap.Logger
}

func NewHandler(roles guard.Resolver, bundle *i18n.Bundle, logger *zap.Logger) *Handler {
	return &Handler{
		Roles: roles,
		I18n:  bundle,
		Log:   logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – splash                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot sends a signed-in caller to the dashboard for their role. Only
// a positively resolved admin role reaches the admin dashboard and a failed
// lookup lands on the user dashboard. While the lookup is still pending the
// caller gets the same 503 loading answer as the admin-only routes.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		t := h.I18n.Printer(r)
		uierrors.JSON(w, http.StatusOK, map[string]any{
			"title":    t("welcome"),
			"subtitle": t("subtitle"),
			"links": map[string]string{
				"login": guard.LoginPath,
			},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.RoleWait())
	rs := h.Roles.Resolve(ctx, id.ID)
	cancel()

	target := guard.DashboardPath
	switch guard.Decide(true, guard.AdminOnly, rs).Outcome {
	case guard.Loading:
		h.Log.Debug("splash waiting for role", zap.String("identity_id", id.ID))
		w.Header().Set("Retry-After", "1")
		uierrors.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	case guard.Render:
		target = AdminDashboardPath
	}
	h.Log.Debug("splash redirect",
		zap.String("identity_id", id.ID),
		zap.String("role", rs.Label()),
		zap.String("target", target))
	uierrors.Redirect(w, r, target, nil)
}
