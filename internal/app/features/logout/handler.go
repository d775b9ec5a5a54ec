package logout

import (
	"context"
	"net/http"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auditlog"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// SignOuter ends an identity's provider-side session.
type SignOuter interface {
	SignOut(ctx context.Context, id string) error
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Identities SignOuter
	AuditLog   *auditlog.Logger
	I18n       *i18n.Bundle
}

func NewHandler(sessionMgr *auth.SessionManager, identities SignOuter, audit *auditlog.Logger, bundle *i18n.Bundle, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Identities: identities,
		AuditLog:   audit,
		I18n:       bundle,
	}
}

// ServeLogout handles POST /logout. The cookie is always cleared; a failed
// provider sign-out is logged and does not keep the caller signed in.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	id, err := h.SessionMgr.SignOut(w, r)
	if err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	if id != "" {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		if err := h.Identities.SignOut(ctx, id); err != nil {
			h.Log.Warn("logout: provider sign-out failed", zap.String("identity_id", id), zap.Error(err))
		}
		cancel()
		h.AuditLog.Logout(r.Context(), id)
	}

	uierrors.Redirect(w, r, "/", uierrors.Success(h.I18n.Printer(r)("signedOut")))
}
