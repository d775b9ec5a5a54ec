// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/store/audit"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auditlog"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/inputval"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/normalize"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/ratelimit"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

// ProfileReader reads the profile that carries the active flag.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

type Handler struct {
	Identities    identity.Provider
	Profiles      ProfileReader
	SessionMgr    *auth.SessionManager
	Limiter       *ratelimit.LoginLimiter // nil disables rate limiting
	I18n          *i18n.Bundle
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	Log           *zap.Logger
	GoogleEnabled bool
}

func NewHandler(
	identities identity.Provider,
	profiles ProfileReader,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.LoginLimiter,
	bundle *i18n.Bundle,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Identities:    identities,
		Profiles:      profiles,
		SessionMgr:    sessionMgr,
		Limiter:       limiter,
		I18n:          bundle,
		ErrLog:        errLog,
		AuditLog:      audit,
		Log:           logger,
		GoogleEnabled: googleEnabled,
	}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Return   string `json:"return,omitempty"`
}

// ServeLogin handles GET /login. A signed-in caller is sent to "/", which
// routes by role.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentIdentity(r); ok {
		uierrors.Redirect(w, r, "/", nil)
		return
	}
	t := h.I18n.Printer(r)
	uierrors.JSON(w, http.StatusOK, map[string]any{
		"title":          t("signIn"),
		"google_enabled": h.GoogleEnabled,
		"return":         urlutil.SafeReturn(query.Get(r, "return"), "", ""),
	})
}

// HandleLoginPost handles POST /login with {"email","password"}.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)

	var in loginInput
	if err := inputval.DecodeJSON(w, r, &in); err != nil {
		var fe inputval.FieldErrors
		if errors.As(err, &fe) {
			uierrors.WriteFieldErrors(w, t("validationFailed"), fe)
			return
		}
		uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(t("validationFailed")))
		return
	}
	email := normalize.Email(in.Email)

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailed(r.Context(), audit.EventLoginFailedRateLimit, email, "", reason)
			w.Header().Set("Retry-After", "60")
			uierrors.WriteNotice(w, http.StatusTooManyRequests, uierrors.Failure(t(reason)))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ident, err := h.Identities.SignIn(ctx, email, in.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		h.AuditLog.LoginFailed(r.Context(), audit.EventLoginFailedBadCredential, email, "", "invalid credentials")
		uierrors.WriteNotice(w, http.StatusUnauthorized, uierrors.Failure(t("invalidCredentials")))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "identity sign-in failed", err, t("serverError"))
		return
	}

	// A missing profile signs in as a plain user; the role lookup agrees.
	prof, err := h.Profiles.GetByID(ctx, ident.ID)
	if err != nil && !errors.Is(err, profilestore.ErrNotFound) {
		h.ErrLog.LogServerError(w, r, "load profile for sign-in failed", err, t("serverError"))
		return
	}
	if prof != nil && !prof.IsActive() {
		if err := h.Identities.SignOut(ctx, ident.ID); err != nil {
			h.Log.Warn("sign out of disabled identity failed", zap.Error(err), zap.String("identity_id", ident.ID))
		}
		h.AuditLog.LoginFailed(r.Context(), audit.EventLoginFailedDisabled, email, ident.ID, "account disabled")
		uierrors.WriteNotice(w, http.StatusForbidden, uierrors.Failure(t("accountDisabled")))
		return
	}

	if err := h.SessionMgr.SignIn(w, r, ident); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, t("serverError"))
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(r.Context(), ident.ID, models.ProviderPassword)

	uierrors.Redirect(w, r, urlutil.SafeReturn(in.Return, "", "/"), uierrors.Success(t("welcome")))
}
