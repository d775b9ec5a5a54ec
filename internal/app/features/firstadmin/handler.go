// Package firstadmin lets the first operator of a fresh deployment create
// an admin account. It turns itself off once any admin exists.
package firstadmin

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auditlog"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/inputval"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

// ProfileStore is what the bootstrap needs from the profile collection.
type ProfileStore interface {
	AnyAdmin(ctx context.Context) (bool, error)
	Create(ctx context.Context, p models.Profile) (models.Profile, error)
}

// IdentityCreator creates password identities.
type IdentityCreator interface {
	CreateIdentity(ctx context.Context, email, password, displayName string) (*models.Identity, error)
}

type Handler struct {
	Identities IdentityCreator
	Profiles   ProfileStore
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	I18n       *i18n.Bundle
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger

	// claim serializes claims within this process.
	claim sync.Mutex
}

func NewHandler(identities IdentityCreator, profiles ProfileStore, sessionMgr *auth.SessionManager, audit *auditlog.Logger, bundle *i18n.Bundle, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Identities: identities,
		Profiles:   profiles,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		I18n:       bundle,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type claimInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ServeStatus handles GET /first-admin and reports whether a claim is
// still possible.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	exists, err := h.Profiles.AnyAdmin(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check for admin failed", err, h.I18n.Printer(r)("loadError"))
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]bool{"available": !exists})
}

// HandleClaim handles POST /first-admin.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)

	var in claimInput
	if err := inputval.DecodeJSON(w, r, &in); err != nil {
		var fe inputval.FieldErrors
		if errors.As(err, &fe) {
			uierrors.WriteFieldErrors(w, t("validationFailed"), fe)
			return
		}
		uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(t("validationFailed")))
		return
	}

	h.claim.Lock()
	defer h.claim.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	exists, err := h.Profiles.AnyAdmin(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check for admin failed", err, t("serverError"))
		return
	}
	if exists {
		uierrors.WriteNotice(w, http.StatusConflict, uierrors.Failure(t("firstAdminExists")))
		return
	}

	ident, err := h.Identities.CreateIdentity(ctx, in.Email, in.Password, in.Name)
	switch {
	case errors.Is(err, identity.ErrEmailInUse):
		uierrors.WriteNotice(w, http.StatusConflict, uierrors.Failure(t("emailInUse")))
		return
	case errors.Is(err, identity.ErrWeakPassword):
		uierrors.WriteFieldErrors(w, t("weakPassword"), map[string]string{"password": "must be at least 6"})
		return
	case errors.Is(err, identity.ErrInvalidEmail):
		uierrors.WriteFieldErrors(w, t("invalidEmail"), map[string]string{"email": "must be a valid email"})
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create first admin identity failed", err, t("serverError"))
		return
	}

	if _, err := h.Profiles.Create(ctx, models.Profile{
		ID:        ident.ID,
		Email:     ident.Email,
		Name:      in.Name,
		Role:      models.RoleAdmin,
		Active:    models.Bool(true),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		h.Log.Error("first admin identity created without a profile",
			zap.String("identity_id", ident.ID),
			zap.String("email", ident.Email),
			zap.Error(err))
		h.ErrLog.LogServerError(w, r, "create first admin profile failed", err, t("serverError"))
		return
	}
	h.AuditLog.FirstAdminClaimed(r.Context(), ident.ID)
	h.Log.Info("first admin created", zap.String("identity_id", ident.ID))

	if err := h.SessionMgr.SignIn(w, r, ident); err != nil {
		h.Log.Error("sign-in after first admin claim failed", zap.Error(err))
		uierrors.Redirect(w, r, "/login", uierrors.Success(t("firstAdminCreated")))
		return
	}
	uierrors.Redirect(w, r, "/admin-dashboard", uierrors.Success(t("firstAdminCreated")))
}
