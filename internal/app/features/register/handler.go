package register

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/inputval"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/invitation"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// InvitationParam is the query parameter carrying the invitation id.
const InvitationParam = "invitation"

type Handler struct {
	Invitations   *invitation.Service
	SessionMgr    *auth.SessionManager
	I18n          *i18n.Bundle
	ErrLog        *uierrors.ErrorLogger
	Log           *zap.Logger
	GoogleEnabled bool
}

func NewHandler(invitations *invitation.Service, sessionMgr *auth.SessionManager, bundle *i18n.Bundle, errLog *uierrors.ErrorLogger, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Invitations:   invitations,
		SessionMgr:    sessionMgr,
		I18n:          bundle,
		ErrLog:        errLog,
		Log:           logger,
		GoogleEnabled: googleEnabled,
	}
}

type registerInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// ServeRegister handles GET /register?invitation=<id>. Any status other
// than valid answers with a blocking document instead of the form.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, inv, err := h.Invitations.Validate(ctx, query.Get(r, InvitationParam))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "validate invitation failed", err, t("loadError"))
		return
	}
	if st != invitation.StatusValid {
		WriteInvalidInvitation(w, st, t)
		return
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"invitation_id":  inv.ID.Hex(),
		"expires_at":     inv.ExpiresAt,
		"google_enabled": h.GoogleEnabled,
	})
}

// HandleRegisterPost handles POST /register?invitation=<id>. On success
// the new identity is signed in.
func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)

	var in registerInput
	if err := inputval.DecodeJSON(w, r, &in); err != nil {
		var fe inputval.FieldErrors
		if errors.As(err, &fe) {
			uierrors.WriteFieldErrors(w, t("validationFailed"), fe)
			return
		}
		uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(t("validationFailed")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Invitations.Register(ctx, query.Get(r, InvitationParam), invitation.Registration{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Phone:    in.Phone,
	})
	if err != nil {
		h.writeRegisterError(w, r, err, t)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, res.Identity); err != nil {
		// The account exists; the caller can still sign in by hand.
		h.Log.Error("sign-in after registration failed", zap.String("identity_id", res.Identity.ID), zap.Error(err))
		uierrors.Redirect(w, r, "/login", uierrors.Success(t("registrationComplete")))
		return
	}
	uierrors.Redirect(w, r, "/dashboard", uierrors.Success(t("registrationComplete")))
}

func (h *Handler) writeRegisterError(w http.ResponseWriter, r *http.Request, err error, t func(string) string) {
	var se *invitation.StatusError
	switch {
	case errors.As(err, &se):
		WriteInvalidInvitation(w, se.Status, t)
	case errors.Is(err, identity.ErrEmailInUse):
		uierrors.WriteNotice(w, http.StatusConflict, uierrors.Failure(t("emailInUse")))
	case errors.Is(err, identity.ErrWeakPassword):
		uierrors.WriteFieldErrors(w, t("weakPassword"), map[string]string{"password": "must be at least 6"})
	case errors.Is(err, identity.ErrInvalidEmail):
		uierrors.WriteFieldErrors(w, t("invalidEmail"), map[string]string{"email": "must be a valid email"})
	case errors.Is(err, invitation.ErrAlreadyRegistered):
		uierrors.WriteNotice(w, http.StatusConflict, uierrors.Failure(t("alreadyRegistered")))
	default:
		h.ErrLog.LogServerError(w, r, "registration failed", err, t("serverError"))
	}
}
