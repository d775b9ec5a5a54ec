// internal/app/features/adminusers/invitations.go
package adminusers

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/inputval"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/invitation"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
)

type generateInput struct {
	Days int `json:"days" validate:"required"`
}

// ServeInvitations handles GET /admin-users/invitations: every invitation
// with its state derived now, plus the windows an admin may choose from.
func (h *Handler) ServeInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Invitations.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list invitations failed", err, h.I18n.Printer(r)("loadError"))
		return
	}
	uierrors.JSON(w, http.StatusOK, map[string]any{
		"invitations": entries,
		"windows":     invitation.AllowedWindows,
	})
}

// HandleGenerate handles POST /admin-users/invitations with {"days": n}.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)
	who, ok := auth.CurrentIdentity(r)
	if !ok {
		uierrors.WriteNotice(w, http.StatusUnauthorized, uierrors.Failure(t("unauthorized")))
		return
	}

	var in generateInput
	if err := inputval.DecodeJSON(w, r, &in); err != nil {
		var fe inputval.FieldErrors
		if errors.As(err, &fe) {
			uierrors.WriteFieldErrors(w, t("invalidWindow"), fe)
			return
		}
		uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(t("validationFailed")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inv, err := h.Invitations.Generate(ctx, in.Days, who.ID)
	if errors.Is(err, invitation.ErrInvalidWindow) {
		uierrors.WriteFieldErrors(w, t("invalidWindow"), map[string]string{"days": "must be one of 1, 3, 7, 14, 30"})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "generate invitation failed", err, t("invitationError"))
		return
	}

	uierrors.JSON(w, http.StatusCreated, map[string]any{
		"invitation": inv,
		"notice":     uierrors.Success(t("invitationGenerated")),
	})
}
