// internal/app/features/adminusers/edit.go
package adminusers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/inputval"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/profileedit"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

// HandleEdit handles PATCH /admin-users/{id}. Only the admin field set is
// accepted. An admin cannot remove their own admin role or disable
// themselves.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)
	who, ok := auth.CurrentIdentity(r)
	if !ok {
		uierrors.WriteNotice(w, http.StatusUnauthorized, uierrors.Failure(t("unauthorized")))
		return
	}
	id := chi.URLParam(r, "id")

	body, err := inputval.DecodeObject(w, r)
	if err != nil {
		uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(t("validationFailed")))
		return
	}
	patch, err := profileedit.ParsePatch(body, profileedit.AdminFields)
	if err != nil {
		writePatchError(w, err, t)
		return
	}

	if id == who.ID {
		demoting := patch.Role != nil && *patch.Role != models.RoleAdmin
		disabling := patch.Active != nil && !*patch.Active
		if demoting || disabling {
			uierrors.WriteNotice(w, http.StatusConflict, uierrors.Failure(t("cannotDemoteSelf")))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prof, err := h.Editor.UpdateFields(ctx, who.ID, id, patch)
	if errors.Is(err, profilestore.ErrNotFound) {
		uierrors.WriteNotice(w, http.StatusNotFound, uierrors.Failure(t("notFound")))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin user update failed", err, t("userUpdateError"))
		return
	}

	h.Log.Info("user updated by admin",
		zap.String("actor_id", who.ID),
		zap.String("identity_id", id))
	uierrors.JSON(w, http.StatusOK, map[string]any{
		"user":   toRow(*prof),
		"notice": uierrors.Success(t("userUpdated")),
	})
}

// writePatchError answers a rejected patch body.
func writePatchError(w http.ResponseWriter, err error, t func(string) string) {
	var fe *profileedit.FieldError
	if errors.As(err, &fe) {
		uierrors.WriteFieldErrors(w, t("validationFailed"), map[string]string{fe.Field: fe.Reason})
		return
	}
	uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(t("validationFailed")))
}
