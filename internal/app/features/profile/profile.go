// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/inputval"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/profileedit"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
)

type profileData struct {
	Identity *models.Identity `json:"identity"`
	Profile  *models.Profile  `json:"profile"`
	Theme    string           `json:"theme"`
	Language string           `json:"language"`
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		uierrors.WriteNotice(w, http.StatusUnauthorized, uierrors.Failure(t("unauthorized")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	prof, err := h.Profiles.GetByID(ctx, ident.ID)
	if err != nil && !errors.Is(err, profilestore.ErrNotFound) {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, t("loadError"))
		return
	}

	uierrors.JSON(w, http.StatusOK, profileData{
		Identity: ident,
		Profile:  prof,
		Theme:    themeFrom(r),
		Language: h.I18n.Resolve(r).String(),
	})
}

// HandleUpdate handles PATCH /profile. The owner may change name and phone
// only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		uierrors.WriteNotice(w, http.StatusUnauthorized, uierrors.Failure(t("unauthorized")))
		return
	}

	body, err := inputval.DecodeObject(w, r)
	if err != nil {
		uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(t("validationFailed")))
		return
	}
	patch, err := profileedit.ParsePatch(body, profileedit.SelfFields)
	if err != nil {
		var fe *profileedit.FieldError
		if errors.As(err, &fe) {
			uierrors.WriteFieldErrors(w, t("validationFailed"), map[string]string{fe.Field: fe.Reason})
			return
		}
		uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(t("validationFailed")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	prof, err := h.Editor.UpdateFields(ctx, ident.ID, ident.ID, patch)
	if errors.Is(err, profilestore.ErrNotFound) {
		uierrors.WriteNotice(w, http.StatusNotFound, uierrors.Failure(t("notFound")))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update profile failed", err, t("profileUpdateError"))
		return
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"profile": prof,
		"notice":  uierrors.Success(t("profileUpdated")),
	})
}
