// internal/app/features/profile/avatar.go
package profile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/profileedit"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const (
	// MaxAvatarBytes bounds an uploaded image.
	MaxAvatarBytes = 5 << 20
	// AvatarField is the multipart field carrying the image.
	AvatarField = "photo"
)

// HandleAvatar handles POST /profile/avatar (multipart, field "photo").
// The content type is sniffed from the bytes, not taken from the client.
func (h *Handler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)
	ident, ok := auth.CurrentIdentity(r)
	if !ok {
		uierrors.WriteNotice(w, http.StatusUnauthorized, uierrors.Failure(t("unauthorized")))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxAvatarBytes+(1<<20))
	if err := r.ParseMultipartForm(MaxAvatarBytes); err != nil {
		uierrors.WriteFieldErrors(w, t("invalidImage"), map[string]string{AvatarField: "must be an image of at most 5 MB"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(AvatarField)
	if err != nil {
		uierrors.WriteFieldErrors(w, t("invalidImage"), map[string]string{AvatarField: "is required"})
		return
	}
	defer file.Close()

	if header.Size > MaxAvatarBytes {
		uierrors.WriteFieldErrors(w, t("invalidImage"), map[string]string{AvatarField: "must be at most 5 MB"})
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		uierrors.WriteFieldErrors(w, t("invalidImage"), map[string]string{AvatarField: "is empty"})
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		uierrors.WriteFieldErrors(w, t("invalidImage"), map[string]string{AvatarField: "must be an image"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	url, err := h.Editor.UpdateAvatar(ctx, ident.ID, io.MultiReader(bytes.NewReader(head), file), contentType)
	if errors.Is(err, profileedit.ErrAvatarDiverged) {
		h.Log.Warn("avatar stored but profile not updated", zap.String("identity_id", ident.ID), zap.String("url", url))
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update avatar failed", err, t("photoUpdateError"))
		return
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"photo_url": url,
		"notice":    uierrors.Success(t("photoUpdated")),
	})
}
