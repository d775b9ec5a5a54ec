// internal/app/features/profile/preferences.go
package profile

import (
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/inputval"
)

// ThemeCookieName holds the display theme chosen by the user.
const ThemeCookieName = "theme_pref"

const defaultTheme = "system"

type preferencesInput struct {
	Theme    string `json:"theme,omitempty"`
	Language string `json:"lang,omitempty"`
}

func validTheme(s string) string {
	switch s = strings.TrimSpace(s); s {
	case "light", "dark", "system":
		return s
	}
	return defaultTheme
}

func themeFrom(r *http.Request) string {
	if c, err := r.Cookie(ThemeCookieName); err == nil {
		return validTheme(c.Value)
	}
	return defaultTheme
}

// HandlePreferences handles POST /profile/preferences with
// {"theme": "light|dark|system", "lang": "es-MX|en"}. Both are optional;
// an unknown theme falls back to "system" and an unknown language to the
// default. The reply is worded in the newly chosen language.
func (h *Handler) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	var in preferencesInput
	if err := inputval.DecodeJSON(w, r, &in); err != nil {
		var fe inputval.FieldErrors
		if errors.As(err, &fe) {
			uierrors.WriteFieldErrors(w, h.I18n.Printer(r)("validationFailed"), fe)
			return
		}
		uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(h.I18n.Printer(r)("validationFailed")))
		return
	}

	theme := themeFrom(r)
	if in.Theme != "" {
		theme = validTheme(in.Theme)
		http.SetCookie(w, &http.Cookie{
			Name:     ThemeCookieName,
			Value:    theme,
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: false, // the page script reads it
			SameSite: http.SameSiteLaxMode,
		})
	}

	tag := h.I18n.Resolve(r)
	if in.Language != "" {
		tag = h.I18n.Normalize(in.Language)
		i18n.SetLanguageCookie(w, tag)
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"theme":    theme,
		"language": tag.String(),
		"notice":   uierrors.Success(h.I18n.T(tag, "preferencesSaved")),
	})
}
