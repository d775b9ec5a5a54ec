// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"
	"strings"
)

// NoticeDuration is how long a client shows a notice before dismissing it.
const NoticeDuration = 3000

// Notice levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// Notice is a dismissible, auto-expiring message for the user.
type Notice struct {
	Level          string `json:"level"`
	Message        string `json:"message"`
	DismissAfterMS int    `json:"dismiss_after_ms"`
}

func Success(msg string) *Notice {
	return &Notice{Level: LevelSuccess, Message: msg, DismissAfterMS: NoticeDuration}
}

func Failure(msg string) *Notice {
	return &Notice{Level: LevelError, Message: msg, DismissAfterMS: NoticeDuration}
}

// Blocking is a page-level failure. The client shows Message in place of
// the page instead of a notice.
type Blocking struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Blocking bool   `json:"blocking"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteNotice writes {"notice": n}.
func WriteNotice(w http.ResponseWriter, status int, n *Notice) {
	JSON(w, status, map[string]any{"notice": n})
}

// WriteFieldErrors writes a validation failure with per-field messages.
func WriteFieldErrors(w http.ResponseWriter, msg string, fields map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]any{
		"notice": Failure(msg),
		"fields": fields,
	})
}

// WriteBlocking writes a blocking page failure.
func WriteBlocking(w http.ResponseWriter, status int, code, msg string) {
	JSON(w, status, Blocking{Error: code, Message: msg, Blocking: true})
}

// Redirect sends browsers a 303 and API clients {"redirect": target}.
func Redirect(w http.ResponseWriter, r *http.Request, target string, n *Notice) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	body := map[string]any{"redirect": target}
	if n != nil {
		body["notice"] = n
	}
	JSON(w, http.StatusOK, body)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// Handler serves the router's fallback responses.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// NotFound handles unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteBlocking(w, http.StatusNotFound, "not_found", "not found")
}

// MethodNotAllowed handles a known route with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteBlocking(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}
