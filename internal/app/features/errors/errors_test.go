package errors_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"go.uber.org/zap"
)

func TestWriteNotice(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.WriteNotice(rec, http.StatusOK, uierrors.Success("Perfil actualizado."))

	var body struct {
		Notice uierrors.Notice `json:"notice"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Notice.Level != "success" || body.Notice.DismissAfterMS != 3000 || body.Notice.Message != "Perfil actualizado." {
		t.Errorf("notice = %+v", body.Notice)
	}
}

func TestLogServerError_Status(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"timeout", fmt.Errorf("find: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			el.LogServerError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "failed", tt.err, "try again")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRedirect(t *testing.T) {
	t.Run("browser", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		rec := httptest.NewRecorder()
		uierrors.Redirect(rec, req, "/dashboard", nil)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
			t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})
	t.Run("api", func(t *testing.T) {
		rec := httptest.NewRecorder()
		uierrors.Redirect(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "/dashboard", uierrors.Success("ok"))
		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["redirect"] != "/dashboard" || body["notice"] == nil {
			t.Errorf("body = %v", body)
		}
	})
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.NewHandler().NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}
