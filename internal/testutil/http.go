package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie name used by NewSessionManager.
const SessionCookieName = "test-session"

// NewSessionManager returns a development-mode session manager backed by
// fetcher.
func NewSessionManager(t *testing.T, fetcher auth.IdentityFetcher) *auth.SessionManager {
	t.Helper()
	mgr, err := auth.NewSessionManager("test-session-key-for-testing-only-0123456789", SessionCookieName, "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	if fetcher != nil {
		mgr.SetIdentityFetcher(fetcher)
	}
	return mgr
}

// NewJSONRequest builds a request whose body is body encoded as JSON. A nil
// body sends no payload.
func NewJSONRequest(method, target string, body any) *http.Request {
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				panic(err)
			}
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewAuthenticatedRequest is NewJSONRequest with ident attached as the
// current identity.
func NewAuthenticatedRequest(method, target string, body any, ident *models.Identity) *http.Request {
	return auth.WithIdentity(NewJSONRequest(method, target, body), ident)
}

// DecodeBody decodes the recorded JSON response into v.
func DecodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// HasCookie reports whether the response set a cookie named name.
func HasCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return true
		}
	}
	return false
}
