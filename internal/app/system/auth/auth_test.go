package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

type fetcher struct {
	identities map[string]*models.Identity
	err        error
}

func (f *fetcher) Get(_ context.Context, id string) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	ident, ok := f.identities[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return ident, nil
}

// signIn returns the session cookies issued for ident.
func signIn(t *testing.T, sm *auth.SessionManager, ident *models.Identity) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest(http.MethodPost, "/login", nil), ident); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	return cookies
}

// observe runs a request through LoadSessionIdentity and reports what the
// handler saw.
func observe(sm *auth.SessionManager, cookies []*http.Cookie) (*models.Identity, bool, *httptest.ResponseRecorder) {
	var seen *models.Identity
	var ok bool
	h := sm.LoadSessionIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = auth.CurrentIdentity(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, ok, rec
}

func TestLoadSessionIdentity_NoCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	if _, ok, _ := observe(sm, nil); ok {
		t.Fatal("expected no identity without a cookie")
	}
}

func TestLoadSessionIdentity_FetchesFromProvider(t *testing.T) {
	sm := newTestSessionManager(t)
	ana := &models.Identity{ID: "id-ana", Email: "ana@example.com", DisplayName: "Ana"}
	sm.SetIdentityFetcher(&fetcher{identities: map[string]*models.Identity{"id-ana": ana}})

	got, ok, _ := observe(sm, signIn(t, sm, &models.Identity{ID: "id-ana"}))
	if !ok {
		t.Fatal("expected identity in context")
	}
	if got.Email != "ana@example.com" {
		t.Errorf("expected provider copy of identity, got %+v", got)
	}
}

func TestLoadSessionIdentity_ProviderIsAuthoritative(t *testing.T) {
	tests := []struct {
		name        string
		f           *fetcher
		wantCleared bool
	}{
		{"deleted", &fetcher{identities: map[string]*models.Identity{}}, true},
		{"unreachable", &fetcher{err: errors.New("connection refused")}, false},
		{"timeout", &fetcher{err: context.DeadlineExceeded}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newTestSessionManager(t)
			sm.SetIdentityFetcher(tt.f)

			_, ok, rec := observe(sm, signIn(t, sm, &models.Identity{ID: "id-gone"}))
			if ok {
				t.Fatal("expected caller to be treated as signed out")
			}
			var cleared bool
			for _, c := range rec.Result().Cookies() {
				if c.Name == "test-session" && c.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tt.wantCleared {
				t.Errorf("session cleared = %v, want %v", cleared, tt.wantCleared)
			}
		})
	}
}

func TestLoadSessionIdentity_SessionSurvivesOutage(t *testing.T) {
	sm := newTestSessionManager(t)
	ana := &models.Identity{ID: "id-ana", Email: "ana@example.com"}
	f := &fetcher{err: errors.New("connection refused")}
	sm.SetIdentityFetcher(f)
	cookies := signIn(t, sm, ana)

	if _, ok, _ := observe(sm, cookies); ok {
		t.Fatal("expected anonymous request during the outage")
	}

	f.err = nil
	f.identities = map[string]*models.Identity{"id-ana": ana}
	got, ok, _ := observe(sm, cookies)
	if !ok || got.ID != "id-ana" {
		t.Fatalf("expected the same cookie to sign in after recovery, got %+v ok=%v", got, ok)
	}
}

func TestSignOut_ReturnsPreviousIdentity(t *testing.T) {
	sm := newTestSessionManager(t)
	cookies := signIn(t, sm, &models.Identity{ID: "id-ana"})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	id, err := sm.SignOut(rec, req)
	if err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if id != "id-ana" {
		t.Errorf("SignOut id = %q, want id-ana", id)
	}

	if _, ok, _ := observe(sm, rec.Result().Cookies()); ok {
		t.Error("expected no identity after sign out")
	}
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestCurrentIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := auth.CurrentIdentity(req); ok {
		t.Fatal("expected no identity")
	}
	req = auth.WithIdentity(req, &models.Identity{ID: "x"})
	got, ok := auth.CurrentIdentity(req)
	if !ok || got.ID != "x" {
		t.Fatalf("got %+v, %v", got, ok)
	}
}
