package guard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/guard"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/metrics"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/rolelookup"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type stubResolver struct {
	state rolelookup.State
	calls atomic.Int32
}

func (s *stubResolver) Resolve(context.Context, string) rolelookup.State {
	s.calls.Add(1)
	return s.state
}

// blockingResolver never answers before ctx ends.
type blockingResolver struct{}

func (blockingResolver) Resolve(ctx context.Context, _ string) rolelookup.State {
	<-ctx.Done()
	return rolelookup.State{Pending: true}
}

func protected(rendered *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*rendered = true
		w.WriteHeader(http.StatusOK)
	})
}

func newRequest(accept string, ident *models.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin-users?page=2", nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if ident != nil {
		req = auth.WithIdentity(req, ident)
	}
	return req
}

func TestRequireAdmin_NonAdminRedirectsToDashboard(t *testing.T) {
	res := &stubResolver{state: rolelookup.State{Known: true, Role: models.RoleUser}}
	g := guard.New(res, nil, zap.NewNop())

	var rendered bool
	rec := httptest.NewRecorder()
	g.RequireAdmin(protected(&rendered)).ServeHTTP(rec, newRequest("text/html", &models.Identity{ID: "u1"}))

	if rendered {
		t.Fatal("protected content rendered for non-admin")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
	if n := res.calls.Load(); n != 1 {
		t.Errorf("expected one role lookup, got %d", n)
	}
}

func TestRequireAdmin_AdminRendersWithRoleInContext(t *testing.T) {
	res := &stubResolver{state: rolelookup.State{Known: true, Role: models.RoleAdmin}}
	g := guard.New(res, nil, zap.NewNop())

	var got rolelookup.State
	var ok bool
	h := g.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = guard.RoleFrom(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest("", &models.Identity{ID: "a1"}))

	if !ok || !got.IsAdmin() {
		t.Fatalf("expected admin role in context, got %+v (%v)", got, ok)
	}
}

func TestRequireAdmin_AnonymousGoesToRoot(t *testing.T) {
	res := &stubResolver{}
	g := guard.New(res, nil, zap.NewNop())

	var rendered bool
	rec := httptest.NewRecorder()
	g.RequireAdmin(protected(&rendered)).ServeHTTP(rec, newRequest("text/html", nil))

	if rendered {
		t.Fatal("rendered for anonymous caller")
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	if n := res.calls.Load(); n != 0 {
		t.Errorf("no lookup expected without identity, got %d", n)
	}
}

func TestRequireAdmin_PendingReturnsLoading(t *testing.T) {
	g := guard.New(blockingResolver{}, nil, zap.NewNop())

	var rendered bool
	rec := httptest.NewRecorder()
	req := newRequest("application/json", &models.Identity{ID: "u1"})
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	g.RequireAdmin(protected(&rendered)).ServeHTTP(rec, req.WithContext(ctx))

	if rendered {
		t.Fatal("rendered while role pending")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "loading" {
		t.Errorf("body = %v", body)
	}
}

func TestRequireAdmin_API_Returns403WithRedirect(t *testing.T) {
	g := guard.New(&stubResolver{state: rolelookup.State{}}, nil, zap.NewNop())

	var rendered bool
	rec := httptest.NewRecorder()
	g.RequireAdmin(protected(&rendered)).ServeHTTP(rec, newRequest("application/json", &models.Identity{ID: "u1"}))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["redirect"] != "/dashboard" {
		t.Errorf("redirect = %q", body["redirect"])
	}
}

func TestRequireSignedIn(t *testing.T) {
	g := guard.New(&stubResolver{}, nil, zap.NewNop())

	t.Run("html", func(t *testing.T) {
		var rendered bool
		rec := httptest.NewRecorder()
		g.RequireSignedIn(protected(&rendered)).ServeHTTP(rec, newRequest("text/html", nil))
		if rendered {
			t.Fatal("rendered without identity")
		}
		loc := rec.Header().Get("Location")
		if !strings.HasPrefix(loc, "/login?return=") {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("htmx", func(t *testing.T) {
		var rendered bool
		rec := httptest.NewRecorder()
		req := newRequest("", nil)
		req.Header.Set("HX-Request", "true")
		g.RequireSignedIn(protected(&rendered)).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if !strings.HasPrefix(rec.Header().Get("HX-Redirect"), "/login") {
			t.Errorf("HX-Redirect = %q", rec.Header().Get("HX-Redirect"))
		}
	})

	t.Run("api", func(t *testing.T) {
		var rendered bool
		rec := httptest.NewRecorder()
		g.RequireSignedIn(protected(&rendered)).ServeHTTP(rec, newRequest("application/json", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("signed in", func(t *testing.T) {
		var rendered bool
		rec := httptest.NewRecorder()
		g.RequireSignedIn(protected(&rendered)).ServeHTTP(rec, newRequest("text/html", &models.Identity{ID: "u1"}))
		if !rendered {
			t.Fatal("expected render for signed-in caller")
		}
	})
}

func TestGuard_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := guard.New(&stubResolver{state: rolelookup.State{Known: true, Role: models.RoleUser}}, metrics.New(reg), zap.NewNop())

	var rendered bool
	g.RequireAdmin(protected(&rendered)).ServeHTTP(httptest.NewRecorder(), newRequest("", &models.Identity{ID: "u1"}))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, mf := range mfs {
		if mf.GetName() == "opinwork_guard_decisions_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected guard decision metric")
	}
}
