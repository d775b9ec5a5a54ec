package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nacholimon/opinwork-firebase/internal/app/features/dashboard"
	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/guard"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/invitation"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/rolelookup"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"github.com/nacholimon/opinwork-firebase/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type stubResolver rolelookup.State

func (s stubResolver) Resolve(context.Context, string) rolelookup.State {
	return rolelookup.State(s)
}

type fixture struct {
	h        *dashboard.Handler
	profiles *testutil.FakeProfiles
	invs     *testutil.FakeInvitations
	svc      *invitation.Service
}

func newFixture(state rolelookup.State) *fixture {
	logger := zap.NewNop()
	f := &fixture{profiles: testutil.NewFakeProfiles(), invs: testutil.NewFakeInvitations()}
	f.svc = invitation.NewService(f.invs, f.profiles, testutil.NewFakeIdentities(), "https://opinwork.example.com", nil, nil, logger)
	f.h = dashboard.NewHandler(f.profiles, f.svc, stubResolver(state), i18n.New("es-MX"), uierrors.NewErrorLogger(logger), logger)
	return f
}

var created = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestServeDashboard(t *testing.T) {
	tests := []struct {
		name  string
		state rolelookup.State
		want  string
	}{
		{"user", rolelookup.State{Known: true, Role: models.RoleUser}, "user"},
		{"admin", rolelookup.State{Known: true, Role: models.RoleAdmin}, "admin"},
		{"pending", rolelookup.State{Pending: true}, "pending"},
		{"unknown", rolelookup.State{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.state)
			f.profiles.Put(models.Profile{ID: "u1", Email: "ana@example.com", Name: "Ana"})

			rec := httptest.NewRecorder()
			ident := &models.Identity{ID: "u1", Email: "ana@example.com", CreatedAt: created}
			f.h.ServeDashboard(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/dashboard", nil, ident))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var body struct {
				Role           string          `json:"role"`
				AccountCreated time.Time       `json:"account_created"`
				Profile        *models.Profile `json:"profile"`
			}
			testutil.DecodeBody(t, rec, &body)
			if body.Role != tt.want {
				t.Errorf("role = %q, want %q", body.Role, tt.want)
			}
			if !body.AccountCreated.Equal(created) {
				t.Errorf("account_created = %v, want %v", body.AccountCreated, created)
			}
			if body.Profile == nil || body.Profile.Name != "Ana" {
				t.Errorf("profile = %+v", body.Profile)
			}
		})
	}
}

func TestServeDashboard_ProfileFailureStillRenders(t *testing.T) {
	f := newFixture(rolelookup.State{Known: true, Role: models.RoleUser})
	f.profiles.GetErr = errors.New("mongo down")

	rec := httptest.NewRecorder()
	f.h.ServeDashboard(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/dashboard", nil, &models.Identity{ID: "u1"}))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestServeAdmin_Counts(t *testing.T) {
	f := newFixture(rolelookup.State{Known: true, Role: models.RoleAdmin})
	f.profiles.Put(models.Profile{ID: "a1", Role: models.RoleAdmin})
	f.profiles.Put(models.Profile{ID: "u1", Role: models.RoleUser, Active: models.Bool(true)})
	f.profiles.Put(models.Profile{ID: "u2", Role: models.RoleUser, Active: models.Bool(false)})

	now := time.Now().UTC()
	f.invs.Put(models.Invitation{ID: primitive.NewObjectID(), CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	f.invs.Put(models.Invitation{ID: primitive.NewObjectID(), CreatedAt: now, ExpiresAt: now.Add(-time.Hour)})
	f.invs.Put(models.Invitation{ID: primitive.NewObjectID(), CreatedAt: now, ExpiresAt: now.Add(time.Hour), Used: true})

	rec := httptest.NewRecorder()
	f.h.ServeAdmin(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/admin-dashboard", nil, &models.Identity{ID: "a1"}))

	var body struct {
		Counts struct {
			Users             *int `json:"users"`
			ActiveUsers       *int `json:"active_users"`
			Admins            *int `json:"admins"`
			ActiveInvitations *int `json:"active_invitations"`
		} `json:"counts"`
	}
	testutil.DecodeBody(t, rec, &body)
	c := body.Counts
	if c.Users == nil || *c.Users != 3 || *c.ActiveUsers != 2 || *c.Admins != 1 {
		t.Errorf("user counts = %+v", c)
	}
	if c.ActiveInvitations == nil || *c.ActiveInvitations != 1 {
		t.Errorf("active invitations = %v, want 1", c.ActiveInvitations)
	}
}

func TestServeAdmin_CountFailureLeavesGap(t *testing.T) {
	f := newFixture(rolelookup.State{Known: true, Role: models.RoleAdmin})
	f.invs.GetErr = errors.New("mongo down")

	rec := httptest.NewRecorder()
	f.h.ServeAdmin(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/admin-dashboard", nil, &models.Identity{ID: "a1"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Counts map[string]*int `json:"counts"`
	}
	testutil.DecodeBody(t, rec, &body)
	if body.Counts["active_invitations"] != nil {
		t.Errorf("active_invitations = %v, want null", *body.Counts["active_invitations"])
	}
	if body.Counts["users"] == nil {
		t.Error("users count should still be present")
	}
}

func TestAdminRoutes_Guarded(t *testing.T) {
	tests := []struct {
		name     string
		state    rolelookup.State
		wantCode int
	}{
		{"admin renders", rolelookup.State{Known: true, Role: models.RoleAdmin}, http.StatusOK},
		{"user is refused", rolelookup.State{Known: true, Role: models.RoleUser}, http.StatusForbidden},
		{"unknown is refused", rolelookup.State{}, http.StatusForbidden},
		{"pending waits", rolelookup.State{Pending: true}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.state)
			g := guard.New(stubResolver(tt.state), nil, zap.NewNop())
			router := dashboard.AdminRoutes(f.h, g)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", nil, &models.Identity{ID: "a1"}))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestRoutes_RequireSignIn(t *testing.T) {
	f := newFixture(rolelookup.State{})
	router := dashboard.Routes(f.h, guard.New(stubResolver{}, nil, zap.NewNop()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
