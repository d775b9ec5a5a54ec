package profileedit_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/events"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/profileedit"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"github.com/nacholimon/opinwork-firebase/internal/testutil"
	"go.uber.org/zap"
)

var (
	created = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	later   = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
)

func body(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad test body: %v", err)
	}
	return m
}

func TestParsePatch(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		allowed []string
		wantErr bool
		check   func(profilestore.Patch) bool
	}{
		{"name only", `{"name":"Ana"}`, profileedit.SelfFields, false, func(p profilestore.Patch) bool {
			return p.Name != nil && *p.Name == "Ana" && p.Phone == nil && p.Role == nil && p.Active == nil
		}},
		{"admin toggles active", `{"active":false}`, profileedit.AdminFields, false, func(p profilestore.Patch) bool {
			return p.Active != nil && !*p.Active
		}},
		{"admin sets role", `{"role":"admin"}`, profileedit.AdminFields, false, func(p profilestore.Patch) bool {
			return p.Role != nil && *p.Role == models.RoleAdmin
		}},
		{"self cannot set role", `{"role":"admin"}`, profileedit.SelfFields, true, nil},
		{"unknown key", `{"name":"Ana","email":"x@example.com"}`, profileedit.AdminFields, true, nil},
		{"bad role value", `{"role":"root"}`, profileedit.AdminFields, true, nil},
		{"active as string", `{"active":"no"}`, profileedit.AdminFields, true, nil},
		{"name as number", `{"name":5}`, profileedit.SelfFields, true, nil},
		{"empty", `{}`, profileedit.SelfFields, true, nil},
		{"null active", `{"active":null}`, profileedit.AdminFields, true, nil},
		{"null name", `{"name":null}`, profileedit.SelfFields, true, nil},
		{"null phone", `{"phone":null}`, profileedit.SelfFields, true, nil},
		{"null role", `{"role": null }`, profileedit.AdminFields, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := profileedit.ParsePatch(body(t, tt.body), tt.allowed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(p) {
				t.Errorf("unexpected patch %+v", p)
			}
		})
	}
}

func TestParsePatch_FieldErrorNamesKey(t *testing.T) {
	_, err := profileedit.ParsePatch(body(t, `{"photo_url":"x"}`), profileedit.SelfFields)
	var fe *profileedit.FieldError
	if !errors.As(err, &fe) || fe.Field != "photo_url" {
		t.Fatalf("expected FieldError for photo_url, got %v", err)
	}
}

func TestParsePatch_NullNamesKey(t *testing.T) {
	_, err := profileedit.ParsePatch(body(t, `{"name":"Ana","active":null}`), profileedit.AdminFields)
	var fe *profileedit.FieldError
	if !errors.As(err, &fe) || fe.Field != "active" {
		t.Fatalf("expected FieldError for active, got %v", err)
	}
}

type fixture struct {
	svc        *profileedit.Service
	profiles   *testutil.FakeProfiles
	identities *testutil.FakeIdentities
	objects    *testutil.FakeObjects
	bus        *events.LocalBus
	ident      *models.Identity
}

func newFixture() *fixture {
	f := &fixture{
		profiles:   testutil.NewFakeProfiles(),
		identities: testutil.NewFakeIdentities(),
		objects:    testutil.NewFakeObjects(),
		bus:        events.NewLocalBus(),
	}
	f.ident = f.identities.Add(models.Identity{Email: "ana@example.com", DisplayName: "Ana"}, "secret123")
	f.profiles.Put(models.Profile{
		ID:        f.ident.ID,
		Email:     "ana@example.com",
		Name:      "Ana",
		Phone:     "5512345678",
		Role:      models.RoleUser,
		Active:    models.Bool(true),
		CreatedAt: created,
		UpdatedAt: created,
	})
	f.svc = profileedit.NewService(f.profiles, f.identities, f.objects, f.bus, nil, zap.NewNop())
	f.svc.Now = func() time.Time { return later }
	return f
}

func TestUpdateFields_PartialLeavesOthersUntouched(t *testing.T) {
	f := newFixture()
	before, _ := f.profiles.Get(f.ident.ID)

	phone := "+52 (55) 9876-5432"
	got, err := f.svc.UpdateFields(context.Background(), f.ident.ID, f.ident.ID, profilestore.Patch{Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got.Phone != "+525598765432" {
		t.Errorf("phone = %q", got.Phone)
	}
	if got.Name != before.Name || got.Email != before.Email || got.Role != before.Role || got.PhotoURL != before.PhotoURL {
		t.Errorf("unrelated fields changed: before %+v after %+v", before, got)
	}
	if !got.CreatedAt.Equal(before.CreatedAt) {
		t.Error("CreatedAt changed")
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}
}

func TestUpdateFields_AdminDeactivates(t *testing.T) {
	f := newFixture()
	off := false
	got, err := f.svc.UpdateFields(context.Background(), "admin-1", f.ident.ID, profilestore.Patch{Active: &off})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got.IsActive() {
		t.Error("expected inactive profile")
	}
	if !got.UpdatedAt.After(created) {
		t.Error("UpdatedAt did not advance")
	}
	if got.Name != "Ana" || got.Phone != "5512345678" || got.Role != models.RoleUser {
		t.Errorf("other fields changed: %+v", got)
	}
}

func TestUpdateFields_StripsMarkup(t *testing.T) {
	f := newFixture()
	name := "<b>Ana</b>   <script>x()</script>María"
	got, err := f.svc.UpdateFields(context.Background(), f.ident.ID, f.ident.ID, profilestore.Patch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got.Name != "Ana María" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestUpdateFields_PublishesProfileEvent(t *testing.T) {
	f := newFixture()
	var seen []events.Event
	defer f.bus.Subscribe(func(e events.Event) { seen = append(seen, e) })()

	role := models.RoleAdmin
	if _, err := f.svc.UpdateFields(context.Background(), "admin-1", f.ident.ID, profilestore.Patch{Role: &role}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if len(seen) != 1 || seen[0].Kind != events.ProfileUpdated || seen[0].IdentityID != f.ident.ID {
		t.Errorf("events = %+v", seen)
	}
}

func TestUpdateFields_Errors(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.UpdateFields(context.Background(), "a", f.ident.ID, profilestore.Patch{}); !errors.Is(err, profileedit.ErrEmptyPatch) {
		t.Errorf("empty patch: got %v", err)
	}
	name := "x"
	if _, err := f.svc.UpdateFields(context.Background(), "a", "missing", profilestore.Patch{Name: &name}); !errors.Is(err, profilestore.ErrNotFound) {
		t.Errorf("missing profile: got %v", err)
	}
}

func TestUpdateAvatar(t *testing.T) {
	f := newFixture()
	url, err := f.svc.UpdateAvatar(context.Background(), f.ident.ID, strings.NewReader("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}

	key := profileedit.AvatarPrefix + f.ident.ID
	if b, ok := f.objects.Object(key); !ok || string(b) != "png-bytes" {
		t.Fatalf("object %s = %q, %v", key, b, ok)
	}
	if !strings.HasPrefix(url, "https://files.example.com/"+key+"?v=") {
		t.Errorf("url = %q", url)
	}

	ident, _ := f.identities.Get(context.Background(), f.ident.ID)
	prof, _ := f.profiles.Get(f.ident.ID)
	if ident.AvatarURL != url || prof.PhotoURL != url {
		t.Errorf("identity avatar %q, profile photo %q, want %q", ident.AvatarURL, prof.PhotoURL, url)
	}
}

func TestUpdateAvatar_OverwritesSameKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.svc.UpdateAvatar(ctx, f.ident.ID, strings.NewReader("one"), "image/png"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateAvatar(ctx, f.ident.ID, strings.NewReader("two"), "image/png"); err != nil {
		t.Fatal(err)
	}
	b, _ := f.objects.Object(profileedit.AvatarPrefix + f.ident.ID)
	if string(b) != "two" {
		t.Errorf("object = %q, want two", b)
	}
}

func TestUpdateAvatar_UploadFailureWritesNothing(t *testing.T) {
	f := newFixture()
	f.objects.PutErr = errors.New("bucket gone")
	if _, err := f.svc.UpdateAvatar(context.Background(), f.ident.ID, strings.NewReader("x"), "image/png"); err == nil {
		t.Fatal("expected error")
	}
	ident, _ := f.identities.Get(context.Background(), f.ident.ID)
	if ident.AvatarURL != "" {
		t.Errorf("identity avatar set despite failed upload: %q", ident.AvatarURL)
	}
}

func TestUpdateAvatar_ProfileWriteFailureDiverges(t *testing.T) {
	f := newFixture()
	f.profiles.SetPhotoErr = errors.New("write conflict")

	url, err := f.svc.UpdateAvatar(context.Background(), f.ident.ID, strings.NewReader("x"), "image/png")
	if !errors.Is(err, profileedit.ErrAvatarDiverged) {
		t.Fatalf("expected ErrAvatarDiverged, got %v", err)
	}
	ident, _ := f.identities.Get(context.Background(), f.ident.ID)
	if ident.AvatarURL != url {
		t.Errorf("identity avatar = %q, want %q", ident.AvatarURL, url)
	}
}
