package profilestore_test

import (
	"errors"
	"testing"
	"time"

	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"github.com/nacholimon/opinwork-firebase/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func newProfile(id string) models.Profile {
	return models.Profile{
		ID:     id,
		Email:  "Ana@Example.com",
		Name:   "  Ana López ",
		Phone:  "55 1234 5678",
		Role:   models.RoleUser,
		Active: models.Bool(true),
	}
}

func TestStore_Create_Normalizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newProfile("id-1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Email != "ana@example.com" {
		t.Errorf("email: got %q", created.Email)
	}
	if created.Name != "Ana López" {
		t.Errorf("name: got %q", created.Name)
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.Phone != "5512345678" {
		t.Errorf("phone: got %q", created.Phone)
	}
	if !created.UpdatedAt.Equal(created.CreatedAt) {
		t.Errorf("UpdatedAt %v != CreatedAt %v", created.UpdatedAt, created.CreatedAt)
	}
}

func TestStore_Create_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, newProfile("dup")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, newProfile("dup")); !errors.Is(err, profilestore.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, profilestore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_RawRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	docs := []interface{}{
		bson.M{"_id": "admin", "role": "admin"},
		bson.M{"_id": "norole"},
		bson.M{"_id": "numeric", "role": 42},
		bson.M{"_id": "custom", "role": "auditor"},
	}
	if _, err := db.Collection(profilestore.Collection).InsertMany(ctx, docs); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	tests := []struct {
		id        string
		wantRole  string
		wantFound bool
	}{
		{"admin", "admin", true},
		{"norole", "", true},
		{"numeric", "", true},
		{"custom", "auditor", true},
		{"absent", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			role, found, err := store.RawRole(ctx, tt.id)
			if err != nil {
				t.Fatalf("RawRole failed: %v", err)
			}
			if role != tt.wantRole || found != tt.wantFound {
				t.Errorf("RawRole(%q) = (%q, %v), want (%q, %v)", tt.id, role, found, tt.wantRole, tt.wantFound)
			}
		})
	}
}

func TestStore_Update_PartialLeavesOtherFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newProfile("p1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	later := created.CreatedAt.Add(time.Minute)
	inactive := false
	updated, err := store.Update(ctx, "p1", profilestore.Patch{Active: &inactive}, later)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.IsActive() {
		t.Error("expected profile to be inactive")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("UpdatedAt did not advance: %v", updated.UpdatedAt)
	}
	if updated.Name != created.Name || updated.Phone != created.Phone || updated.Role != created.Role || updated.Email != created.Email {
		t.Errorf("unrelated fields changed: got %+v, was %+v", updated, created)
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	name := "x"
	_, err := store.Update(ctx, "missing", profilestore.Patch{Name: &name}, time.Now())
	if !errors.Is(err, profilestore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_AnyAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, newProfile("u1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	hasAdmin, err := store.AnyAdmin(ctx)
	if err != nil {
		t.Fatalf("AnyAdmin failed: %v", err)
	}
	if hasAdmin {
		t.Fatal("expected no admin yet")
	}

	admin := models.RoleAdmin
	if _, err := store.Update(ctx, "u1", profilestore.Patch{Role: &admin}, time.Now()); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	hasAdmin, err = store.AnyAdmin(ctx)
	if err != nil {
		t.Fatalf("AnyAdmin failed: %v", err)
	}
	if !hasAdmin {
		t.Fatal("expected an admin")
	}
}

func TestStore_List_OrderedByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profilestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, p := range []struct{ id, name, email string }{
		{"c", "Carla", "carla@example.com"},
		{"a2", "ana", "zeta@example.com"},
		{"a1", "Ana", "alfa@example.com"},
	} {
		prof := newProfile(p.id)
		prof.Name = p.name
		prof.Email = p.email
		if _, err := store.Create(ctx, prof); err != nil {
			t.Fatalf("Create %s failed: %v", p.id, err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var got []string
	for _, p := range list {
		got = append(got, p.ID)
	}
	want := []string{"a1", "a2", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
