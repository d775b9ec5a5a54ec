package validators_test

import (
	"testing"
	"time"

	"github.com/nacholimon/opinwork-firebase/internal/app/system/validators"
	"github.com/nacholimon/opinwork-firebase/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"identities", "profiles", "invitations", "housing_listings"} {
		if !have[want] {
			t.Errorf("collection %q not created", want)
		}
	}
}

func TestProfilesValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	now := time.Now().UTC()
	tests := []struct {
		name    string
		doc     bson.M
		wantErr bool
	}{
		{"valid", bson.M{"_id": "u1", "email": "ana@example.com", "role": "user", "created_at": now}, false},
		{"unrecognised role still accepted", bson.M{"_id": "u2", "email": "luis@example.com", "role": "supervisor", "created_at": now}, false},
		{"missing email", bson.M{"_id": "u3", "created_at": now}, true},
		{"phone with letters", bson.M{"_id": "u4", "email": "eva@example.com", "phone": "55-abc", "created_at": now}, true},
		{"active not bool", bson.M{"_id": "u5", "email": "raul@example.com", "active": "yes", "created_at": now}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.Collection("profiles").InsertOne(ctx, tc.doc)
			if (err != nil) != tc.wantErr {
				t.Fatalf("InsertOne err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestInvitationsValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	now := time.Now().UTC()
	valid := bson.M{
		"_id":        primitive.NewObjectID(),
		"created_at": now,
		"expires_at": now.Add(24 * time.Hour),
		"link":       "https://opinwork.example.com/register?invitation=x",
		"used":       false,
		"used_by":    nil,
		"used_at":    nil,
	}
	if _, err := db.Collection("invitations").InsertOne(ctx, valid); err != nil {
		t.Fatalf("valid invitation rejected: %v", err)
	}

	noLink := bson.M{"_id": primitive.NewObjectID(), "created_at": now, "expires_at": now, "used": false}
	if _, err := db.Collection("invitations").InsertOne(ctx, noLink); err == nil {
		t.Fatal("invitation without link accepted")
	}
}
