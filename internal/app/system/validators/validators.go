// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	invitationstore "github.com/nacholimon/opinwork-firebase/internal/app/store/invitations"
	listingstore "github.com/nacholimon/opinwork-firebase/internal/app/store/listings"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, log); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema, log); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				log.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure(identity.Collection, identitiesSchema())
	ensure(profilestore.Collection, profilesSchema())
	ensure(invitationstore.Collection, invitationsSchema())
	ensure(listingstore.Collection, listingsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------------- collections ---------------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection makes sure name exists and reports whether it created it.
// Another instance creating it concurrently is not an error.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, log *zap.Logger) (created bool, err error) {
	if exists, listErr := collectionExists(ctx, db, name); listErr == nil && exists {
		log.Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			log.Debug("collection exists", zap.String("collection", name))
			return false, nil
		}
		log.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	log.Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	log.Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func identitiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "provider", "created_at"},
			"properties": bson.M{
				"email":      bson.M{"bsonType": "string", "minLength": 3, "pattern": "@"},
				"provider":   bson.M{"enum": bson.A{models.ProviderPassword, models.ProviderGoogle}},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

// role is free-form: unrecognised values are read as "user".
func profilesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "created_at"},
			"properties": bson.M{
				"email":      bson.M{"bsonType": "string", "minLength": 3},
				"name":       bson.M{"bsonType": "string"},
				"name_ci":    bson.M{"bsonType": "string"},
				"phone":      bson.M{"bsonType": "string", "pattern": "^\\+?[0-9]*$"},
				"photo_url":  bson.M{"bsonType": "string"},
				"role":       bson.M{"bsonType": "string"},
				"active":     bson.M{"bsonType": "bool"},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func invitationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"created_at", "expires_at", "link", "used"},
			"properties": bson.M{
				"created_at": bson.M{"bsonType": "date"},
				"expires_at": bson.M{"bsonType": "date"},
				"link":       bson.M{"bsonType": "string", "minLength": 1},
				"created_by": bson.M{"bsonType": "string"},
				"used":       bson.M{"bsonType": "bool"},
				"used_by":    bson.M{"bsonType": bson.A{"string", "null"}},
				"used_at":    bson.M{"bsonType": bson.A{"date", "null"}},
			},
		},
	}
}

func listingsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "price", "currency", "created_at"},
			"properties": bson.M{
				"title":      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"location":   bson.M{"bsonType": "string"},
				"bedrooms":   bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"price":      bson.M{"bsonType": "decimal"},
				"currency":   bson.M{"bsonType": "string", "minLength": 3, "maxLength": 3},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
