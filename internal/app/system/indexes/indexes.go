// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nacholimon/opinwork-firebase/internal/app/store/audit"
	invitationstore "github.com/nacholimon/opinwork-firebase/internal/app/store/invitations"
	listingstore "github.com/nacholimon/opinwork-firebase/internal/app/store/listings"
	"github.com/nacholimon/opinwork-firebase/internal/app/store/oauthstate"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Spec lists the desired indexes for one collection.
type Spec struct {
	Collection string
	Models     []mongo.IndexModel
}

// All returns every index the app relies on.
func All() []Spec {
	return []Spec{
		{identity.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("idx_identity_email")},
			{
				Keys: bson.D{{Key: "federated_subject", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_identity_federated").
					SetPartialFilterExpression(bson.M{"federated_subject": bson.M{"$exists": true}}),
			},
		}},
		{profilestore.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "role", Value: 1}}, Options: options.Index().SetName("idx_profile_role")},
			{Keys: bson.D{{Key: "name_ci", Value: 1}, {Key: "email", Value: 1}}, Options: options.Index().SetName("idx_profile_name")},
		}},
		{invitationstore.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_invitation_created")},
			{Keys: bson.D{{Key: "used", Value: 1}, {Key: "expires_at", Value: 1}}, Options: options.Index().SetName("idx_invitation_open")},
		}},
		{audit.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_audit_time")},
			{Keys: bson.D{{Key: "identity_id", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_audit_identity")},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}}, Options: options.Index().SetName("idx_audit_type")},
		}},
		{oauthstate.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "state", Value: 1}}, Options: options.Index().SetUnique(true).SetName("idx_oauth_state")},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauth_ttl")},
		}},
		{listingstore.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_listing_created")},
		}},
	}
}

// EnsureAll is called at startup. Each collection is reconciled
// independently and problems are aggregated so startup fails with the full
// picture.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string
	for _, spec := range All() {
		if err := ensureIndexSet(ctx, db.Collection(spec.Collection), spec.Models, logger); err != nil {
			problems = append(problems, spec.Collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool {
	return b != nil && *b
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			return nil, err
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet reuses indexes whose keys and uniqueness already match,
// rebuilds those whose uniqueness differs, and creates the rest.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		sig := keySig(m.Keys.(bson.D))
		var wantUnique *bool
		name := ""
		if m.Options != nil {
			wantUnique = m.Options.Unique
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
		}

		if ex, ok := existing[sig]; ok {
			if isUnique(ex.Unique) == isUnique(wantUnique) {
				logger.Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop failed: %v", name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			continue
		}
		logger.Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(wantUnique)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
