// internal/app/store/invitations/store.go
package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the invitations collection.
const Collection = "invitations"

var (
	// ErrNotFound is returned when no invitation has the given id.
	ErrNotFound = errors.New("invitation not found")
	// ErrNotConsumable is returned by MarkUsed when the invitation is
	// already used or has expired.
	ErrNotConsumable = errors.New("invitation already used or expired")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a fully formed invitation, link included.
func (s *Store) Create(ctx context.Context, inv models.Invitation) error {
	_, err := s.c.InsertOne(ctx, inv)
	return err
}

// GetByID loads an invitation.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Invitation, error) {
	var inv models.Invitation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// List returns all invitations, newest first.
func (s *Store) List(ctx context.Context) ([]models.Invitation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Invitation, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkUsed consumes the invitation for usedBy. The write only matches an
// unused invitation that has not expired at instant at, so two concurrent
// consumers cannot both succeed.
func (s *Store) MarkUsed(ctx context.Context, id primitive.ObjectID, usedBy string, at time.Time) error {
	filter := bson.M{
		"_id":        id,
		"used":       false,
		"expires_at": bson.M{"$gte": at},
	}
	update := bson.M{"$set": bson.M{
		"used":    true,
		"used_by": usedBy,
		"used_at": at,
	}}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrNotConsumable
}
