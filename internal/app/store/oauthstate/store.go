// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the name of the OAuth state collection.
const Collection = "oauth_states"

// Purposes of a federated round trip.
const (
	PurposeLogin    = "login"
	PurposeRegister = "register"
)

// ErrInvalid is returned when a state token is unknown, expired or already consumed.
var ErrInvalid = errors.New("invalid or expired oauth state")

// State is a single-use CSRF token for one OAuth round trip.
type State struct {
	State        string    `bson:"state"`
	Purpose      string    `bson:"purpose"`
	InvitationID string    `bson:"invitation_id,omitempty"`
	ReturnURL    string    `bson:"return_url,omitempty"`
	ExpiresAt    time.Time `bson:"expires_at"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Store manages OAuth2 state tokens in MongoDB. A TTL index on expires_at
// removes abandoned tokens.
type Store struct {
	c *mongo.Collection
}

// New creates a new OAuth state Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Save stores a state token.
func (s *Store) Save(ctx context.Context, st State) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, st)
	return err
}

// Consume deletes and returns the state if it exists and has not expired at now.
func (s *Store) Consume(ctx context.Context, state string, now time.Time) (*State, error) {
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": now},
	}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// CleanupExpired deletes tokens that expired at or before now. The TTL
// index does the same, but its monitor only runs once a minute.
func (s *Store) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
