package identity

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/events"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/inputval"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/normalize"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// Collection is the name of the identities collection.
const Collection = "identities"

type record struct {
	ID               string     `bson:"_id"`
	Email            string     `bson:"email"`
	DisplayName      string     `bson:"display_name,omitempty"`
	AvatarURL        string     `bson:"avatar_url,omitempty"`
	PasswordHash     string     `bson:"password_hash,omitempty"`
	Provider         string     `bson:"provider"`
	FederatedSubject string     `bson:"federated_subject,omitempty"`
	CreatedAt        time.Time  `bson:"created_at"`
	LastSignInAt     *time.Time `bson:"last_sign_in_at,omitempty"`
}

func (r record) identity() *models.Identity {
	return &models.Identity{
		ID:           r.ID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		AvatarURL:    r.AvatarURL,
		Provider:     r.Provider,
		CreatedAt:    r.CreatedAt,
		LastSignInAt: r.LastSignInAt,
	}
}

// MongoProvider stores identities in MongoDB with bcrypt password hashes.
type MongoProvider struct {
	c   *mongo.Collection
	bus events.Bus

	// Now is the clock; tests may replace it.
	Now func() time.Time
}

func NewMongoProvider(db *mongo.Database, bus events.Bus) *MongoProvider {
	return &MongoProvider{
		c:   db.Collection(Collection),
		bus: bus,
		Now: func() time.Time { return time.Now().UTC() },
	}
}

func (p *MongoProvider) publish(ctx context.Context, kind events.Kind, id string) {
	if p.bus == nil {
		return
	}
	_ = p.bus.Publish(ctx, events.Event{Kind: kind, IdentityID: id, At: p.Now()})
}

func (p *MongoProvider) Get(ctx context.Context, id string) (*models.Identity, error) {
	var rec record
	if err := p.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec.identity(), nil
}

// CreateIdentity registers an email/password identity.
func (p *MongoProvider) CreateIdentity(ctx context.Context, email, password, displayName string) (*models.Identity, error) {
	email = normalize.Email(email)
	if !inputval.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	rec := record{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  normalize.Name(displayName),
		PasswordHash: string(hash),
		Provider:     models.ProviderPassword,
		CreatedAt:    p.Now(),
	}
	if _, err := p.c.InsertOne(ctx, rec); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return rec.identity(), nil
}

// SignIn verifies an email/password pair. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (p *MongoProvider) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	var rec record
	err := p.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if rec.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := p.Now()
	if _, err := p.c.UpdateOne(ctx, bson.M{"_id": rec.ID}, bson.M{"$set": bson.M{"last_sign_in_at": now}}); err != nil {
		return nil, err
	}
	rec.LastSignInAt = &now
	p.publish(ctx, events.IdentitySignedIn, rec.ID)
	return rec.identity(), nil
}

// SignInFederated signs in with an externally asserted profile. An identity
// already linked to the subject wins; otherwise an identity with the same
// verified email is linked; otherwise a new identity is created. created
// reports the last case.
func (p *MongoProvider) SignInFederated(ctx context.Context, fp FederatedProfile) (*models.Identity, bool, error) {
	email := normalize.Email(fp.Email)
	if !fp.EmailVerified {
		return nil, false, ErrUnverifiedEmail
	}
	if !inputval.IsValidEmail(email) {
		return nil, false, ErrInvalidEmail
	}
	subject := fp.Provider + ":" + fp.Subject
	now := p.Now()

	var rec record
	err := p.c.FindOneAndUpdate(ctx,
		bson.M{"federated_subject": subject},
		bson.M{"$set": bson.M{"last_sign_in_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err == nil {
		p.publish(ctx, events.IdentitySignedIn, rec.ID)
		return rec.identity(), false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	err = p.c.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"federated_subject": subject, "last_sign_in_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err == nil {
		p.publish(ctx, events.IdentitySignedIn, rec.ID)
		return rec.identity(), false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	rec = record{
		ID:               uuid.NewString(),
		Email:            email,
		DisplayName:      normalize.Name(fp.Name),
		AvatarURL:        fp.Picture,
		Provider:         fp.Provider,
		FederatedSubject: subject,
		CreatedAt:        now,
		LastSignInAt:     &now,
	}
	if _, err := p.c.InsertOne(ctx, rec); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, false, ErrEmailInUse
		}
		return nil, false, err
	}
	p.publish(ctx, events.IdentitySignedIn, rec.ID)
	return rec.identity(), true, nil
}

// SignOut announces that the identity's session ended.
func (p *MongoProvider) SignOut(ctx context.Context, id string) error {
	p.publish(ctx, events.IdentitySignedOut, id)
	return nil
}

// UpdateIdentityProfile sets display fields and returns the fresh identity.
func (p *MongoProvider) UpdateIdentityProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.Identity, error) {
	set := bson.M{}
	if upd.DisplayName != nil {
		set["display_name"] = normalize.Name(*upd.DisplayName)
	}
	if upd.AvatarURL != nil {
		set["avatar_url"] = *upd.AvatarURL
	}
	if len(set) == 0 {
		return p.Get(ctx, id)
	}

	var rec record
	err := p.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.publish(ctx, events.IdentityUpdated, id)
	return rec.identity(), nil
}
