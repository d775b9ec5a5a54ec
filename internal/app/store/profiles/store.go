// internal/app/store/profiles/store.go
package profilestore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/normalize"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the profiles collection.
const Collection = "profiles"

var (
	// ErrNotFound is returned when no profile exists for the identity.
	ErrNotFound = errors.New("profile not found")
	// ErrExists is returned when a profile already exists for the identity.
	ErrExists = errors.New("profile already exists")
)

// Patch is a partial profile update. Nil fields are left untouched.
type Patch struct {
	Name   *string
	Phone  *string
	Role   *models.Role
	Active *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Role == nil && p.Active == nil
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// GetByID loads the profile for an identity id.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// RawRole reads only the role field of a profile. found is false when no
// profile exists. A missing or non-string role yields "" with found true.
func (s *Store) RawRole(ctx context.Context, id string) (string, bool, error) {
	var doc bson.Raw
	opts := options.FindOne().SetProjection(bson.M{"role": 1})
	if err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, err
	}
	val, err := doc.LookupErr("role")
	if err != nil {
		return "", true, nil
	}
	role, ok := val.StringValueOK()
	if !ok {
		return "", true, nil
	}
	return role, true, nil
}

// Create inserts a new profile. CreatedAt defaults to now and UpdatedAt
// starts equal to CreatedAt.
func (s *Store) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	p.Email = normalize.Email(p.Email)
	p.Name = normalize.Name(p.Name)
	p.NameCI = text.Fold(p.Name)
	p.Phone = normalize.Phone(p.Phone)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Profile{}, ErrExists
		}
		return models.Profile{}, err
	}
	return p, nil
}

// List returns all profiles ordered by folded name, then email.
func (s *Store) List(ctx context.Context) ([]models.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "email", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Profile, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the non-nil fields of p plus updated_at and returns the
// resulting profile. Fields absent from the patch are not written.
func (s *Store) Update(ctx context.Context, id string, p Patch, now time.Time) (*models.Profile, error) {
	set := bson.M{"updated_at": now}
	if p.Name != nil {
		set["name"] = *p.Name
		set["name_ci"] = text.Fold(*p.Name)
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Role != nil {
		set["role"] = string(*p.Role)
	}
	if p.Active != nil {
		set["active"] = *p.Active
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Profile
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// SetPhotoURL records the avatar URL on the profile.
func (s *Store) SetPhotoURL(ctx context.Context, id, url string, now time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"photo_url":  url,
		"updated_at": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AnyAdmin reports whether at least one profile holds the admin role.
func (s *Store) AnyAdmin(ctx context.Context) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"role": string(models.RoleAdmin)}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
