// internal/app/store/listings/store.go
package listingstore

import (
	"context"
	"time"

	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the housing listings collection.
const Collection = "housing_listings"

// DefaultLimit caps List when the caller passes a non-positive limit.
const DefaultLimit = 50

// record is the stored shape. Prices are kept as Decimal128 so no
// precision is lost between the catalog and the credit simulator.
type record struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Location    string               `bson:"location"`
	Description string               `bson:"description,omitempty"`
	Bedrooms    int                  `bson:"bedrooms"`
	Price       primitive.Decimal128 `bson:"price"`
	Currency    string               `bson:"currency"`
	ImageURL    string               `bson:"image_url,omitempty"`
	CreatedAt   time.Time            `bson:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a listing and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, l models.Listing) (models.Listing, error) {
	price, err := primitive.ParseDecimal128(l.Price.String())
	if err != nil {
		return models.Listing{}, err
	}
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.Currency == "" {
		l.Currency = "MXN"
	}
	rec := record{
		ID:          l.ID,
		Title:       l.Title,
		Location:    l.Location,
		Description: l.Description,
		Bedrooms:    l.Bedrooms,
		Price:       price,
		Currency:    l.Currency,
		ImageURL:    l.ImageURL,
		CreatedAt:   l.CreatedAt,
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

// List returns up to limit listings, newest first.
func (s *Store) List(ctx context.Context, limit int64) ([]models.Listing, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Listing, 0)
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(rec.Price.String())
		if err != nil {
			return nil, err
		}
		out = append(out, models.Listing{
			ID:          rec.ID,
			Title:       rec.Title,
			Location:    rec.Location,
			Description: rec.Description,
			Bedrooms:    rec.Bedrooms,
			Price:       price,
			Currency:    rec.Currency,
			ImageURL:    rec.ImageURL,
			CreatedAt:   rec.CreatedAt,
		})
	}
	return out, cur.Err()
}
