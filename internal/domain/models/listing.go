// internal/domain/models/listing.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing is a housing catalog entry shown to signed-in users.
type Listing struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	Location    string             `json:"location"`
	Description string             `json:"description,omitempty"`
	Bedrooms    int                `json:"bedrooms"`
	Price       decimal.Decimal    `json:"price"`
	Currency    string             `json:"currency"`
	ImageURL    string             `json:"image_url,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}
