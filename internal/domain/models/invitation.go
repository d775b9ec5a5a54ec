// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvitationState is the derived lifecycle state of an invitation.
type InvitationState string

const (
	InvitationActive  InvitationState = "active"
	InvitationExpired InvitationState = "expired"
	InvitationUsed    InvitationState = "used"
)

// Invitation is a single-use, time-limited registration token.
//
// Link is written together with the record so a stored invitation is never
// observed without its registration link.
type Invitation struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	Link      string             `bson:"link" json:"link"`
	CreatedBy string             `bson:"created_by,omitempty" json:"created_by,omitempty"`

	Used   bool       `bson:"used" json:"used"`
	UsedBy *string    `bson:"used_by" json:"used_by"`
	UsedAt *time.Time `bson:"used_at" json:"used_at"`
}

// State derives the invitation state at instant now. Used wins over expiry;
// an invitation whose expiry equals now is still active.
func (i Invitation) State(now time.Time) InvitationState {
	switch {
	case i.Used:
		return InvitationUsed
	case i.ExpiresAt.Before(now):
		return InvitationExpired
	default:
		return InvitationActive
	}
}
