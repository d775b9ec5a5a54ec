// internal/domain/models/profile.go
package models

import "time"

// Profile is the application-side record for an identity, keyed by the
// identity id. It carries the role used for authorization decisions.
type Profile struct {
	ID       string `bson:"_id" json:"id"`
	Email    string `bson:"email" json:"email"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	NameCI   string `bson:"name_ci,omitempty" json:"-"` // lowercase, diacritics-stripped
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	PhotoURL string `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Role     Role   `bson:"role,omitempty" json:"role"`

	// Active is nil on records written before the flag existed; those count as active.
	Active *bool `bson:"active,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsActive reports whether the profile may sign in.
func (p Profile) IsActive() bool {
	return p.Active == nil || *p.Active
}

// EffectiveRole returns the stored role, or RoleUser when none is set.
func (p Profile) EffectiveRole() Role {
	if p.Role == "" {
		return RoleUser
	}
	return p.Role
}

// Bool returns a pointer to b, for optional flags like Profile.Active.
func Bool(b bool) *bool {
	return &b
}
