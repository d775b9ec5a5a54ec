// Package rolelookup resolves the authorization role of an identity from
// its profile record.
package rolelookup

import (
	"context"

	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
)

// RoleSource reads the raw stored role for an identity. found is false
// when no profile exists; a present profile without a usable role string
// reports "".
type RoleSource interface {
	RawRole(ctx context.Context, identityID string) (role string, found bool, err error)
}

// Lookup fetches the role on every call.
type Lookup struct {
	src RoleSource
}

func New(src RoleSource) *Lookup {
	return &Lookup{src: src}
}

// Role returns RoleUser when the profile or its role is absent, and the
// stored value verbatim otherwise. Store failures are returned as errors
// and never mapped to a role.
func (l *Lookup) Role(ctx context.Context, identityID string) (models.Role, error) {
	raw, found, err := l.src.RawRole(ctx, identityID)
	if err != nil {
		return "", err
	}
	if !found || raw == "" {
		return models.RoleUser, nil
	}
	return models.Role(raw), nil
}

// State is the role as seen by a guard. Pending means no answer is
// available yet; Known false with Pending false means the lookup failed.
type State struct {
	Pending bool
	Known   bool
	Role    models.Role
}

// IsAdmin reports whether the state positively establishes the admin role.
func (s State) IsAdmin() bool {
	return !s.Pending && s.Known && s.Role == models.RoleAdmin
}

// Label is the role name for display and metrics.
func (s State) Label() string {
	switch {
	case s.Pending:
		return "pending"
	case !s.Known:
		return "unknown"
	default:
		return string(s.Role)
	}
}
