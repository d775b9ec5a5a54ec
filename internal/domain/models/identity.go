// internal/domain/models/identity.go
package models

import "time"

// Identity providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Identity is the authenticated principal as reported by the identity
// provider. It never carries credentials.
type Identity struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	Provider     string     `json:"provider"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}
