// internal/domain/models/identity.go
package models

import "time"

// IdentityRecord is the credential side of a user, kept apart from the
// profile so that profile reads never touch password hashes.
type IdentityRecord struct {
	UID              string         `bson:"_id"`
	Email            string         `bson:"email"`
	PasswordHash     string         `bson:"password_hash"`
	CustomClaims     map[string]any `bson:"custom_claims,omitempty"`
	Disabled         bool           `bson:"disabled"`
	TokensValidAfter time.Time      `bson:"tokens_valid_after"`
	CreatedAt        time.Time      `bson:"created_at"`
	LastSignInAt     *time.Time     `bson:"last_sign_in_at,omitempty"`
}
