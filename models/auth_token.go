package models

import "time"

// UsedAuthToken records a fused key that has already authenticated a request.
// The unique index on TokenHash is the replay check: insert-if-not-exists is
// the single source of truth, valid across any number of server processes.
// Rows are pruned once ExpiresAt passes — a nonce that old could never be
// legitimately replayed and accepted anyway.
type UsedAuthToken struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	TokenHash   string    `gorm:"uniqueIndex;not null" json:"token_hash"`
	FirstSeenAt time.Time `gorm:"not null" json:"first_seen_at"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
}
