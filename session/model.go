package session

import "time"

// CurrentSchemaVersion is the schema written for new sessions. Decoding
// accepts any version up to and including this one.
const CurrentSchemaVersion = 1

// Session defines a public type used by backoffice APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	SessionID string `json:"-"`

	StaffID      string `json:"staff_id"`
	Email        string `json:"email"`
	IsSuperAdmin bool   `json:"is_super_admin"`

	CreatedAt      int64 `json:"created_at"`
	LastActivityAt int64 `json:"last_activity_at"`
	// ExpiresAt is the absolute-cap expiry in Unix seconds. Zero means no
	// cap; the idle TTL on the Redis key is then the only bound.
	ExpiresAt int64 `json:"expires_at"`

	SchemaVersion uint8 `json:"v"`
}

// Expired reports whether the absolute cap has passed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.Unix() > s.ExpiresAt
}
