package domain

import "time"

// AuthToken binds a durable opaque bearer token to a user. A user has at
// most one token; re-authentication returns the existing key instead of
// minting a new one.
type AuthToken struct {
	UserID    string    `json:"user_id"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}
