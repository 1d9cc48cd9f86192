package domain

import "time"

// Session is the provider-issued credential bundle for a signed-in user.
// The provider owns its lifecycle; this client only carries and caches it.
type Session struct {
	UserID       string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// AttemptRecord tracks consecutive failed login attempts for this client
// profile. One global record per profile, not per identity.
type AttemptRecord struct {
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}
