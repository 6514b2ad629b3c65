package domain

import "time"

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves the storage/auth layers.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the acting identity attached to every call into the core.
// The core never authenticates credentials itself; the auth middleware
// resolves the session token into a Principal.
type Principal struct {
	UserID  string
	IsAdmin bool
}
