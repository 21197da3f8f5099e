package identity

import "time"

// Profile is the identity-store view of an account holder.
type Profile struct {
	AccountID int64
	Email     string
	Active    bool
	CreatedAt time.Time
}

// Lookup identifies an account by id, email, or both.
type Lookup struct {
	AccountID int64
	Email     string
}
