package types

import "time"

// User represents an account in the system.
// Campgrounds and reviews reference users by ID as their author; a user
// never owns those records.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Username is the unique, case-sensitive login name chosen by the user.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the digest of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// PasswordSalt is the random salt mixed into PasswordHash. Schemes that
	// embed the salt in the hash leave it empty.
	PasswordSalt string `json:"-" db:"password_salt"`

	// HashScheme names the algorithm that produced PasswordHash
	// (e.g., "pbkdf2-sha256", "bcrypt").
	HashScheme string `json:"-" db:"hash_scheme"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
