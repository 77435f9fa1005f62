package user

import (
	"errors"
	"time"
)

// ErrEmailTaken is returned by a repository when the storage-level unique
// constraint on email rejects a write.
var ErrEmailTaken = errors.New("email already taken")

// User represents a registered user in the system.
type User struct {
	ID        int64     // ID is assigned by storage on creation and never changes
	FullName  string    // FullName is the display name of the user
	Email     string    // Email is unique across all users
	Phone     string    // Phone is stored as provided, without format checks
	Password  string    // Password holds the hashed credential, never the plaintext
	CreatedAt time.Time // CreatedAt is stamped once, in UTC, at creation
}
