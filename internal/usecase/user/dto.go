package user

import "time"

// Reason classifies why an operation did not succeed.
type Reason int

const (
	ReasonNone     Reason = iota // ReasonNone marks a successful outcome
	ReasonInvalid                // ReasonInvalid marks rejected input
	ReasonNotFound               // ReasonNotFound marks a missing user
	ReasonConflict               // ReasonConflict marks an email owned by another user
	ReasonFailed                 // ReasonFailed marks a write the repository reported as not applied
)

// String returns the lowercase name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInvalid:
		return "invalid"
	case ReasonNotFound:
		return "not_found"
	case ReasonConflict:
		return "conflict"
	case ReasonFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a mutating operation.
// A failed Result is an expected, user-facing outcome and never carries an error.
type Result struct {
	Success bool
	Reason  Reason
	Message string
}

// CreateUserResult is the outcome of CreateUser. UserID is set only on success.
type CreateUserResult struct {
	Result
	UserID int64
}

func succeeded(message string) Result {
	return Result{Success: true, Reason: ReasonNone, Message: message}
}

func failed(reason Reason, message string) Result {
	return Result{Success: false, Reason: reason, Message: message}
}

// CreateUserRequest represents the request payload for registering a new user.
// Field order defines the order in which rules are checked.
type CreateUserRequest struct {
	FullName string `validate:"notblank"`
	Email    string `validate:"notblank"`
	Phone    string `validate:"notblank"`
	Password string `validate:"notblank"`
}

// UpdateUserRequest represents the request payload for updating an existing user.
// A blank Password keeps the stored credential. CreatedAt is accepted for
// compatibility with clients that echo the full record and is always ignored.
type UpdateUserRequest struct {
	ID        int64  `validate:"gt=0"`
	FullName  string `validate:"notblank"`
	Email     string `validate:"notblank"`
	Phone     string `validate:"notblank"`
	Password  string
	CreatedAt time.Time
}

// User represents a user DTO returned to callers. Password is always empty.
type User struct {
	ID        int64
	FullName  string
	Email     string
	Phone     string
	Password  string
	CreatedAt time.Time
}
