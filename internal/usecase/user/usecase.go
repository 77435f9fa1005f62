package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "user-registration-service/internal/domain/user"
	pkgerrors "user-registration-service/pkg/errors"
	"user-registration-service/pkg/password"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Messages returned in operation outcomes.
const (
	MsgFullNameRequired   = "Full name is required."
	MsgEmailRequired      = "Email is required."
	MsgPhoneRequired      = "Phone number is required."
	MsgPasswordRequired   = "Password is required."
	MsgInvalidUserID      = "Invalid user ID."
	MsgEmailExists        = "Email already exists."
	MsgEmailUsedByAnother = "Email already used by another user."
	MsgUserNotFound       = "User not found."
	MsgUserCreated        = "User created successfully."
	MsgUserUpdated        = "User updated successfully."
	MsgUserDeleted        = "User deleted successfully."
	MsgUpdateFailed       = "Failed to update user."
	MsgDeleteFailed       = "Failed to delete user."
)

// fieldMessages maps a request field to the message reported when its rule fails.
var fieldMessages = map[string]string{
	"ID":       MsgInvalidUserID,
	"FullName": MsgFullNameRequired,
	"Email":    MsgEmailRequired,
	"Phone":    MsgPhoneRequired,
	"Password": MsgPasswordRequired,
}

// Repository defines the interface for user data access operations.
// Any returned error other than domain.ErrEmailTaken is treated as a storage fault
// and surfaces from the use case as a *pkgerrors.InternalError.
type Repository interface {
	List(ctx context.Context) ([]domain.User, error)                               // List all users, in no guaranteed order
	GetByID(ctx context.Context, id int64) (domain.User, bool, error)              // Retrieve user by ID; false when absent
	Create(ctx context.Context, u *domain.User) (int64, error)                     // Create a new user and return its ID
	Update(ctx context.Context, u *domain.User) (bool, error)                      // Update existing user; false when nothing was written
	Delete(ctx context.Context, id int64) (bool, error)                            // Delete user by ID; false when nothing was removed
	EmailExists(ctx context.Context, email string, excludeID *int64) (bool, error) // Report whether another user owns email
}

// uncachedReader is implemented by repositories that front a read cache.
// Writes load the current row through it rather than through a cached copy.
type uncachedReader interface {
	GetByIDUncached(ctx context.Context, id int64) (domain.User, bool, error)
}

// Usecase implements the business rules for user registration.
// It holds no per-request state and is safe for concurrent use.
type Usecase struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request rules
	now      func() time.Time    // Clock used to stamp CreatedAt
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	v := validator.New(validator.WithRequiredStructEnabled())
	// notblank ships with validator but is not registered by default
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	return &Usecase{repo: r, log: log, validate: v, now: time.Now}
}

// firstViolation returns the message for the first failing field of in, or ""
// when every rule passes. Fields are checked in declaration order.
func (uc *Usecase) firstViolation(in any) (string, error) {
	err := uc.validate.Struct(in)
	if err == nil {
		return "", nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "", fmt.Errorf("validate request: %w", err)
	}

	field := validationErrors[0].Field()
	if msg, ok := fieldMessages[field]; ok {
		return msg, nil
	}
	return fmt.Sprintf("%s is invalid.", field), nil
}

// ListUsers returns every user with the password cleared.
func (uc *Usecase) ListUsers(ctx context.Context) ([]User, error) {
	uc.log.Debug("listing users")

	domainUsers, err := uc.repo.List(ctx)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = toDTO(du)
	}
	return users, nil
}

// GetUser retrieves a user by ID. The boolean is false when no such user exists.
func (uc *Usecase) GetUser(ctx context.Context, id int64) (User, bool, error) {
	u, found, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		uc.log.Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return User{}, false, pkgerrors.NewInternalError("failed to get user", err)
	}
	if !found {
		uc.log.Debug("user not found", zap.Int64("id", id))
		return User{}, false, nil
	}
	return toDTO(u), true, nil
}

// CreateUser registers a new user after validating the request and checking email uniqueness.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (CreateUserResult, error) {
	uc.log.Info("creating user", zap.String("email", in.Email))

	msg, err := uc.firstViolation(in)
	if err != nil {
		return CreateUserResult{}, err
	}
	if msg != "" {
		uc.log.Warn("create user validation failed", zap.String("reason", msg))
		return CreateUserResult{Result: failed(ReasonInvalid, msg)}, nil
	}

	exists, err := uc.repo.EmailExists(ctx, in.Email, nil)
	if err != nil {
		uc.log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return CreateUserResult{}, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if exists {
		uc.log.Warn("email already exists", zap.String("email", in.Email))
		return CreateUserResult{Result: failed(ReasonConflict, MsgEmailExists)}, nil
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		FullName:  in.FullName,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  password.Hash(in.Password),
		CreatedAt: uc.now().UTC(),
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		// Lost the race against a concurrent create with the same email.
		uc.log.Warn("email taken by concurrent create", zap.String("email", in.Email))
		return CreateUserResult{Result: failed(ReasonConflict, MsgEmailExists)}, nil
	}
	if err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return CreateUserResult{}, pkgerrors.NewInternalError("failed to create user", err)
	}

	uc.log.Info("user created", zap.Int64("id", id))
	return CreateUserResult{Result: succeeded(MsgUserCreated), UserID: id}, nil
}

// UpdateUser replaces the profile of an existing user.
// A blank password keeps the stored hash; CreatedAt is never changed.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (Result, error) {
	uc.log.Info("updating user", zap.Int64("id", in.ID), zap.String("email", in.Email))

	msg, err := uc.firstViolation(in)
	if err != nil {
		return Result{}, err
	}
	if msg != "" {
		uc.log.Warn("update user validation failed", zap.Int64("id", in.ID), zap.String("reason", msg))
		return failed(ReasonInvalid, msg), nil
	}

	existing, found, err := uc.loadCurrent(ctx, in.ID)
	if err != nil {
		uc.log.Error("failed to load user for update", zap.Int64("id", in.ID), zap.Error(err))
		return Result{}, pkgerrors.NewInternalError("failed to get user", err)
	}
	if !found {
		uc.log.Warn("update of unknown user", zap.Int64("id", in.ID))
		return failed(ReasonNotFound, MsgUserNotFound), nil
	}

	taken, err := uc.repo.EmailExists(ctx, in.Email, &in.ID)
	if err != nil {
		uc.log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return Result{}, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if taken {
		uc.log.Warn("email already used by another user", zap.Int64("id", in.ID), zap.String("email", in.Email))
		return failed(ReasonConflict, MsgEmailUsedByAnother), nil
	}

	hashed := existing.Password
	if strings.TrimSpace(in.Password) != "" {
		hashed = password.Hash(in.Password)
	}

	ok, err := uc.repo.Update(ctx, &domain.User{
		ID:        in.ID,
		FullName:  in.FullName,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  hashed,
		CreatedAt: existing.CreatedAt,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		uc.log.Warn("email taken by concurrent write", zap.Int64("id", in.ID), zap.String("email", in.Email))
		return failed(ReasonConflict, MsgEmailUsedByAnother), nil
	}
	if err != nil {
		uc.log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return Result{}, pkgerrors.NewInternalError("failed to update user", err)
	}
	if !ok {
		uc.log.Warn("update reported no rows", zap.Int64("id", in.ID))
		return failed(ReasonFailed, MsgUpdateFailed), nil
	}

	return succeeded(MsgUserUpdated), nil
}

// DeleteUser removes an existing user.
func (uc *Usecase) DeleteUser(ctx context.Context, id int64) (Result, error) {
	uc.log.Info("deleting user", zap.Int64("id", id))

	_, found, err := uc.loadCurrent(ctx, id)
	if err != nil {
		uc.log.Error("failed to load user for delete", zap.Int64("id", id), zap.Error(err))
		return Result{}, pkgerrors.NewInternalError("failed to get user", err)
	}
	if !found {
		uc.log.Warn("delete of unknown user", zap.Int64("id", id))
		return failed(ReasonNotFound, MsgUserNotFound), nil
	}

	ok, err := uc.repo.Delete(ctx, id)
	if err != nil {
		uc.log.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return Result{}, pkgerrors.NewInternalError("failed to delete user", err)
	}
	if !ok {
		uc.log.Warn("delete reported no rows", zap.Int64("id", id))
		return failed(ReasonFailed, MsgDeleteFailed), nil
	}

	return succeeded(MsgUserDeleted), nil
}

// toDTO converts a domain user into the caller-facing shape, dropping the password hash.
func toDTO(u domain.User) User {
	return User{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Password:  "",
		CreatedAt: u.CreatedAt,
	}
}

// loadCurrent reads the stored row a write is about to replace.
func (uc *Usecase) loadCurrent(ctx context.Context, id int64) (domain.User, bool, error) {
	if r, ok := uc.repo.(uncachedReader); ok {
		return r.GetByIDUncached(ctx, id)
	}
	return uc.repo.GetByID(ctx, id)
}
