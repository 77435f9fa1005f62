package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-registration-service/internal/domain/user"
)

// UserRepoPG implements the user Repository using GORM.
// It runs against PostgreSQL in production and SQLite in development and tests.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
// The connection should be opened with TranslateError enabled so unique
// violations surface as gorm.ErrDuplicatedKey.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
// Column names match the stored-procedure schema so both gateways share one table.
type UserSchema struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`             // Unique identifier with auto-increment
	FullName  string    `gorm:"column:fullname;not null"`                       // User's full name
	Email     string    `gorm:"column:email;not null;uniqueIndex"`              // Unique email address
	Phone     string    `gorm:"column:phone;not null"`                          // Phone number, unvalidated
	Password  string    `gorm:"column:password;not null"`                       // Hashed password
	CreatedAt time.Time `gorm:"column:createdat;not null;autoCreateTime:false"` // Creation time in UTC
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// AutoMigrate creates or updates the users table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

func toDomain(m UserSchema) user.User {
	return user.User{
		ID:        m.ID,
		FullName:  m.FullName,
		Email:     m.Email,
		Phone:     m.Phone,
		Password:  m.Password,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// List retrieves all users ordered by ID.
func (r *UserRepoPG) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = toDomain(model)
	}
	return users, nil
}

// GetByID retrieves a user by ID. The boolean is false when no row matches.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (user.User, bool, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return user.User{}, false, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return user.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}

	return toDomain(model), true, nil
}

// Create inserts a new user and returns the ID assigned by the database.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := UserSchema{
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Password:  u.Password,
		CreatedAt: u.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Warn("unique constraint rejected user insert", zap.String("email", u.Email))
			return 0, user.ErrEmailTaken
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// Update writes the mutable columns of an existing user. CreatedAt is never written.
// The boolean is false when no row matched the ID.
func (r *UserRepoPG) Update(ctx context.Context, u *user.User) (bool, error) {
	if u == nil {
		return false, errors.New("user cannot be nil")
	}

	result := r.db.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"fullname": u.FullName,
			"email":    u.Email,
			"phone":    u.Phone,
			"password": u.Password,
		})
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Warn("unique constraint rejected user update", zap.Int64("id", u.ID), zap.String("email", u.Email))
			return false, user.ErrEmailTaken
		}
		r.log.Error("failed to update user in db", zap.Error(err), zap.Int64("id", u.ID))
		return false, fmt.Errorf("failed to update user: %w", err)
	}

	r.log.Info("user updated in db", zap.Int64("id", u.ID), zap.Int64("rows", result.RowsAffected))
	return result.RowsAffected > 0, nil
}

// Delete removes a user by ID. The boolean is false when no row matched.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if err := result.Error; err != nil {
		r.log.Error("failed to delete user in db", zap.Error(err), zap.Int64("id", id))
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	r.log.Info("user deleted in db", zap.Int64("id", id), zap.Int64("rows", result.RowsAffected))
	return result.RowsAffected > 0, nil
}

// EmailExists reports whether a user other than excludeID owns email.
// A nil excludeID checks every user.
func (r *UserRepoPG) EmailExists(ctx context.Context, email string, excludeID *int64) (bool, error) {
	q := r.db.WithContext(ctx).Model(&UserSchema{}).Where("email = ?", email)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		r.log.Error("failed to check email in db", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return count > 0, nil
}
