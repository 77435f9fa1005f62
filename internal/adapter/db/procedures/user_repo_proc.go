package procedures

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"user-registration-service/internal/domain/user"
)

const uniqueViolation = "23505"

const (
	sqlGetAll      = `SELECT id, fullname, email, phone, password, createdat FROM get_all_users()`
	sqlGetByID     = `SELECT id, fullname, email, phone, password, createdat FROM get_user_by_id($1)`
	sqlCreate      = `SELECT create_user($1, $2, $3, $4, $5)`
	sqlUpdate      = `SELECT update_user($1, $2, $3, $4, $5)`
	sqlDelete      = `SELECT delete_user($1)`
	sqlEmailExists = `SELECT check_email_exists($1, $2)`
)

type dbtx interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// UserRepoProc implements the user Repository by calling stored functions
// through a pgx pool. Every method is a single statement.
type UserRepoProc struct {
	db  dbtx
	log *zap.Logger
}

// NewUserRepoProc creates a gateway over db, normally a *pgxpool.Pool.
func NewUserRepoProc(db dbtx, log *zap.Logger) *UserRepoProc {
	return &UserRepoProc{db: db, log: log}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u         user.User
		createdAt time.Time
	)
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.Password, &createdAt); err != nil {
		return user.User{}, err
	}
	u.CreatedAt = createdAt.UTC()
	return u, nil
}

// List calls get_all_users().
func (r *UserRepoProc) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.Query(ctx, sqlGetAll)
	if err != nil {
		r.log.Error("get_all_users failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("get_all_users failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetByID calls get_user_by_id(id). The boolean is false when it yields no row.
func (r *UserRepoProc) GetByID(ctx context.Context, id int64) (user.User, bool, error) {
	u, err := scanUser(r.db.QueryRow(ctx, sqlGetByID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, false, nil
	}
	if err != nil {
		r.log.Error("get_user_by_id failed", zap.Int64("id", id), zap.Error(err))
		return user.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}
	return u, true, nil
}

// Create calls create_user and returns the new id.
func (r *UserRepoProc) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	var id int64
	err := r.db.QueryRow(ctx, sqlCreate, u.FullName, u.Email, u.Phone, u.Password, u.CreatedAt).Scan(&id)
	if isUniqueViolation(err) {
		r.log.Warn("unique constraint rejected user insert", zap.String("email", u.Email))
		return 0, user.ErrEmailTaken
	}
	if err != nil {
		r.log.Error("create_user failed", zap.String("email", u.Email), zap.Error(err))
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created via procedure", zap.Int64("id", id))
	return id, nil
}

// Update calls update_user. CreatedAt is not passed.
func (r *UserRepoProc) Update(ctx context.Context, u *user.User) (bool, error) {
	if u == nil {
		return false, errors.New("user cannot be nil")
	}

	var ok bool
	err := r.db.QueryRow(ctx, sqlUpdate, u.ID, u.FullName, u.Email, u.Phone, u.Password).Scan(&ok)
	if isUniqueViolation(err) {
		r.log.Warn("unique constraint rejected user update", zap.Int64("id", u.ID), zap.String("email", u.Email))
		return false, user.ErrEmailTaken
	}
	if err != nil {
		r.log.Error("update_user failed", zap.Int64("id", u.ID), zap.Error(err))
		return false, fmt.Errorf("failed to update user: %w", err)
	}
	return ok, nil
}

// Delete calls delete_user.
func (r *UserRepoProc) Delete(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, sqlDelete, id).Scan(&ok); err != nil {
		r.log.Error("delete_user failed", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return ok, nil
}

// EmailExists calls check_email_exists. A nil excludeID is sent as NULL.
func (r *UserRepoProc) EmailExists(ctx context.Context, email string, excludeID *int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, sqlEmailExists, email, excludeID).Scan(&exists); err != nil {
		r.log.Error("check_email_exists failed", zap.String("email", email), zap.Error(err))
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}
