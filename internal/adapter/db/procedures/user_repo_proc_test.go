package procedures

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-registration-service/internal/domain/user"
)

// fakeRow returns a canned Scan result.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		case *bool:
			*p = r.values[i].(bool)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

// fakeDB records the last statement and answers QueryRow with row.
type fakeDB struct {
	row      fakeRow
	queryErr error
	lastSQL  string
	lastArgs []any
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.lastSQL, f.lastArgs = sql, args
	return nil, f.queryErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	return f.row
}

func TestUserRepoProc_GetByID(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("ICT", 7*3600))

	t.Run("found", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{values: []any{int64(7), "Ann Lee", "ann@x.io", "555-0100", "hash", created}}}
		repo := NewUserRepoProc(db, zaptest.NewLogger(t))

		u, found, err := repo.GetByID(context.Background(), 7)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int64(7), u.ID)
		assert.Equal(t, "Ann Lee", u.FullName)
		assert.Equal(t, time.UTC, u.CreatedAt.Location())
		assert.True(t, created.Equal(u.CreatedAt))
		assert.Equal(t, sqlGetByID, db.lastSQL)
		assert.Equal(t, []any{int64(7)}, db.lastArgs)
	})

	t.Run("no rows", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
		repo := NewUserRepoProc(db, zaptest.NewLogger(t))

		_, found, err := repo.GetByID(context.Background(), 7)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("storage fault", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{err: errors.New("conn reset")}}
		repo := NewUserRepoProc(db, zaptest.NewLogger(t))

		_, _, err := repo.GetByID(context.Background(), 7)
		assert.Error(t, err)
	})
}

func TestUserRepoProc_Create(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	in := &user.User{FullName: "Ann Lee", Email: "ann@x.io", Phone: "555-0100", Password: "hash", CreatedAt: created}

	t.Run("returns id", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{values: []any{int64(12)}}}
		repo := NewUserRepoProc(db, zaptest.NewLogger(t))

		id, err := repo.Create(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, int64(12), id)
		assert.Equal(t, sqlCreate, db.lastSQL)
		assert.Equal(t, []any{"Ann Lee", "ann@x.io", "555-0100", "hash", created}, db.lastArgs)
	})

	t.Run("unique violation", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{err: &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}}}
		repo := NewUserRepoProc(db, zaptest.NewLogger(t))

		_, err := repo.Create(context.Background(), in)
		assert.ErrorIs(t, err, user.ErrEmailTaken)
	})

	t.Run("other pg error", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{err: &pgconn.PgError{Code: "23502"}}}
		repo := NewUserRepoProc(db, zaptest.NewLogger(t))

		_, err := repo.Create(context.Background(), in)
		require.Error(t, err)
		assert.NotErrorIs(t, err, user.ErrEmailTaken)
	})

	t.Run("nil user", func(t *testing.T) {
		repo := NewUserRepoProc(&fakeDB{}, zaptest.NewLogger(t))

		_, err := repo.Create(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestUserRepoProc_Update(t *testing.T) {
	in := &user.User{ID: 3, FullName: "Ann Lee", Email: "ann@x.io", Phone: "555-0100", Password: "hash"}

	t.Run("written", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{values: []any{true}}}
		repo := NewUserRepoProc(db, zaptest.NewLogger(t))

		ok, err := repo.Update(context.Background(), in)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []any{int64(3), "Ann Lee", "ann@x.io", "555-0100", "hash"}, db.lastArgs)
	})

	t.Run("no row", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{values: []any{false}}}
		repo := NewUserRepoProc(db, zaptest.NewLogger(t))

		ok, err := repo.Update(context.Background(), in)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unique violation", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})}}
		repo := NewUserRepoProc(db, zaptest.NewLogger(t))

		_, err := repo.Update(context.Background(), in)
		assert.ErrorIs(t, err, user.ErrEmailTaken)
	})
}

func TestUserRepoProc_DeleteAndEmailExists(t *testing.T) {
	db := &fakeDB{row: fakeRow{values: []any{true}}}
	repo := NewUserRepoProc(db, zaptest.NewLogger(t))

	ok, err := repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sqlDelete, db.lastSQL)

	exists, err := repo.EmailExists(context.Background(), "ann@x.io", nil)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, sqlEmailExists, db.lastSQL)
	assert.Equal(t, []any{"ann@x.io", (*int64)(nil)}, db.lastArgs)

	db.row = fakeRow{err: errors.New("timeout")}
	_, err = repo.Delete(context.Background(), 5)
	assert.Error(t, err)
	_, err = repo.EmailExists(context.Background(), "ann@x.io", nil)
	assert.Error(t, err)
}

func TestUserRepoProc_ListQueryError(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("relation does not exist")}
	repo := NewUserRepoProc(db, zaptest.NewLogger(t))

	_, err := repo.List(context.Background())
	assert.Error(t, err)
	assert.Equal(t, sqlGetAll, db.lastSQL)
}

// TestUserRepoProc_Postgres runs the gateway against a live database.
// Set TEST_POSTGRES_DSN to a disposable database to enable it.
func TestUserRepoProc_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	// Applying twice must be harmless.
	require.NoError(t, Migrate(ctx, pool))
	_, err = pool.Exec(ctx, "TRUNCATE users RESTART IDENTITY")
	require.NoError(t, err)

	repo := NewUserRepoProc(pool, zaptest.NewLogger(t))
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	annID, err := repo.Create(ctx, &user.User{FullName: "Ann Lee", Email: "ann@x.io", Phone: "555-0100", Password: "h1", CreatedAt: created})
	require.NoError(t, err)
	bobID, err := repo.Create(ctx, &user.User{FullName: "Bob Ray", Email: "bob@x.io", Phone: "555-0101", Password: "h2", CreatedAt: created})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &user.User{FullName: "Dup", Email: "ann@x.io", Phone: "1", Password: "h", CreatedAt: created})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, annID, users[0].ID)

	exists, err := repo.EmailExists(ctx, "ann@x.io", nil)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.EmailExists(ctx, "ann@x.io", &annID)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = repo.EmailExists(ctx, "ann@x.io", &bobID)
	require.NoError(t, err)
	assert.True(t, exists)

	ok, err := repo.Update(ctx, &user.User{ID: annID, FullName: "Ann B. Lee", Email: "ann@x.io", Phone: "555-0199", Password: "h3"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, found, err := repo.GetByID(ctx, annID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ann B. Lee", got.FullName)
	assert.Equal(t, "h3", got.Password)
	assert.True(t, created.Equal(got.CreatedAt))

	_, err = repo.Update(ctx, &user.User{ID: bobID, FullName: "Bob Ray", Email: "ann@x.io", Phone: "1", Password: "h"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	ok, err = repo.Update(ctx, &user.User{ID: 9999, FullName: "x", Email: "x@x.io", Phone: "1", Password: "h"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Delete(ctx, bobID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Delete(ctx, bobID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err = repo.GetByID(ctx, bobID)
	require.NoError(t, err)
	assert.False(t, found)
}
