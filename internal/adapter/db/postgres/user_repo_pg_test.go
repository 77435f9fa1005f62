package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-registration-service/internal/domain/user"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// Every connection to :memory: gets its own database, so pin the pool to one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func setupTestRepo(t *testing.T) *UserRepoPG {
	return NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
}

func newUser(name, email string) *user.User {
	return &user.User{
		FullName:  name,
		Email:     email,
		Phone:     "555-0100",
		Password:  "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8",
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestUserRepoPG_CreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newUser("Ann Lee", "ann@x.io"))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, found, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Ann Lee", got.FullName)
	assert.Equal(t, "ann@x.io", got.Email)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Len(t, got.Password, 64)
	assert.WithinDuration(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), got.CreatedAt, time.Second)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
}

func TestUserRepoPG_Create_AssignsDistinctIDs(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, newUser("Ann Lee", "ann@x.io"))
	require.NoError(t, err)
	second, err := repo.Create(ctx, newUser("Bob Ray", "bob@x.io"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestUserRepoPG_Create_DuplicateEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("Ann Lee", "ann@x.io"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newUser("Ann Other", "ann@x.io"))
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUserRepoPG_Create_Nil(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Create(context.Background(), nil)
	assert.Error(t, err)
}

func TestUserRepoPG_GetByID_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, found, err := repo.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUserRepoPG_List(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	for _, u := range []*user.User{
		newUser("Ann Lee", "ann@x.io"),
		newUser("Bob Ray", "bob@x.io"),
		newUser("Cy Tan", "cy@x.io"),
	} {
		_, err := repo.Create(ctx, u)
		require.NoError(t, err)
	}

	users, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "ann@x.io", users[0].Email)
	assert.Equal(t, "cy@x.io", users[2].Email)
	assert.Less(t, users[0].ID, users[1].ID)
}

func TestUserRepoPG_Update(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newUser("Ann Lee", "ann@x.io"))
	require.NoError(t, err)

	ok, err := repo.Update(ctx, &user.User{
		ID:        id,
		FullName:  "Ann B. Lee",
		Email:     "ann.lee@x.io",
		Phone:     "555-0199",
		Password:  "new-hash",
		CreatedAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, found, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ann B. Lee", got.FullName)
	assert.Equal(t, "ann.lee@x.io", got.Email)
	assert.Equal(t, "555-0199", got.Phone)
	assert.Equal(t, "new-hash", got.Password)
	// createdat is not part of the update
	assert.WithinDuration(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), got.CreatedAt, time.Second)
}

func TestUserRepoPG_Update_Missing(t *testing.T) {
	repo := setupTestRepo(t)

	u := newUser("Ghost", "ghost@x.io")
	u.ID = 42
	ok, err := repo.Update(context.Background(), u)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepoPG_Update_DuplicateEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("Ann Lee", "ann@x.io"))
	require.NoError(t, err)
	bobID, err := repo.Create(ctx, newUser("Bob Ray", "bob@x.io"))
	require.NoError(t, err)

	bob := newUser("Bob Ray", "ann@x.io")
	bob.ID = bobID
	_, err = repo.Update(ctx, bob)
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUserRepoPG_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, newUser("Ann Lee", "ann@x.io"))
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)

	ok, err = repo.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepoPG_EmailExists(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	annID, err := repo.Create(ctx, newUser("Ann Lee", "ann@x.io"))
	require.NoError(t, err)
	bobID, err := repo.Create(ctx, newUser("Bob Ray", "bob@x.io"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		email     string
		excludeID *int64
		want      bool
	}{
		{name: "taken", email: "ann@x.io", want: true},
		{name: "free", email: "cy@x.io", want: false},
		{name: "owned by excluded user", email: "ann@x.io", excludeID: &annID, want: false},
		{name: "owned by someone else", email: "ann@x.io", excludeID: &bobID, want: true},
		{name: "case sensitive", email: "ANN@x.io", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.EmailExists(ctx, tt.email, tt.excludeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserRepoPG_ClosedConnection(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepoPG(db, zaptest.NewLogger(t))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.List(context.Background())
	assert.Error(t, err)

	_, _, err = repo.GetByID(context.Background(), 1)
	assert.Error(t, err)

	_, err = repo.EmailExists(context.Background(), "ann@x.io", nil)
	assert.Error(t, err)
}
