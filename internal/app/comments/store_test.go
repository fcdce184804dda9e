package comments

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/app/db"
	"folio/internal/app/user"
)

type pgFixture struct {
	comments Store
	store    *db.Store
	pool     *pgxpool.Pool
}

// newPostgresFixture connects to TEST_DATABASE_URL (migrating it) or skips the test.
func newPostgresFixture(t *testing.T) *pgFixture {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := db.NewPool(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := db.NewStore(pool)
	return &pgFixture{comments: NewPostgresStore(store), store: store, pool: pool}
}

func (f *pgFixture) createAccount(t *testing.T) *user.User {
	t.Helper()
	ctx := context.Background()

	row, err := f.store.CreateUser(ctx, db.CreateUserParams{
		Email:    uuid.NewString() + "@example.com",
		Provider: user.ProviderPassword,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = f.pool.Exec(ctx, `DELETE FROM comments WHERE author_id = $1::uuid`, row.ID)
		_, _ = f.pool.Exec(ctx, `DELETE FROM users WHERE id = $1::uuid`, row.ID)
	})
	return &user.User{ID: row.ID, Email: row.Email, Provider: row.Provider}
}

func TestPostgresCreateToggleAndList(t *testing.T) {
	f := newPostgresFixture(t)
	s := f.comments
	ctx := context.Background()
	author := f.createAccount(t)
	fan := f.createAccount(t)

	first, err := s.Create(ctx, "first", author)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Likes)
	assert.Empty(t, first.LikedBy)
	assert.False(t, first.CreatedAt.IsZero())

	time.Sleep(5 * time.Millisecond)
	second, err := s.Create(ctx, "second", author)
	require.NoError(t, err)

	liked, err := s.ToggleLike(ctx, first.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	assert.Equal(t, []string{fan.ID}, liked.LikedBy)
	assert.True(t, liked.IsLikedBy(fan.ID))

	restored, err := s.ToggleLike(ctx, first.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Likes)
	assert.Empty(t, restored.LikedBy)

	list, err := s.List(ctx, DefaultListLimit)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt), "list is newest first")
	}
	for _, c := range list {
		assert.Len(t, c.LikedBy, c.Likes, "comment %s", c.ID)
	}
}

func TestPostgresConcurrentLikesAreCounted(t *testing.T) {
	f := newPostgresFixture(t)
	s := f.comments
	ctx := context.Background()
	author := f.createAccount(t)

	c, err := s.Create(ctx, "popular", author)
	require.NoError(t, err)

	fans := make([]*user.User, 5)
	for i := range fans {
		fans[i] = f.createAccount(t)
	}

	var wg sync.WaitGroup
	for _, fan := range fans {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ToggleLike(ctx, c.ID, fan.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := s.List(ctx, DefaultListLimit)
	require.NoError(t, err)
	for _, got := range list {
		if got.ID == c.ID {
			assert.Equal(t, len(fans), got.Likes)
			assert.Len(t, got.LikedBy, len(fans))
			return
		}
	}
	t.Fatalf("comment %s missing from list", c.ID)
}

func TestPostgresToggleLikeUnknownComment(t *testing.T) {
	f := newPostgresFixture(t)
	s := f.comments
	fan := f.createAccount(t)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		_, err := s.ToggleLike(context.Background(), id, fan.ID)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}
