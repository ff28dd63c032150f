package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillcms/quill/internal/auth"
	"github.com/quillcms/quill/internal/store"
	"github.com/quillcms/quill/internal/testutil"
)

func TestSeed_CreatesAdmin(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, db, "admin@example.com", "s3cret-pass"))

	q := store.New(db)
	admin, err := q.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, store.DefaultAdminName, admin.Name)

	valid, err := auth.CheckPassword("s3cret-pass", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestSeed_Idempotent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, db, "admin@example.com", "s3cret-pass"))
	require.NoError(t, store.Seed(ctx, db, "admin@example.com", "different-pass"))

	q := store.New(db)
	n, err := q.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// The original password survives re-seeding.
	admin, err := q.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	valid, err := auth.CheckPassword("s3cret-pass", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, valid)
}
