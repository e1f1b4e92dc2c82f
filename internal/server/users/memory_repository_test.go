package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RileyParsons/plateful/internal/common"
)

func seedUser(t *testing.T, repo Repository, id, email string) *User {
	t.Helper()
	u, err := repo.Create(context.Background(), &User{
		ID:             id,
		Email:          email,
		HashedPassword: "hash-" + id,
		CreatedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	return u
}

func TestMemoryRepository_CreateAndLookups(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	seedUser(t, repo, "u1", "a@b.com")

	byID, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@b.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryRepository_EmailUniqueness(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	seedUser(t, repo, "u1", "a@b.com")

	_, err := repo.Create(ctx, &User{ID: "u2", Email: "a@b.com"})
	assert.ErrorIs(t, err, common.ErrEmailTaken)

	// The original record must be untouched.
	u, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestMemoryRepository_EmailIsCaseSensitive(t *testing.T) {
	// Email case is deliberately not normalized; two casings are two keys.
	repo := NewMemoryRepository()
	ctx := context.Background()

	seedUser(t, repo, "u1", "A@b.com")

	_, err := repo.GetByEmail(ctx, "a@b.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryRepository_UpdatePassword(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	seedUser(t, repo, "u1", "a@b.com")

	require.NoError(t, repo.UpdatePassword(ctx, "u1", "new-hash"))

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", u.HashedPassword)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "ghost", "x"), common.ErrNotFound)
}

func TestMemoryRepository_ResetTokenLifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	seedUser(t, repo, "u1", "a@b.com")
	expiry := time.Now().UTC().Add(time.Hour)

	require.NoError(t, repo.SetResetToken(ctx, "u1", "hash-1", expiry))

	u, err := repo.GetByResetTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash-1", u.ResetTokenHash)
	assert.True(t, u.ResetTokenExpiry.Equal(expiry))

	// A second request replaces the outstanding secret and its index entry.
	require.NoError(t, repo.SetResetToken(ctx, "u1", "hash-2", expiry))
	_, err = repo.GetByResetTokenHash(ctx, "hash-1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.GetByResetTokenHash(ctx, "hash-2")
	require.NoError(t, err)

	// Clearing removes both fields and the index entry.
	require.NoError(t, repo.ClearResetToken(ctx, "u1"))
	u, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, u.ResetTokenHash)
	assert.True(t, u.ResetTokenExpiry.IsZero())
	_, err = repo.GetByResetTokenHash(ctx, "hash-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryRepository_List(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"u1", "u2", "u3"} {
		_, err := repo.Create(ctx, &User{
			ID:        id,
			Email:     id + "@b.com",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "u1", page[0].ID)
	assert.Equal(t, "u2", page[1].ID)

	page, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "u3", page[0].ID)

	page, err = repo.List(ctx, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryRepository_CopiesAreIsolated(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	seedUser(t, repo, "u1", "a@b.com")

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	u.HashedPassword = "tampered"

	fresh, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "hash-u1", fresh.HashedPassword)
}
