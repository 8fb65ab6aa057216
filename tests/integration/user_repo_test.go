package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesmith/storefront/internal/auth"
	"github.com/storesmith/storefront/internal/models"
	"github.com/storesmith/storefront/internal/repositories"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	_ = testDB.Teardown(ctx)
	os.Exit(code)
}

func setupUserRepo(t *testing.T) *repositories.UserRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	require.NoError(t, testDB.CleanupTables(context.Background()))
	userRepo, _ := InitializeRepositories(testDB.DB)
	return userRepo
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, repo, "user@example.com", "johndoe", "SecurePassword123", true)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := repo.GetByIdentifier(ctx, "johndoe")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)
}

func TestUserRepository_DuplicateEmailConflict(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	_, err := SeedUser(ctx, repo, "user@example.com", "johndoe", "SecurePassword123", true)
	require.NoError(t, err)

	_, err = SeedUser(ctx, repo, "user@example.com", "othername", "SecurePassword123", true)
	assert.ErrorIs(t, err, models.ErrConflict,
		"the unique constraint maps onto the conflict sentinel")
}

func TestUserRepository_VerificationTokenSingleUse(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, repo, "user@example.com", "johndoe", "SecurePassword123", false)
	require.NoError(t, err)

	tokenHash := auth.HashEphemeralToken("raw-verification-token")
	require.NoError(t, repo.SetVerificationToken(ctx, user.ID, tokenHash, time.Now().Add(24*time.Hour)))

	verified, err := repo.ConsumeVerificationToken(ctx, tokenHash)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Nil(t, verified.VerificationTokenHash, "consumption clears the stored pair")

	_, err = repo.ConsumeVerificationToken(ctx, tokenHash)
	assert.ErrorIs(t, err, models.ErrNotFound, "a consumed token cannot be replayed")
}

func TestUserRepository_ExpiredVerificationTokenRejected(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, repo, "user@example.com", "johndoe", "SecurePassword123", false)
	require.NoError(t, err)

	tokenHash := auth.HashEphemeralToken("raw-verification-token")
	require.NoError(t, repo.SetVerificationToken(ctx, user.ID, tokenHash, time.Now().Add(-1*time.Minute)))

	_, err = repo.ConsumeVerificationToken(ctx, tokenHash)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_ResetTokenSwapsPasswordAtomically(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, repo, "user@example.com", "johndoe", "SecurePassword123", true)
	require.NoError(t, err)

	tokenHash := auth.HashEphemeralToken("raw-reset-token")
	require.NoError(t, repo.SetResetToken(ctx, user.ID, tokenHash, time.Now().Add(1*time.Hour)))

	updated, err := repo.ConsumeResetToken(ctx, tokenHash, "new-password-hash")
	require.NoError(t, err)
	assert.Equal(t, "new-password-hash", updated.PasswordHash)
	assert.Nil(t, updated.ResetTokenHash)

	_, err = repo.ConsumeResetToken(ctx, tokenHash, "another-hash")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_RefreshTokenLifecycle(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, repo, "user@example.com", "johndoe", "SecurePassword123", true)
	require.NoError(t, err)

	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, "first-token"))
	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, "second-token"))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, "second-token", *stored.RefreshToken, "a new login overwrites the prior session")

	// A stale token clears nothing.
	cleared, err := repo.ClearRefreshToken(ctx, user.ID, "first-token")
	require.NoError(t, err)
	assert.False(t, cleared)

	stored, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.RefreshToken)

	// The matching token does.
	cleared, err = repo.ClearRefreshToken(ctx, user.ID, "second-token")
	require.NoError(t, err)
	assert.True(t, cleared)

	stored, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshToken)
}

func TestUserRepository_ClearExpiredEphemeralTokens(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	expired, err := SeedUser(ctx, repo, "expired@example.com", "expireduser", "SecurePassword123", false)
	require.NoError(t, err)
	live, err := SeedUser(ctx, repo, "live@example.com", "liveuser", "SecurePassword123", false)
	require.NoError(t, err)

	require.NoError(t, repo.SetVerificationToken(ctx, expired.ID, auth.HashEphemeralToken("a"), time.Now().Add(-1*time.Hour)))
	require.NoError(t, repo.SetVerificationToken(ctx, live.ID, auth.HashEphemeralToken("b"), time.Now().Add(1*time.Hour)))

	cleared, err := repo.ClearExpiredEphemeralTokens(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cleared, int64(1))

	expiredUser, err := repo.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, expiredUser.VerificationTokenHash)

	liveUser, err := repo.GetByID(ctx, live.ID)
	require.NoError(t, err)
	assert.NotNil(t, liveUser.VerificationTokenHash, "unexpired tokens survive the sweep")
}
