package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storesmith/storefront/internal/database"
	"github.com/storesmith/storefront/internal/models"
)

const userColumns = `id, username, email, password_hash, role, is_verified, is_active,
	refresh_token, verification_token_hash, verification_token_expires_at,
	reset_token_hash, reset_token_expires_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.IsVerified, &user.IsActive,
		&user.RefreshToken,
		&user.VerificationTokenHash, &user.VerificationTokenExpiresAt,
		&user.ResetTokenHash, &user.ResetTokenExpiresAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// GetByIdentifier resolves a login identifier that may be either an email
// address or a username.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = lower($1) OR username = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, identifier))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, role, is_verified, is_active,
			verification_token_hash, verification_token_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Role, user.IsVerified, user.IsActive,
		user.VerificationTokenHash, user.VerificationTokenExpiresAt,
		user.CreatedAt, user.UpdatedAt,
	))
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token. Overwriting is what
// enforces the single-active-session invariant: a second login silently
// invalidates the token the first session holds.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`,
		token, id,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearRefreshToken clears the stored refresh token only when it matches
// the presented one. A conditional update avoids the read-modify-write race
// between a logout and a concurrent login.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, id, presented string) (bool, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULL, updated_at = NOW()
		 WHERE id = $1 AND refresh_token = $2`,
		id, presented,
	)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return result.RowsAffected() > 0, nil
}

// SetVerificationToken replaces the verification token pair, invalidating
// any previously issued token.
func (r *UserRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET verification_token_hash = $1, verification_token_expires_at = $2, updated_at = NOW()
		 WHERE id = $3`,
		tokenHash, expiresAt, id,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ConsumeVerificationToken marks the matching user verified and clears the
// token pair in one statement. The WHERE clause makes the token single-use
// and rejects expiry without a separate read.
func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error) {
	query := `
		UPDATE users
		SET is_verified = TRUE,
			verification_token_hash = NULL,
			verification_token_expires_at = NULL,
			updated_at = NOW()
		WHERE verification_token_hash = $1 AND verification_token_expires_at > NOW()
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, tokenHash))
}

// SetResetToken replaces the password reset token pair.
func (r *UserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token_hash = $1, reset_token_expires_at = $2, updated_at = NOW()
		 WHERE id = $3`,
		tokenHash, expiresAt, id,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ConsumeResetToken replaces the password hash and clears the reset token
// pair for the user matching a live token hash.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error) {
	query := `
		UPDATE users
		SET password_hash = $2,
			reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			updated_at = NOW()
		WHERE reset_token_hash = $1 AND reset_token_expires_at > NOW()
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, tokenHash, newPasswordHash))
}

// UpdateProfile changes the user-editable identity fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, username, email string) (*models.User, error) {
	query := `
		UPDATE users SET username = $1, email = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, username, email, id))
}

// UpdateStatus changes the admin-controlled fields.
func (r *UserRepository) UpdateStatus(ctx context.Context, id, role string, isActive bool) (*models.User, error) {
	query := `
		UPDATE users SET role = $1, is_active = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, role, isActive, id))
}

// ClearExpiredEphemeralTokens nulls out verification and reset token pairs
// whose expiry has passed. Run periodically by the cleanup manager.
func (r *UserRepository) ClearExpiredEphemeralTokens(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET verification_token_hash = CASE WHEN verification_token_expires_at <= NOW() THEN NULL ELSE verification_token_hash END,
			verification_token_expires_at = CASE WHEN verification_token_expires_at <= NOW() THEN NULL ELSE verification_token_expires_at END,
			reset_token_hash = CASE WHEN reset_token_expires_at <= NOW() THEN NULL ELSE reset_token_hash END,
			reset_token_expires_at = CASE WHEN reset_token_expires_at <= NOW() THEN NULL ELSE reset_token_expires_at END
		WHERE verification_token_expires_at <= NOW() OR reset_token_expires_at <= NOW()
	`)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
