package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/storesmith/storefront/internal/auth"
	"github.com/storesmith/storefront/internal/config"
	"github.com/storesmith/storefront/internal/models"
	pkglogger "github.com/storesmith/storefront/pkg/logger"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc                  func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc               func(ctx context.Context, email string) (*models.User, error)
	GetByIdentifierFunc          func(ctx context.Context, identifier string) (*models.User, error)
	ListFunc                     func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc                   func(ctx context.Context, user *models.User) (*models.User, error)
	DeleteFunc                   func(ctx context.Context, id string) error
	SetRefreshTokenFunc          func(ctx context.Context, id, token string) error
	ClearRefreshTokenFunc        func(ctx context.Context, id, presented string) (bool, error)
	SetVerificationTokenFunc     func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ConsumeVerificationTokenFunc func(ctx context.Context, tokenHash string) (*models.User, error)
	SetResetTokenFunc            func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ConsumeResetTokenFunc        func(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error)
	UpdateProfileFunc            func(ctx context.Context, id, username, email string) (*models.User, error)
	UpdateStatusFunc             func(ctx context.Context, id, role string, isActive bool) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if m.GetByIdentifierFunc != nil {
		return m.GetByIdentifierFunc(ctx, identifier)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	if m.SetRefreshTokenFunc != nil {
		return m.SetRefreshTokenFunc(ctx, id, token)
	}
	return nil
}

func (m *MockUserRepository) ClearRefreshToken(ctx context.Context, id, presented string) (bool, error) {
	if m.ClearRefreshTokenFunc != nil {
		return m.ClearRefreshTokenFunc(ctx, id, presented)
	}
	return false, nil
}

func (m *MockUserRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	if m.SetVerificationTokenFunc != nil {
		return m.SetVerificationTokenFunc(ctx, id, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error) {
	if m.ConsumeVerificationTokenFunc != nil {
		return m.ConsumeVerificationTokenFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	if m.SetResetTokenFunc != nil {
		return m.SetResetTokenFunc(ctx, id, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error) {
	if m.ConsumeResetTokenFunc != nil {
		return m.ConsumeResetTokenFunc(ctx, tokenHash, newPasswordHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, username, email string) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, username, email)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id, role string, isActive bool) (*models.User, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, role, isActive)
	}
	return nil, models.ErrInternalServer
}

// MockProductRepository implements ProductRepository for testing
type MockProductRepository struct {
	GetByIDFunc     func(ctx context.Context, id string) (*models.Product, error)
	ListFunc        func(ctx context.Context, category string, limit, offset int) ([]*models.Product, error)
	CreateFunc      func(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateFunc      func(ctx context.Context, id string, product *models.Product) (*models.Product, error)
	DeleteFunc      func(ctx context.Context, id string) error
	AdjustStockFunc func(ctx context.Context, id string, delta int) (*models.Product, error)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockProductRepository) List(ctx context.Context, category string, limit, offset int) ([]*models.Product, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, category, limit, offset)
	}
	return []*models.Product{}, nil
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, product)
	}
	return nil, models.ErrInternalServer
}

func (m *MockProductRepository) Update(ctx context.Context, id string, product *models.Product) (*models.Product, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, product)
	}
	return nil, models.ErrInternalServer
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	if m.AdjustStockFunc != nil {
		return m.AdjustStockFunc(ctx, id, delta)
	}
	return nil, models.ErrNotFound
}

// MockEmailSender implements EmailSender for testing
type MockEmailSender struct {
	SendVerificationEmailFunc  func(ctx context.Context, email, rawToken string) error
	SendPasswordResetEmailFunc func(ctx context.Context, email, rawToken string) error
}

func (m *MockEmailSender) SendVerificationEmail(ctx context.Context, email, rawToken string) error {
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(ctx, email, rawToken)
	}
	return nil
}

func (m *MockEmailSender) SendPasswordResetEmail(ctx context.Context, email, rawToken string) error {
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, email, rawToken)
	}
	return nil
}

// newTestCodec returns a token codec with distinct test secrets
func newTestCodec() *auth.TokenCodec {
	return auth.NewTokenCodec(config.AuthConfig{
		AccessTokenSecret:  "test-access-secret-must-be-long-0001",
		RefreshTokenSecret: "test-refresh-secret-must-be-long-01",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

// newTestSessionService wires a session service around the given mocks
func newTestSessionService(repo UserRepository, email EmailSender) *SessionService {
	logger := slog.Default()
	return NewSessionService(
		repo,
		newTestCodec(),
		auth.NewEphemeralTokenGenerator(24*time.Hour),
		auth.NewEphemeralTokenGenerator(1*time.Hour),
		email,
		logger,
		pkglogger.NewAuditLogger(logger),
	)
}

// NewTestUser creates a verified, active user
func NewTestUser(id, email, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:         id,
		Email:      email,
		Username:   username,
		Role:       models.RoleUser,
		IsVerified: true,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewTestUserWithPassword creates a user with the given password hash
func NewTestUserWithPassword(id, email, username, passwordHash string) *models.User {
	user := NewTestUser(id, email, username)
	user.PasswordHash = passwordHash
	return user
}

// NewTestUserUnverified creates a user whose email is not yet verified
func NewTestUserUnverified(id, email, username string) *models.User {
	user := NewTestUser(id, email, username)
	user.IsVerified = false
	return user
}

// NewTestUserDisabled creates a deactivated user
func NewTestUserDisabled(id, email, username string) *models.User {
	user := NewTestUser(id, email, username)
	user.IsActive = false
	return user
}

// NewTestProduct creates a catalog product
func NewTestProduct(id, name string, priceCents int64, stock int) *models.Product {
	now := time.Now()
	return &models.Product{
		ID:         id,
		Name:       name,
		PriceCents: priceCents,
		Category:   "electronics",
		Stock:      stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
