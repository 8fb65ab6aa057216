package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storesmith/storefront/internal/config"
	"github.com/storesmith/storefront/internal/models"
)

// TokenCodec issues and verifies signed access and refresh tokens. The two
// token kinds are signed with distinct secrets, both injected at
// construction; there is no ambient key state.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewTokenCodec(cfg config.AuthConfig) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessExpiry:  cfg.AccessTokenExpiry,
		refreshExpiry: cfg.RefreshTokenExpiry,
	}
}

// IssueAccessToken creates a short-lived access token carrying the user's
// role for downstream authorization decisions.
func (c *TokenCodec) IssueAccessToken(userID, role string) (string, error) {
	return c.sign(models.TokenTypeAccess, userID, role, c.accessExpiry, c.accessSecret)
}

// IssueRefreshToken creates a long-lived refresh token.
func (c *TokenCodec) IssueRefreshToken(userID string) (string, error) {
	return c.sign(models.TokenTypeRefresh, userID, "", c.refreshExpiry, c.refreshSecret)
}

func (c *TokenCodec) sign(tokenType, userID, role string, expiry time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		Type:   tokenType,
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccessToken validates an access token and returns its claims.
func (c *TokenCodec) VerifyAccessToken(tokenString string) (*models.TokenClaims, error) {
	return c.verify(tokenString, models.TokenTypeAccess, c.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
func (c *TokenCodec) VerifyRefreshToken(tokenString string) (*models.TokenClaims, error) {
	return c.verify(tokenString, models.TokenTypeRefresh, c.refreshSecret)
}

// verify fails closed: signature mismatch, malformed structure, expiry and
// wrong token type all collapse into models.ErrInvalidToken.
func (c *TokenCodec) verify(tokenString, wantType string, secret []byte) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}

	if claims.Type != wantType || claims.UserID == "" {
		return nil, models.ErrInvalidToken
	}

	return claims, nil
}
