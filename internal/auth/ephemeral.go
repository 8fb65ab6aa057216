package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

const ephemeralTokenBytes = 32

// EphemeralToken is a freshly generated single-use token. Raw goes out to
// the user exactly once (via email); only Hash and ExpiresAt are persisted.
type EphemeralToken struct {
	Raw       string
	Hash      string
	ExpiresAt time.Time
}

// EphemeralTokenGenerator produces hashed, time-bound tokens for email
// verification and password reset.
type EphemeralTokenGenerator struct {
	ttl time.Duration
}

func NewEphemeralTokenGenerator(ttl time.Duration) *EphemeralTokenGenerator {
	return &EphemeralTokenGenerator{ttl: ttl}
}

func (g *EphemeralTokenGenerator) Generate() (*EphemeralToken, error) {
	buf := make([]byte, ephemeralTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	raw := base64.URLEncoding.EncodeToString(buf)

	return &EphemeralToken{
		Raw:       raw,
		Hash:      HashEphemeralToken(raw),
		ExpiresAt: time.Now().Add(g.ttl),
	}, nil
}

// HashEphemeralToken is the one-way digest applied before persistence and
// again on lookup of a presented raw token.
func HashEphemeralToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
