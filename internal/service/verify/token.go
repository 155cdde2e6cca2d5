package verify

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// TokenPrefix makes verification tokens recognizable when a dealer inspects
// their DNS records or the downloaded challenge file.
const TokenPrefix = "dealersite-verify-"

const tokenEntropyBytes = 16

// GenerateToken produces an unguessable per-domain verification token.
// Uniqueness is entropy-only: 128 bits makes collisions negligible at
// domain-onboarding scale, so no store lookup is performed.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(buf), nil
}

// TokenExpired reports whether the verification window that opened at
// createdAt has closed by now.
func TokenExpired(createdAt time.Time, ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return now.After(createdAt.Add(ttl))
}
