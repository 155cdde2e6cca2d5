package verify

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateTokenShape(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(token, TokenPrefix) {
		t.Fatalf("expected prefix %q, got %q", TokenPrefix, token)
	}
	if got := len(token) - len(TokenPrefix); got < 32 {
		t.Fatalf("expected at least 32 chars beyond prefix, got %d", got)
	}
}

func TestGenerateTokenNoDuplicates(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("unexpected error on iteration %d: %v", i, err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token after %d iterations: %s", i, token)
		}
		seen[token] = struct{}{}
	}
}

func TestTokenExpired(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if TokenExpired(createdAt, 24*time.Hour, createdAt) {
		t.Fatalf("token should not be expired immediately after creation")
	}
	if TokenExpired(createdAt, 24*time.Hour, createdAt.Add(24*time.Hour)) {
		t.Fatalf("token should not be expired exactly at the boundary")
	}
	if !TokenExpired(createdAt, 24*time.Hour, createdAt.Add(24*time.Hour+time.Millisecond)) {
		t.Fatalf("token should be expired one millisecond past the window")
	}
}
