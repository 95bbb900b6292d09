package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestSigner(t *testing.T, secret string) *Signer {
	t.Helper()
	s, err := NewSigner(secret, time.Minute, "docchat", false)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestSignAndVerify(t *testing.T) {
	s := newTestSigner(t, "roundtrip-secret")

	token, exp, err := s.Sign("92994189-e6ae-43f8-8df9-00247522e3c6")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %s", exp)
	}

	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID() != "92994189-e6ae-43f8-8df9-00247522e3c6" {
		t.Fatalf("unexpected subject %q", claims.UserID())
	}
}

func TestVerifyRejects(t *testing.T) {
	s := newTestSigner(t, "secret-a")
	other := newTestSigner(t, "secret-b")

	valid, _, err := s.Sign("user-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	foreign, _, err := other.Sign("user-1")
	if err != nil {
		t.Fatalf("Sign other: %v", err)
	}

	expired := newTestSigner(t, "secret-a")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.Sign("user-1")
	if err != nil {
		t.Fatalf("Sign stale: %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "docchat",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := map[string]string{
		"empty":         "",
		"malformed":     "not-a-jwt",
		"wrong secret":  foreign,
		"expired":       stale,
		"none alg":      unsigned,
		"tampered tail": valid[:len(valid)-2] + strings.Repeat("A", 2),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestSignRequiresSubject(t *testing.T) {
	s := newTestSigner(t, "x")
	if _, _, err := s.Sign("  "); err == nil {
		t.Fatal("expected error for empty subject")
	}
}

func TestNewSignerRequiresSecretInProduction(t *testing.T) {
	if _, err := NewSigner("", time.Minute, "", true); !errors.Is(err, errMissingSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
	s, err := NewSigner("", 0, "", false)
	if err != nil {
		t.Fatalf("dev signer: %v", err)
	}
	if string(s.secret) != devSecret || s.ttl != defaultTTL {
		t.Fatalf("unexpected dev defaults: %q %s", s.secret, s.ttl)
	}
}
