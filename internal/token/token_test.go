package token

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer([]byte("test-secret"), "crewbase-test", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return iss
}

func TestIssueAndVerify(t *testing.T) {
	iss := newTestIssuer(t)

	raw, err := iss.Issue("acc-42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := iss.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.AccountID() != "acc-42" {
		t.Fatalf("subject = %q, want acc-42", claims.AccountID())
	}
	if claims.ID == "" {
		t.Fatal("expected a jti")
	}
	if !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("unexpected expiry: %v", claims.ExpiresAt)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	iss := newTestIssuer(t)
	other, err := NewIssuer([]byte("other-secret"), "crewbase-test", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	raw, err := iss.Issue("acc-42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	iss := newTestIssuer(t)
	other, err := NewIssuer([]byte("test-secret"), "someone-else", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	raw, err := other.Issue("acc-42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := iss.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	iss := newTestIssuer(t)
	iss.ttl = time.Minute
	iss.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }

	raw, err := iss.Issue("acc-42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	iss.now = func() time.Time { return time.Now().UTC() }
	if _, err := iss.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	iss := newTestIssuer(t)
	for _, raw := range []string{"", "   ", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, err := iss.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}
