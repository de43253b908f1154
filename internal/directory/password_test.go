package directory

import (
	"errors"
	"strings"
	"testing"
)

func TestArgon2HasherRoundTrip(t *testing.T) {
	h := Argon2Hasher{}

	encoded, err := h.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %s", encoded)
	}

	ok, err := h.Verify("Sup3r$ecret", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = h.Verify("wrong-password", encoded)
	if err != nil {
		t.Fatalf("Verify mismatch: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch to fail verification")
	}
}

func TestArgon2HasherSaltsDiffer(t *testing.T) {
	h := Argon2Hasher{}
	a, err := h.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("Sup3r$ecret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestArgon2HasherMalformed(t *testing.T) {
	h := Argon2Hasher{}
	if _, err := h.Verify("whatever", "not-a-phc-string"); !errors.Is(err, ErrCrypto) {
		t.Fatalf("expected ErrCrypto, got %v", err)
	}
}

func TestValidatePasswordAggregatesViolations(t *testing.T) {
	err := ValidatePassword("short")
	if err == nil {
		t.Fatal("expected validation failure")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	// length, digit, uppercase and special are all unmet at once
	if len(ve.Violations) < 4 {
		t.Fatalf("expected aggregated violations, got %v", ve.Violations)
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"G00d!pass", true},
		{"Tr1cky#enough", true},
		{"with space1A!", false},
		{"nouppercase1!", false},
		{"NOLOWERCASE1!", false},
		{"NoDigitsHere!", false},
		{"NoSpecials123", false},
		{"Qwerty", false},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.ok && err != nil {
			t.Fatalf("ValidatePassword(%q): %v", tc.password, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ValidatePassword(%q): expected failure", tc.password)
		}
	}
}

func TestValidatePasswordDenylist(t *testing.T) {
	// denylist matches are exact and case-insensitive
	if err := ValidatePassword("TrustNo1"); err == nil {
		t.Fatal("expected denylisted password to fail")
	}
	if err := ValidatePassword("TrustNo1!x"); err != nil {
		t.Fatalf("near-miss of a common password should pass: %v", err)
	}
}
