package directory

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
)

// Hasher turns plaintext credentials into opaque hashes and back-checks
// them. Injected so tests can swap in a cheap fake.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

const (
	argonMemory      = 64 * 1024
	argonIterations  = 2
	argonParallelism = 1
	argonKeyLength   = 32
	argonSaltLength  = 16
)

// Argon2Hasher produces PHC-encoded argon2id hashes with a fresh random
// salt per call. The encoded form carries its own parameters, so old
// hashes stay verifiable after a parameter bump.
type Argon2Hasher struct{}

func (Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: generate salt: %v", ErrCrypto, err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify recomputes the hash with the parameters embedded in encoded and
// compares in constant time. A mismatch is (false, nil); a hash that does
// not parse is an error.
func (Argon2Hasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: malformed credential hash", ErrCrypto)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: malformed credential hash", ErrCrypto)
	}
	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("%w: malformed credential hash", ErrCrypto)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: malformed credential hash", ErrCrypto)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: malformed credential hash", ErrCrypto)
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

const (
	passwordMinLength = 8
	passwordMaxLength = 64
)

// Denied outright regardless of the character rules.
var commonPasswords = []string{
	"password",
	"12345678",
	"qwerty",
	"admin123",
	"letmein",
	"welcome",
	"monkey",
	"sunshine",
	"password1",
	"123123",
	"11111111",
	"abcd1234",
	"trustno1",
	"dragon",
	"baseball",
}

func isSpecialChar(c rune) bool {
	return strings.ContainsRune("!@#$%^&*()_-+=<>?/{}~|[]\"\\'`", c)
}

// ValidatePassword checks the password policy and returns a single
// ValidationError naming every unmet rule, or nil when all pass.
func ValidatePassword(password string) error {
	var violations []string

	if len(password) < passwordMinLength || len(password) > passwordMaxLength {
		violations = append(violations, fmt.Sprintf("must be between %d and %d characters", passwordMinLength, passwordMaxLength))
	}
	if strings.ContainsFunc(password, unicode.IsSpace) {
		violations = append(violations, "must not contain spaces")
	}
	lowered := strings.ToLower(password)
	for _, common := range commonPasswords {
		if lowered == common {
			violations = append(violations, "is too common")
			break
		}
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		violations = append(violations, "must contain at least one digit")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		violations = append(violations, "must contain at least one uppercase letter")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		violations = append(violations, "must contain at least one lowercase letter")
	}
	if !strings.ContainsFunc(password, isSpecialChar) {
		violations = append(violations, "must contain at least one special character")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
