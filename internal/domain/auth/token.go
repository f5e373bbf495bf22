// Package auth guards the proxy's control surface: the small administrative
// API used to inspect state, reload routes, and register interceptors. It
// does not touch proxied traffic, which spec.md explicitly keeps
// unauthenticated.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
)

// ErrInvalidToken is returned when a presented control-surface token does
// not match the configured hash.
var ErrInvalidToken = errors.New("auth: invalid control token")

// ErrUnknownHashType is returned when a stored hash has an unrecognized
// format.
var ErrUnknownHashType = errors.New("auth: unknown hash type")

// argon2idParams are OWASP's minimum recommended parameters.
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashToken returns an Argon2id PHC-format hash of a raw control-surface
// token, for operators to put in configuration.
func HashToken(raw string) (string, error) {
	return argon2id.CreateHash(raw, argon2idParams)
}

// TokenVerifier checks a presented bearer token against one configured
// hash. It supports both Argon2id (preferred, for operator-generated
// tokens) and a plain SHA-256 hex digest (for a token set via an
// environment variable in a quick local setup).
type TokenVerifier struct {
	storedHash string
}

// NewTokenVerifier builds a verifier against a single stored hash.
func NewTokenVerifier(storedHash string) *TokenVerifier {
	return &TokenVerifier{storedHash: storedHash}
}

// Verify reports whether raw matches the configured hash.
func (v *TokenVerifier) Verify(raw string) (bool, error) {
	switch detectHashType(v.storedHash) {
	case "argon2id":
		return safeArgon2idCompare(raw, v.storedHash)
	case "sha256":
		expected := strings.TrimPrefix(v.storedHash, "sha256:")
		computed := sha256Hex(raw)
		return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1, nil
	default:
		return false, ErrUnknownHashType
	}
}

func sha256Hex(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func detectHashType(stored string) string {
	if strings.HasPrefix(stored, "$argon2id$") {
		return "argon2id"
	}
	if strings.HasPrefix(stored, "sha256:") {
		return "sha256"
	}
	if len(stored) == 64 && isHexString(stored) {
		return "sha256"
	}
	return "unknown"
}

func isHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// safeArgon2idCompare wraps argon2id.ComparePasswordAndHash with panic
// recovery: the underlying library panics on malformed parameter strings
// rather than returning an error, so a corrupted config value must not be
// allowed to crash the admin listener.
func safeArgon2idCompare(raw, stored string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("auth: invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(raw, stored)
}
