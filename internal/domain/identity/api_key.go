package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrUnknownHashType is returned when a stored hash has an unrecognized format.
var ErrUnknownHashType = errors.New("unknown hash type")

// hashPrefix marks stored admin key hashes. Only SHA-256 is supported;
// the prefix leaves room to change algorithms without ambiguity.
const hashPrefix = "sha256:"

// HashKey returns the SHA-256 hash of the raw key in stored form, e.g.
// "sha256:9f86d0...". The output can be pasted into admin.api_key_hash
// as-is.
func HashKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hashPrefix + hex.EncodeToString(hash[:])
}

// VerifyKey verifies a raw key against a stored "sha256:"-prefixed hash
// using a constant-time comparison.
// Returns (false, ErrUnknownHashType) for unrecognized hash formats.
func VerifyKey(rawKey, storedHash string) (bool, error) {
	if !strings.HasPrefix(storedHash, hashPrefix) {
		return false, ErrUnknownHashType
	}
	computed := HashKey(rawKey)
	match := subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
	return match, nil
}
