package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// Fingerprints are SHA-256 digests rendered as 0x + 64 lowercase hex
// characters. Every ledger-write boundary validates this exact shape.
const FingerprintLen = 2 + sha256.Size*2

var fingerprintPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// Fingerprint digests a canonical byte string.
func Fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return "0x" + hex.EncodeToString(sum[:])
}

// FingerprintValue canonicalizes v and fingerprints the result.
func FingerprintValue(v any) (string, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return Fingerprint(b), nil
}

// ValidFingerprint reports whether s has the exact fingerprint shape.
// Uppercase hex is rejected.
func ValidFingerprint(s string) bool {
	return fingerprintPattern.MatchString(s)
}
