package util

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns the lowercase hex sha256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SessionHash is the public hash under which a session id is advertised
// with a given salt: upper(hex(sha256(sessionID + salt))).
func SessionHash(sessionID, salt string) string {
	return strings.ToUpper(SHA256Hex([]byte(sessionID + salt)))
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// MaskSecret keeps the first four characters of a token for log output.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "-****"
}
