// Package password turns plaintext credentials into their stored form.
//
// The scheme is a single unsalted SHA-256 round encoded as lowercase hex.
// It is kept for compatibility with existing stored hashes and is not a
// suitable scheme for new credential stores.
package password

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a hashed password in characters.
const Size = sha256.Size * 2

// Hash returns the hex encoded SHA-256 digest of plaintext.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
