package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Validate reports whether tok is structurally valid for the given
// random-segment length: correct total length and a checksum that matches
// the SHA-256 of the reconstructed random segment.
//
// It never touches storage; a passing token may still be unknown, revoked
// or expired.
func Validate(tok string, length int) bool {
	if length <= 0 || length%2 != 0 {
		return false
	}
	if len(tok) != length+ChecksumLength {
		return false
	}

	pos := splitPos(length)
	random := tok[:pos] + tok[pos+ChecksumLength:]
	checksum := strings.ToLower(tok[pos : pos+ChecksumLength])

	sum := sha256.Sum256([]byte(random))
	expected := hex.EncodeToString(sum[:])

	return subtle.ConstantTimeCompare([]byte(expected), []byte(checksum)) == 1
}

// Codec binds the token format to a configured random-segment length so
// that collaborators need not thread the length through every call.
type Codec struct {
	length int
}

// NewCodec creates a Codec for the given random-segment length.
func NewCodec(length int) (*Codec, error) {
	if length <= 0 || length%2 != 0 {
		return nil, ErrInvalidLength
	}
	return &Codec{length: length}, nil
}

// Length returns the configured random-segment length.
func (c *Codec) Length() int {
	return c.length
}

// TokenLength returns the total length of tokens produced by this codec.
func (c *Codec) TokenLength() int {
	return c.length + ChecksumLength
}

// Generate generates a new token.
func (c *Codec) Generate() (string, error) {
	return GenerateWithLength(c.length)
}

// Validate reports whether tok is structurally valid for this codec.
func (c *Codec) Validate(tok string) bool {
	return Validate(tok, c.length)
}
