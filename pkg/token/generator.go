package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// DefaultLength is the default random-segment length in characters.
const DefaultLength = 60

// ChecksumLength is the length of the embedded hex SHA-256 checksum.
const ChecksumLength = 64

// alphabet contains the characters used for the random segment.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ErrInvalidLength is returned when the random-segment length is not a
// positive even number.
var ErrInvalidLength = errors.New("token: length must be a positive even number")

// Generate generates a new token with the default random-segment length.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a token whose random segment is length
// characters long. The returned token is length+64 characters in total.
func GenerateWithLength(length int) (string, error) {
	if length <= 0 || length%2 != 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	random, err := randomAlphanumeric(length)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(random))
	checksum, err := randomizeCase(hex.EncodeToString(sum[:]))
	if err != nil {
		return "", err
	}

	pos := splitPos(length)
	return random[:pos] + checksum + random[pos:], nil
}

// splitPos returns the offset at which the checksum is embedded.
func splitPos(length int) int {
	return (length + 1) / 2
}

// randomAlphanumeric draws n characters from the alphanumeric alphabet
// using crypto/rand. Rejection sampling keeps the distribution uniform.
func randomAlphanumeric(n int) (string, error) {
	// Largest multiple of len(alphabet) below 256.
	const max = byte(256 - 256%len(alphabet))

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// randomizeCase flips random hex letters to upper case. The change is
// purely cosmetic: validation lowercases the checksum before comparing.
func randomizeCase(checksum string) (string, error) {
	coins := make([]byte, len(checksum))
	if _, err := rand.Read(coins); err != nil {
		return "", err
	}

	out := []byte(checksum)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && coins[i]&1 == 1 {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out), nil
}
