// Package roomcode generates room codes and role secrets from a restricted
// alphabet that excludes visually ambiguous characters.
package roomcode

import (
	"crypto/rand"
	"crypto/subtle"
	"io"
)

// Alphabet omits 0/O, 1/I/L and 5/S so codes survive being read aloud or
// copied by hand.
const Alphabet = "ABCDEFGHJKMNPQRTUVWXYZ2346789"

// Length of both room codes and role secrets.
const Length = 8

// maxUnbiased is the largest multiple of len(Alphabet) a byte can hold;
// values at or above it are discarded so every alphabet index is equally
// likely.
const maxUnbiased = 256 - 256%len(Alphabet)

// New returns a fresh 8-character code from the restricted alphabet.
func New() (string, error) {
	return fromReader(rand.Reader)
}

func fromReader(r io.Reader) (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, v := range buf {
			if int(v) >= maxUnbiased {
				continue
			}
			out = append(out, Alphabet[int(v)%len(Alphabet)])
			if len(out) == Length {
				return string(out), nil
			}
		}
	}
}

// Equal compares a supplied secret against a stored one in constant time.
func Equal(supplied, stored string) bool {
	if len(supplied) != len(stored) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(stored)) == 1
}
