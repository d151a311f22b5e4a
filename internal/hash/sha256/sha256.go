// Package sha256 provides SHA-256 hashing utilities.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptyInput is returned when asked to hash zero bytes; an empty payload
// can never be a valid normalized image and must not enter the ledger.
var ErrEmptyInput = errors.New("cannot hash empty input")

// Hasher implements ingest.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest. Identical bytes always
// yield identical digests.
func (h *Hasher) Hash(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
