// Package auth implements the authentication core: password hashing,
// credential verification, the per-request access decision, and the
// password-reset token flow.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jmcleod/gatehouse/internal/util"
)

// Hasher performs one-way salted password hashing with a tunable cost.
// bcrypt embeds the algorithm id, cost, and salt in its output, so stored
// hashes are self-describing and verification needs no extra state.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given bcrypt cost. A cost of 0
// selects bcrypt.DefaultCost; anything else outside the supported range
// is rejected at startup rather than at first use.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("hash cost %d outside supported range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns a salted hash of password. A fresh random salt is drawn on
// every call, so hashing the same password twice yields different outputs.
// The password is NFKD-normalized first so visually identical input
// verifies regardless of how the client composed it.
func (h *Hasher) Hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(util.Normalize(password)), h.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// Verify reports whether candidate matches the stored hash. Malformed
// hashes and mismatches both report false; this never panics or errors.
func (h *Hasher) Verify(hash []byte, candidate string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(util.Normalize(candidate))) == nil
}
