package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewHasherCost(t *testing.T) {
	_, err := NewHasher(0)
	require.NoError(t, err, "zero cost selects the default")

	_, err = NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = NewHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)

	_, err = NewHasher(-1)
	assert.Error(t, err)
}

func TestHashAndVerify(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, string(hash), "correct horse")

	assert.True(t, h.Verify(hash, "correct horse battery staple"))
	assert.False(t, h.Verify(hash, "wrong password"))
	assert.False(t, h.Verify(hash, ""))
	assert.False(t, h.Verify(nil, "correct horse battery staple"))
	assert.False(t, h.Verify([]byte("not a bcrypt hash"), "anything"))
}

func TestHashIsSalted(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	h1, err := h.Hash("same password")
	require.NoError(t, err)
	h2, err := h.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "each hash draws a fresh salt")
	assert.True(t, h.Verify(h1, "same password"))
	assert.True(t, h.Verify(h2, "same password"))
}

func TestHashNormalizesUnicode(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	// Composed U+00E9 vs decomposed e + U+0301: same password to a user.
	hash, err := h.Hash("caf\u00e9")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "cafe\u0301"))
}
