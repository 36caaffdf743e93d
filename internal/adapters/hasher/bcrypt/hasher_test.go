package bcrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash)

	assert.True(t, h.Compare(hash, "p1"))
	assert.False(t, h.Compare(hash, "p2"))
	assert.False(t, h.Compare("not-a-hash", "p1"))
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewHasher(0).(*Hasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}
