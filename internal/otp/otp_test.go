package otp

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerate(t *testing.T) {
	for _, length := range []int{1, 4, 6, 8} {
		code, err := Generate(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		assert.Regexp(t, regexp.MustCompile(`^[0-9]+$`), code)
	}
}

func TestGenerate_DefaultLength(t *testing.T) {
	code, err := Generate(0)
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
}

func TestGenerate_NotConstant(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		code, err := Generate(6)
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := h.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hashed)

	assert.True(t, h.Compare(hashed, "1234"))
	assert.False(t, h.Compare(hashed, "4321"))
}

func TestBcryptHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("1234")
	require.NoError(t, err)
	second, err := h.Hash("1234")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_InvalidHash(t *testing.T) {
	assert.False(t, NewBcryptHasher(bcrypt.MinCost).Compare("invalidhash", "1234"))
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
