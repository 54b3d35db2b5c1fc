package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := BcryptHasher{}

	t.Run("hash and compare ok", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)
		require.NotEmpty(t, hash)

		require.NoError(t, hasher.Compare(hash, "correct horse battery staple"))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		hash, err := hasher.Hash("password-one")
		require.NoError(t, err)

		require.Error(t, hasher.Compare(hash, "password-two"))
	})

	t.Run("long passwords supported", func(t *testing.T) {
		// Plain bcrypt truncates at 72 bytes, the sha256 pre-hash must not
		long := strings.Repeat("a", 100)
		longer := strings.Repeat("a", 101)

		hash, err := hasher.Hash(long)
		require.NoError(t, err)

		require.NoError(t, hasher.Compare(hash, long))
		require.Error(t, hasher.Compare(hash, longer), "passwords differing past 72 bytes should not match")
	})

	t.Run("hashes are salted", func(t *testing.T) {
		first, err := hasher.Hash("pwd")
		require.NoError(t, err)
		second, err := hasher.Hash("pwd")
		require.NoError(t, err)

		require.NotEqual(t, first, second)
	})
}
