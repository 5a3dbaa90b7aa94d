package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	for _, algorithm := range []string{HashAlgorithmBcrypt, HashAlgorithmArgon2id} {
		t.Run(algorithm, func(t *testing.T) {
			hasher, err := NewPasswordHasher(algorithm, bcrypt.MinCost)
			require.NoError(t, err)

			hash, err := hasher.Hash("secret1")
			require.NoError(t, err)
			assert.NotContains(t, hash, "secret1")

			ok, err := hasher.Verify("secret1", hash)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = hasher.Verify("wrong", hash)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPasswordHasherVerifiesEitherFormat(t *testing.T) {
	bcryptHasher, err := NewPasswordHasher(HashAlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	argonHasher, err := NewPasswordHasher(HashAlgorithmArgon2id, bcrypt.MinCost)
	require.NoError(t, err)

	legacy, err := bcryptHasher.Hash("secret1")
	require.NoError(t, err)
	ok, err := argonHasher.Verify("secret1", legacy)
	require.NoError(t, err)
	assert.True(t, ok)

	modern, err := argonHasher.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(modern, "$argon2id$v=19$"))
	ok, err = bcryptHasher.Verify("secret1", modern)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2idRejectsMalformedHashes(t *testing.T) {
	hasher := newArgon2idHasher()
	for _, encoded := range []string{
		"$argon2id$",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=999999999,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	} {
		ok, err := hasher.Verify("secret1", encoded)
		assert.False(t, ok, encoded)
		assert.ErrorIs(t, err, errInvalidHash, encoded)
	}
}

func TestNewPasswordHasherUnknownAlgorithm(t *testing.T) {
	_, err := NewPasswordHasher("md5", bcrypt.MinCost)
	assert.Error(t, err)
}
