package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldermere/storefront/internal/auth"
)

func Test_HashPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, auth.VerifyPassword("correct horse battery staple", hash))
	assert.ErrorIs(t, auth.VerifyPassword("wrong password", hash), auth.ErrPasswordMismatch)
}

func Test_HashPassword_RejectsShort(t *testing.T) {
	_, err := auth.HashPassword("tiny")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}
