package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBadCredentialsError(t *testing.T) {
	t.Run("nil is not a credential error", func(t *testing.T) {
		assert.False(t, IsBadCredentialsError(nil))
	})

	t.Run("wrapped sentinel", func(t *testing.T) {
		err := fmt.Errorf("failed to list installations: %w", ErrBadCredentials)
		assert.True(t, IsBadCredentialsError(err))
	})

	t.Run("provider message without sentinel", func(t *testing.T) {
		assert.True(t, IsBadCredentialsError(errors.New(`GitHub API error: {"message":"Bad credentials"}`)))
	})

	t.Run("other failures", func(t *testing.T) {
		assert.False(t, IsBadCredentialsError(errors.New("connection refused")))
		assert.False(t, IsBadCredentialsError(ErrNotFound))
	})
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(fmt.Errorf("setting github/oauth_token: %w", ErrNotFound)))
	assert.False(t, IsNotFoundError(errors.New("boom")))
	assert.False(t, IsNotFoundError(nil))
}
