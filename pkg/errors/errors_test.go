package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	cloned := Clone(ErrSessionRevoked, "refresh token no longer active")
	wrapped := fmt.Errorf("refresh: %w", cloned)

	assert.True(t, errors.Is(wrapped, ErrSessionRevoked))
	assert.False(t, errors.Is(wrapped, ErrInvalidToken))
}

func TestWrapAsKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := WrapAs(ErrSessionStoreUnavailable, cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrSessionStoreUnavailable))
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	err := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, ErrInternal.Message, err.Message)
	assert.Nil(t, FromError(nil))
}
