package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreUnavailableError(t *testing.T) {
	base := stderrors.New("connection refused")
	err := NewStoreUnavailableError("append", base)

	assert.Equal(t, "store unavailable: append: connection refused", err.Error())
	assert.ErrorIs(t, err, base)
	assert.True(t, IsStoreUnavailable(err))
	assert.True(t, IsStoreUnavailable(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsStoreUnavailable(base))
}

func TestStoreUnavailableErrorWithoutCause(t *testing.T) {
	err := NewStoreUnavailableError("read", nil)
	assert.Equal(t, "store unavailable: read", err.Error())
}

func TestTransportError(t *testing.T) {
	base := stderrors.New("Forbidden: bot was blocked by the user")
	err := NewTransportError("sendMessage", 42, base)

	assert.Equal(t, int64(42), err.ChatID)
	assert.Contains(t, err.Error(), "sendMessage to 42")
	assert.True(t, IsTransport(err))
	assert.False(t, IsStoreUnavailable(err))
}

func TestMalformedRowError(t *testing.T) {
	err := NewMalformedRowError(5, 16, 18)
	assert.Equal(t, "malformed row 5: 16 of 18 cells", err.Error())
	assert.True(t, IsMalformedRow(err))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("id 7: %w", ErrNotFound)))
	assert.False(t, IsNotFound(stderrors.New("other")))
}
