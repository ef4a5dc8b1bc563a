package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := New(ErrCodeValidation, "missing player name")
	assert.Equal(t, "VALIDATION: missing player name", err.Error())

	wrapped := Wrap(fmt.Errorf("connection refused"), ErrCodeGameAPI, "command failed")
	assert.Equal(t, "GAME_API: command failed: connection refused", wrapped.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, ErrCodePersistence, "snapshot failed")

	assert.ErrorIs(t, err, cause)
}

func TestAppErrorContext(t *testing.T) {
	err := New(ErrCodeGameAPI, "command failed").
		WithContext("command", "whitelist add Steve").
		WithContext("attempt", 2)

	assert.Equal(t, "whitelist add Steve", err.Context["command"])
	assert.Equal(t, 2, err.Context["attempt"])
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(WrapRetryable(errors.New("timeout"), ErrCodeTimeout, "game API timeout")))
	assert.False(t, IsRetryable(New(ErrCodeValidation, "bad input")))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeAuth, GetCode(New(ErrCodeAuth, "bad token")))
	assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain error")))
}
