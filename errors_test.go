package ryderserial

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := NewError("send", CodeWatchdog, "no response within the watchdog interval")
	assert.Equal(t, "send", err.Op)
	assert.Equal(t, CodeWatchdog, err.Code)
	assert.Equal(t, "ryderserial: no response within the watchdog interval (op=send)", err.Error())
}

func TestErrorMessageFallsBackToCode(t *testing.T) {
	err := &Error{Code: CodeDisconnected}
	assert.Equal(t, "ryderserial: disconnected", err.Error())
}

func TestWrapError(t *testing.T) {
	inner := errors.New("broken pipe")
	err := WrapError("open", CodeDisconnected, inner)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, inner, err.Unwrap())
}

func TestWrapErrorNilPassthrough(t *testing.T) {
	assert.Nil(t, WrapError("open", CodeDisconnected, nil))
}

func TestIsCode(t *testing.T) {
	err := NewError("send", CodeLocked, "device reported locked")
	assert.True(t, IsCode(err, CodeLocked))
	assert.False(t, IsCode(err, CodeWatchdog))
	assert.False(t, IsCode(errors.New("plain"), CodeLocked))
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	a := NewError("send", CodeCleared, "queue cleared")
	b := &Error{Code: CodeCleared}
	assert.True(t, errors.Is(a, b))
}

func TestDeviceErrorCode(t *testing.T) {
	cases := map[byte]Code{
		246: CodeUnknownCommand,
		255: CodeNotImplemented,
		200: CodeUnknownResponse,
	}
	for b, want := range cases {
		assert.Equal(t, want, deviceErrorCode(b))
	}
}
