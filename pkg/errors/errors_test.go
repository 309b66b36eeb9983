package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsUnwrapsThroughChain(t *testing.T) {
	inner := New(CodeAPI, "invalid credentials")
	wrapped := fmt.Errorf("login: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeAPI, typed.Code())
	assert.Equal(t, "invalid credentials", typed.Message())
}

func TestIsCode(t *testing.T) {
	err := Wrap(CodeMalformedResponse, fmt.Errorf("unexpected EOF"), "decode products")
	assert.True(t, IsCode(err, CodeMalformedResponse))
	assert.False(t, IsCode(err, CodeTransport))
	assert.False(t, IsCode(nil, CodeTransport))
}

func TestDisplayMessage(t *testing.T) {
	assert.Equal(t, "invalid credentials", DisplayMessage(New(CodeAPI, "invalid credentials")))
	assert.Equal(t, "request failed", DisplayMessage(New(CodeAPI, "")))
	assert.Equal(t, "internal error", DisplayMessage(fmt.Errorf("plain")))
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	assert.Equal(t, "internal error", meta.PublicMessage)
}

func TestNilReceiverSafety(t *testing.T) {
	var e *Error
	assert.Equal(t, CodeInternal, e.Code())
	assert.Equal(t, "", e.Message())
	assert.Nil(t, e.Details())
	assert.NoError(t, e.Unwrap())
}
