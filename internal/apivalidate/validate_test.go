package apivalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
)

type payload struct {
	Token string `json:"token" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidPayloadPasses(t *testing.T) {
	assert.NoError(t, Struct(payload{Token: "abc"}))
}

func TestMissingRequiredFieldIsMalformedResponse(t *testing.T) {
	err := Struct(payload{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeMalformedResponse))

	typed := pkgerrors.As(err)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "payload.token")
}

func TestBadEmailIsMalformedResponse(t *testing.T) {
	err := Struct(payload{Token: "abc", Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeMalformedResponse))
}
