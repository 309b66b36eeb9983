package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleDerivation(t *testing.T) {
	assert.False(t, RoleCustomer.IsAdmin())
	assert.False(t, RoleCustomer.IsSuperAdmin())

	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleAdmin.IsSuperAdmin())

	assert.True(t, RoleSuperAdmin.IsAdmin())
	assert.True(t, RoleSuperAdmin.IsSuperAdmin())
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("superadmin")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, role)

	_, err = ParseRole("root")
	require.Error(t, err)
}

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleCustomer.IsValid())
	assert.False(t, Role("guest").IsValid())
}

func TestOrderStatusCancellable(t *testing.T) {
	assert.True(t, OrderStatusPending.IsCancellable())
	assert.True(t, OrderStatusProcessing.IsCancellable())
	assert.False(t, OrderStatusShipped.IsCancellable())
	assert.False(t, OrderStatusDelivered.IsCancellable())
	assert.False(t, OrderStatusCancelled.IsCancellable())
}
