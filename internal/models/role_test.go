package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionMapAllows(t *testing.T) {
	perms := PermissionMap{
		"users":    {"read", "update"},
		"settings": {"*"},
	}

	assert.True(t, perms.Allows("users", "read"))
	assert.True(t, perms.Allows("users", "update"))
	assert.False(t, perms.Allows("users", "delete"))

	// wildcard grants every action on its resource, including unknown ones
	assert.True(t, perms.Allows("settings", "read"))
	assert.True(t, perms.Allows("settings", "update"))
	assert.True(t, perms.Allows("settings", "anything"))

	// absent resource grants nothing
	assert.False(t, perms.Allows("roles", "read"))
	assert.False(t, perms.Allows("roles", "*"))
}

func TestPermissionMapAllowsEmpty(t *testing.T) {
	assert.False(t, PermissionMap{}.Allows("users", "read"))

	var nilMap PermissionMap
	assert.False(t, nilMap.Allows("users", "read"))
}

func TestPermissionMapValidate(t *testing.T) {
	require.NoError(t, PermissionMap{"users": {"read", "*"}}.Validate())
	require.NoError(t, PermissionMap{}.Validate())

	assert.Error(t, PermissionMap{"": {"read"}}.Validate())
	assert.Error(t, PermissionMap{"users": {""}}.Validate())
}

func TestUserRoleName(t *testing.T) {
	assert.Equal(t, "", User{}.RoleName())
	assert.Equal(t, "admin", User{Role: &Role{Name: "admin"}}.RoleName())
}

func TestUserStatusValid(t *testing.T) {
	assert.True(t, UserStatusActive.Valid())
	assert.True(t, UserStatusInactive.Valid())
	assert.True(t, UserStatusSuspended.Valid())
	assert.False(t, UserStatus("banned").Valid())
}
