package authclient_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-auth-client"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		role  authclient.Role
		ok    bool
	}{
		{"ADMIN", authclient.RoleAdmin, true},
		{"employee", authclient.RoleEmployee, true},
		{" User ", authclient.RoleUser, true},
		{"ROOT", authclient.Role("ROOT"), false},
		{"", authclient.Role(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, ok := authclient.ParseRole(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.role, role)
		})
	}

	assert.Len(t, authclient.GetAllRoles(), 3)
}

func TestCapabilityOf(t *testing.T) {
	assert.Equal(t, authclient.CapabilityNone, authclient.CapabilityOf(nil))
	assert.Equal(t, authclient.CapabilityAuthenticated, authclient.CapabilityOf(userIdentity()))
	assert.Equal(t, authclient.CapabilityAdminClass, authclient.CapabilityOf(employeeIdentity()))
	assert.Equal(t, authclient.CapabilityAdminOnly, authclient.CapabilityOf(adminIdentity()))

	odd := userIdentity()
	odd.Role = authclient.Role("ROOT")
	assert.Equal(t, authclient.CapabilityAuthenticated, authclient.CapabilityOf(odd))
	assert.False(t, authclient.IsAdminClass(odd))

	assert.True(t, authclient.IsAdminClass(employeeIdentity()))
	assert.False(t, authclient.IsAdminOnly(employeeIdentity()))
	assert.True(t, authclient.Grants(nil, authclient.CapabilityNone))
}

func TestIdentityTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ann",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	identity := userIdentity()
	identity.Token = token

	got, ok := identity.TokenExpiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = userIdentity().TokenExpiry()
	assert.False(t, ok)

	var anonymous *authclient.Identity
	_, ok = anonymous.TokenExpiry()
	assert.False(t, ok)
}

func TestIdentityInitialsAndClone(t *testing.T) {
	assert.Equal(t, "AN", userIdentity().Initials())
	assert.Equal(t, "X", (&authclient.Identity{Username: "x"}).Initials())

	var anonymous *authclient.Identity
	assert.Equal(t, "", anonymous.Initials())
	assert.Nil(t, anonymous.Clone())

	original := adminIdentity()
	clone := original.Clone()
	clone.Username = "changed"
	assert.Equal(t, "admin", original.Username)
}
