package authclient_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	authclient "github.com/goliatone/go-auth-client"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		expected string
	}{
		{"", "Password is required"},
		{"a$b", "Password must be at least 5 characters"},
		{"abcdefgh$j", "Password must be at most 9 characters"},
		{"abcdef", "Password must contain at least one special character"},
		{"pa$$1", ""},
		{"abcdefgh!", ""},
		{"ñandú#", ""},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := authclient.ValidatePassword(tt.password)
			if tt.expected == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.expected)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.EqualError(t, authclient.ValidateEmail("  "), "Email is required")
	assert.EqualError(t, authclient.ValidateEmail("ann.example.com"), "Email must contain @ symbol")
	assert.NoError(t, authclient.ValidateEmail("ann@example.com"))
}

func TestRegistrationPayloadValidate(t *testing.T) {
	payload := authclient.RegistrationPayload{
		Username:        " ",
		Email:           "ann@example.com",
		Password:        "pa$$1",
		ConfirmPassword: "pa$$2",
	}

	err := payload.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Username is required")
	assert.Contains(t, err.Error(), "Passwords do not match")

	payload.Username = "ann"
	payload.ConfirmPassword = "pa$$1"
	assert.NoError(t, payload.Validate())
}

func TestPasswordChangePayloadValidate(t *testing.T) {
	err := authclient.PasswordChangePayload{NewPassword: "pa$$1"}.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Please confirm your password")

	assert.NoError(t, authclient.PasswordChangePayload{NewPassword: "pa$$1", ConfirmPassword: "pa$$1"}.Validate())
}

func TestPasswordResetPayloadValidate(t *testing.T) {
	err := authclient.PasswordResetPayload{Email: "ann", NewPassword: "short"}.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Email must contain @ symbol")
	assert.Contains(t, err.Error(), "special character")
}
