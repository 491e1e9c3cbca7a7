package authclient_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-auth-client"
)

func enteredSettings(t *testing.T, service *MockAccountService, identity *authclient.Identity) (*authclient.AccountSettings, *authclient.Store) {
	t.Helper()
	store := signedInStore(t, identity)
	settings := authclient.NewAccountSettings(service, store,
		authclient.WithAccountSettingsLogger(authclient.NopLogger()))
	settings.Enter(context.Background(), store.Current())
	t.Cleanup(func() { settings.Leave(context.Background()) })
	return settings, store
}

func TestAccountSettingsEnterLoadsCurrentValues(t *testing.T) {
	settings, _ := enteredSettings(t, &MockAccountService{}, userIdentity())

	expected := authclient.AccountFields{Username: "ann", Email: "ann@example.com"}
	assert.Equal(t, expected, settings.Original())
	assert.Equal(t, expected, settings.Draft())
	assert.False(t, settings.Dirty())
	assert.Equal(t, authclient.ReauthUnverified, settings.Reauth().State())
	assert.Equal(t, "/user-main", settings.BackRoute())
}

func TestAccountSettingsSubmitNeedsVerification(t *testing.T) {
	service := &MockAccountService{}
	settings, _ := enteredSettings(t, service, userIdentity())

	settings.SetUsername("anna")
	_, err := settings.Submit(context.Background())

	assert.True(t, authclient.IsReauthRequired(err))
	assert.Equal(t, "please verify your password first", authclient.FailureReason(err))
	service.AssertNotCalled(t, "UpdateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountSettingsSubmitWithoutChanges(t *testing.T) {
	ctx := context.Background()
	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").Return(userIdentity(), nil)
	settings, _ := enteredSettings(t, service, userIdentity())

	require.NoError(t, settings.Verify(ctx, []byte("pa$$3")))

	// whitespace only edits count as unchanged
	settings.SetEmail("  ann@example.com ")
	_, err := settings.Submit(ctx)

	assert.True(t, authclient.IsNoChanges(err))
	assert.True(t, settings.Reauth().IsVerified())
	service.AssertNotCalled(t, "UpdateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountSettingsSubmitValidates(t *testing.T) {
	ctx := context.Background()
	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").Return(userIdentity(), nil)
	settings, _ := enteredSettings(t, service, userIdentity())

	require.NoError(t, settings.Verify(ctx, []byte("pa$$3")))
	settings.SetEmail("ann.example.com")

	_, err := settings.Submit(ctx)
	require.True(t, authclient.IsInvalidInput(err))
	assert.Equal(t, map[string]string{"email": "Email must contain @ symbol"}, authclient.FieldErrors(err))
	service.AssertNotCalled(t, "UpdateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountSettingsSubmitSuccess(t *testing.T) {
	ctx := context.Background()
	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").Return(userIdentity(), nil)

	settings, store := enteredSettings(t, service, userIdentity())

	service.On("UpdateAccount", mock.Anything, "anna", "ann@example.com").
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			require.NoError(t, store.UpdateIdentityFields(ctx, authclient.AccountFields{
				Username: "anna",
				Email:    "ann@example.com",
				Token:    "tok-anna",
			}))
		}).
		Return(&authclient.Identity{ID: 3, Username: "anna", Email: "ann@example.com", Role: authclient.RoleUser, Token: "tok-anna"}, nil).
		Once()

	require.NoError(t, settings.Verify(ctx, []byte("pa$$3")))
	settings.SetUsername(" anna ")

	updated, err := settings.Submit(ctx)
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "anna", updated.Username)
	assert.Equal(t, authclient.AccountFields{Username: "anna", Email: "ann@example.com"}, settings.Original())
	assert.False(t, settings.Dirty())
	assert.Equal(t, authclient.ReauthUnverified, settings.Reauth().State())
	assert.Equal(t, "anna", store.Current().Username)
	service.AssertExpectations(t)
}

func TestAccountSettingsSubmitRejected(t *testing.T) {
	ctx := context.Background()
	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").Return(userIdentity(), nil)
	service.On("UpdateAccount", mock.Anything, "admin", "ann@example.com").
		Return(nil, errors.New("Username already exists")).Once()

	settings, store := enteredSettings(t, service, userIdentity())
	require.NoError(t, settings.Verify(ctx, []byte("pa$$3")))
	settings.SetUsername("admin")

	_, err := settings.Submit(ctx)
	require.Error(t, err)

	// the edit and the verification stay so the user can fix and retry
	assert.Equal(t, "admin", settings.Draft().Username)
	assert.True(t, settings.Reauth().IsVerified())
	assert.Equal(t, "ann", store.Current().Username)
}

func TestAccountSettingsCancel(t *testing.T) {
	ctx := context.Background()
	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").Return(userIdentity(), nil)
	settings, _ := enteredSettings(t, service, userIdentity())

	require.NoError(t, settings.Verify(ctx, []byte("pa$$3")))
	settings.SetUsername("someone")
	settings.SetEmail("someone@example.com")
	require.True(t, settings.Dirty())

	settings.Cancel(ctx)

	assert.Equal(t, settings.Original(), settings.Draft())
	assert.False(t, settings.Dirty())
	assert.False(t, settings.Reauth().IsVerified())
}

func TestAccountSettingsFollowsSession(t *testing.T) {
	ctx := context.Background()
	settings, store := enteredSettings(t, &MockAccountService{}, userIdentity())

	require.NoError(t, store.UpdateIdentityFields(ctx, authclient.AccountFields{Email: "new@example.com"}))
	assert.Equal(t, "new@example.com", settings.Draft().Email)

	settings.SetUsername("draft")
	require.NoError(t, store.UpdateIdentityFields(ctx, authclient.AccountFields{Email: "other@example.com"}))
	assert.Equal(t, "other@example.com", settings.Original().Email)
	assert.Equal(t, "draft", settings.Draft().Username)
	assert.Equal(t, "new@example.com", settings.Draft().Email)

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, authclient.AccountFields{}, settings.Original())
}

func TestAccountSettingsLeaveStopsFollowing(t *testing.T) {
	ctx := context.Background()
	store := signedInStore(t, userIdentity())
	settings := authclient.NewAccountSettings(&MockAccountService{}, store,
		authclient.WithAccountSettingsLogger(authclient.NopLogger()))

	settings.Enter(ctx, store.Current())
	settings.Leave(ctx)

	require.NoError(t, store.UpdateIdentityFields(ctx, authclient.AccountFields{Email: "new@example.com"}))
	assert.Equal(t, "ann@example.com", settings.Original().Email)
}

func TestAccountSettingsEnterResetsVerification(t *testing.T) {
	ctx := context.Background()
	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").Return(userIdentity(), nil)
	settings, store := enteredSettings(t, service, userIdentity())

	require.NoError(t, settings.Verify(ctx, []byte("pa$$3")))
	settings.Enter(ctx, store.Current())

	assert.False(t, settings.Reauth().IsVerified())
}

func TestAccountSettingsChangePasswordNeedsVerification(t *testing.T) {
	ctx := context.Background()
	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").Return(userIdentity(), nil)
	service.On("ChangePassword", mock.Anything, "n3w!p", "n3w!p").Return("Password reset successfully", nil).Once()

	settings, _ := enteredSettings(t, service, userIdentity())

	_, err := settings.ChangePassword(ctx, "n3w!p", "n3w!p")
	assert.True(t, authclient.IsReauthRequired(err))

	require.NoError(t, settings.Verify(ctx, []byte("pa$$3")))
	msg, err := settings.ChangePassword(ctx, "n3w!p", "n3w!p")
	require.NoError(t, err)
	assert.Equal(t, "Password reset successfully", msg)
	service.AssertExpectations(t)
}
