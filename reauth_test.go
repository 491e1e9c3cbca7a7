package authclient_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-auth-client"
)

func signedInStore(t *testing.T, identity *authclient.Identity) *authclient.Store {
	t.Helper()
	store := quietStore(nil)
	require.NoError(t, store.SetCurrent(context.Background(), identity))
	return store
}

func TestReauthFlowStartsUnverified(t *testing.T) {
	flow := authclient.NewReauthFlow(&MockAccountService{}, quietStore(nil))
	assert.Equal(t, authclient.ReauthUnverified, flow.State())
	assert.True(t, authclient.IsReauthRequired(flow.Require()))
	assert.True(t, flow.VerifiedAt().IsZero())
}

func TestReauthFlowVerifySuccess(t *testing.T) {
	ctx := context.Background()
	store := signedInStore(t, userIdentity())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").
		Return(&authclient.Identity{Username: "ann", Token: "probe-token", Role: authclient.RoleUser}, nil).Once()

	sink := &recordingSink{}
	var transitions []authclient.ReauthState
	flow := authclient.NewReauthFlow(service, store,
		authclient.WithReauthActivitySink(sink),
		authclient.WithReauthClock(func() time.Time { return now }),
		authclient.WithReauthHook(func(_ context.Context, _, to authclient.ReauthState) {
			transitions = append(transitions, to)
		}),
	)

	password := []byte("pa$$3")
	require.NoError(t, flow.Verify(ctx, password))

	assert.True(t, flow.IsVerified())
	assert.NoError(t, flow.Require())
	assert.Equal(t, now, flow.VerifiedAt())
	assert.Equal(t, []authclient.ReauthState{authclient.ReauthVerified}, transitions)
	assert.Equal(t, []authclient.ActivityEventType{authclient.ActivityEventReauthVerified}, sink.Types())

	// buffer wiped, probe token discarded
	assert.Equal(t, make([]byte, 5), password)
	assert.Equal(t, "tok-ann", store.Token())
	service.AssertExpectations(t)
}

func TestReauthFlowVerifyFailure(t *testing.T) {
	ctx := context.Background()
	store := signedInStore(t, userIdentity())

	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "nope!").
		Return(nil, errors.New("authentication failed")).Once()

	sink := &recordingSink{}
	flow := authclient.NewReauthFlow(service, store,
		authclient.WithReauthActivitySink(sink),
		authclient.WithReauthLogger(authclient.NopLogger()))

	password := []byte("nope!")
	err := flow.Verify(ctx, password)
	require.Error(t, err)
	assert.Equal(t, make([]byte, 5), password)
	assert.True(t, authclient.IsReauthFailed(err))
	assert.Equal(t, "incorrect password, please try again", authclient.FailureReason(err))
	assert.False(t, flow.IsVerified())
	assert.Equal(t, []authclient.ActivityEventType{authclient.ActivityEventReauthFailed}, sink.Types())
	assert.True(t, store.IsAuthenticated())
}

func TestReauthFlowEmptyPasswordSendsNothing(t *testing.T) {
	service := &MockAccountService{}
	flow := authclient.NewReauthFlow(service, signedInStore(t, userIdentity()),
		authclient.WithReauthLogger(authclient.NopLogger()))

	err := flow.Verify(context.Background(), nil)
	assert.True(t, authclient.IsReauthFailed(err))
	service.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestReauthFlowNeedsIdentity(t *testing.T) {
	service := &MockAccountService{}
	flow := authclient.NewReauthFlow(service, quietStore(nil))

	err := flow.Verify(context.Background(), []byte("pa$$3"))
	assert.True(t, authclient.IsNotAuthenticated(err))
	service.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestReauthFlowResetAndComplete(t *testing.T) {
	ctx := context.Background()
	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").Return(userIdentity(), nil)

	flow := authclient.NewReauthFlow(service, signedInStore(t, userIdentity()))

	require.NoError(t, flow.Verify(ctx, []byte("pa$$3")))
	flow.Complete(ctx)
	assert.Equal(t, authclient.ReauthUnverified, flow.State())

	require.NoError(t, flow.Verify(ctx, []byte("pa$$3")))
	flow.Reset(ctx)
	assert.Equal(t, authclient.ReauthUnverified, flow.State())
}

func TestReauthFlowResetWinsOverInFlightProbe(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	service := &MockAccountService{}
	service.On("Authenticate", mock.Anything, "ann", "pa$$3").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(userIdentity(), nil).Once()

	flow := authclient.NewReauthFlow(service, signedInStore(t, userIdentity()))

	done := make(chan error, 1)
	go func() {
		done <- flow.Verify(ctx, []byte("pa$$3"))
	}()

	<-started
	flow.Reset(ctx)
	close(release)

	assert.True(t, authclient.IsReauthRequired(<-done))
	assert.Equal(t, authclient.ReauthUnverified, flow.State())
}
