package authclient_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-auth-client"
)

func TestPendingWait(t *testing.T) {
	release := make(chan struct{})
	p := authclient.Async(context.Background(), func(context.Context) (int, error) {
		<-release
		return 42, nil
	})

	select {
	case <-p.Done():
		t.Fatal("resolved before release")
	default:
	}

	close(release)
	v, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	// resolved results can be read again
	v, _ = p.Wait()
	assert.Equal(t, 42, v)
}

func TestPendingThen(t *testing.T) {
	boom := errors.New("boom")
	p := authclient.Async(context.Background(), func(context.Context) (string, error) {
		return "", boom
	})

	got := make(chan error, 1)
	p.Then(func(_ string, err error) { got <- err })
	p.Then(nil)

	select {
	case err := <-got:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestPendingPassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	p := authclient.Async(ctx, func(ctx context.Context) (any, error) {
		return ctx.Value(key{}), nil
	})
	v, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
