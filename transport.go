package authclient

import (
	"context"
	"net/http"
)

// BearerTransport attaches the current session token to outgoing requests.
// Catalog and user administration screens use it to call their endpoints
// directly once the guards let them in.
//
// When ClearOnUnauthorized is set a 401 reply to a request carrying the
// session token ends the session. Requests that bring their own
// Authorization header are passed through and never clear it.
type BearerTransport struct {
	Store               *Store
	Base                http.RoundTripper
	ClearOnUnauthorized bool
	Logger              Logger
	ActivitySink        ActivitySink
}

// NewBearerClient returns an http.Client using a BearerTransport over
// http.DefaultTransport that clears the session on 401.
func NewBearerClient(store *Store) *http.Client {
	return &http.Client{
		Transport: &BearerTransport{
			Store:               store,
			ClearOnUnauthorized: true,
		},
	}
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// attached is the session token this request carries, empty when the
	// caller brought its own credential or there is no session
	attached := ""
	if t.Store != nil && req.Header.Get("Authorization") == "" {
		if token := t.Store.Token(); token != "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
			attached = token
		}
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && t.ClearOnUnauthorized && attached != "" {
		t.invalidate(req.Context(), req.URL.Path, attached)
	}

	return resp, nil
}

// invalidate clears the session unless it already moved on to another token
func (t *BearerTransport) invalidate(ctx context.Context, path, rejected string) {
	current := t.Store.Current()
	if current == nil || current.Token != rejected {
		return
	}

	logger := normalizeLogger(t.Logger)
	logger.Info("token rejected on %s, clearing session", path)

	if err := t.Store.Clear(ctx); err != nil {
		logger.Warn("clear session after 401: %v", err)
	}

	recordActivity(ctx, t.ActivitySink, logger, ActivityEvent{
		EventType: ActivityEventSessionInvalidated,
		Username:  current.Username,
		UserID:    current.ID,
	})
}
