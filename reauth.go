package authclient

import (
	"context"
	"sync"
	"time"
)

// ReauthState is the verification state of a sensitive screen
type ReauthState string

const (
	ReauthUnverified ReauthState = "unverified"
	ReauthVerified   ReauthState = "verified"
)

// Authenticator verifies credentials without touching the session
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
}

// ReauthTransitionHook runs after the state changed
type ReauthTransitionHook func(ctx context.Context, from, to ReauthState)

// ReauthOption customizes ReauthFlow construction
type ReauthOption func(*ReauthFlow)

// WithReauthLogger overrides the logger
func WithReauthLogger(logger Logger) ReauthOption {
	return func(f *ReauthFlow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithReauthActivitySink sets the ActivitySink used for verification events
func WithReauthActivitySink(sink ActivitySink) ReauthOption {
	return func(f *ReauthFlow) {
		f.activitySink = normalizeActivitySink(sink)
	}
}

// WithReauthClock injects a custom clock (useful for tests).
func WithReauthClock(clock func() time.Time) ReauthOption {
	return func(f *ReauthFlow) {
		if clock != nil {
			f.now = clock
		}
	}
}

// WithReauthHook adds a hook executed after every state change
func WithReauthHook(h ReauthTransitionHook) ReauthOption {
	return func(f *ReauthFlow) {
		if h != nil {
			f.hooks = append(f.hooks, h)
		}
	}
}

// ReauthFlow gates sensitive changes behind a fresh password check of the
// current identity. It starts Unverified and returns there on Reset and
// Complete.
type ReauthFlow struct {
	auth         Authenticator
	store        *Store
	transitions  map[ReauthState]map[ReauthState]struct{}
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
	hooks        []ReauthTransitionHook

	mu         sync.Mutex
	state      ReauthState
	epoch      uint64
	verifiedAt time.Time
}

// NewReauthFlow returns an Unverified flow probing auth for the identity
// held by store.
func NewReauthFlow(auth Authenticator, store *Store, opts ...ReauthOption) *ReauthFlow {
	f := &ReauthFlow{
		auth:  auth,
		store: store,
		transitions: map[ReauthState]map[ReauthState]struct{}{
			ReauthUnverified: {
				ReauthVerified: {},
			},
			ReauthVerified: {
				ReauthUnverified: {},
			},
		},
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
		state:        ReauthUnverified,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f
}

// State returns the current verification state
func (f *ReauthFlow) State() ReauthState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsVerified checks if the password was verified since the last reset
func (f *ReauthFlow) IsVerified() bool {
	return f.State() == ReauthVerified
}

// VerifiedAt returns when the flow last became Verified, zero otherwise
func (f *ReauthFlow) VerifiedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != ReauthVerified {
		return time.Time{}
	}
	return f.verifiedAt
}

// Verify checks password against the current identity. The token issued by
// the probe is discarded and the session is not touched. The caller's
// password buffer is zeroed before Verify returns; the string copy handed
// to the Authenticator is not reachable and is left to the collector.
//
// A Reset or Complete racing with an in flight probe wins: the late probe
// result is dropped.
func (f *ReauthFlow) Verify(ctx context.Context, password []byte) error {
	defer zero(password)

	current := f.store.Current()
	if current == nil {
		return ErrNotAuthenticated
	}

	if len(password) == 0 {
		f.recordFailure(ctx, current, "empty password")
		return failure(ErrReauthFailed, "reauth", 0, "", nil)
	}

	f.mu.Lock()
	epoch := f.epoch
	f.mu.Unlock()

	_, err := f.auth.Authenticate(ctx, current.Username, string(password))
	if err != nil {
		f.recordFailure(ctx, current, "rejected")
		if _, terr := f.transitionIf(ctx, epoch, ReauthUnverified); terr != nil {
			f.logger.Warn("reauth: %v", terr)
		}
		return failure(ErrReauthFailed, "reauth", 0, "", err)
	}

	applied, err := f.transitionIf(ctx, epoch, ReauthVerified)
	if err != nil {
		return err
	}
	if !applied {
		// reset while the probe was in flight
		return ErrReauthRequired
	}

	recordActivity(ctx, f.activitySink, f.logger, ActivityEvent{
		EventType:  ActivityEventReauthVerified,
		Username:   current.Username,
		UserID:     current.ID,
		OccurredAt: f.now(),
	})

	return nil
}

// Require returns ErrReauthRequired unless the flow is Verified
func (f *ReauthFlow) Require() error {
	if !f.IsVerified() {
		return ErrReauthRequired
	}
	return nil
}

// Complete ends a verified window after a sensitive change went through
func (f *ReauthFlow) Complete(ctx context.Context) {
	f.reset(ctx)
}

// Reset returns to Unverified, used on screen entry and cancel
func (f *ReauthFlow) Reset(ctx context.Context) {
	f.reset(ctx)
}

func (f *ReauthFlow) reset(ctx context.Context) {
	f.mu.Lock()
	f.epoch++
	epoch := f.epoch
	f.mu.Unlock()

	if _, err := f.transitionIf(ctx, epoch, ReauthUnverified); err != nil {
		f.logger.Warn("reauth: %v", err)
	}
}

// transitionIf moves to target unless a reset happened after epoch was read.
// It reports whether the flow is in target afterwards.
func (f *ReauthFlow) transitionIf(ctx context.Context, epoch uint64, target ReauthState) (bool, error) {
	f.mu.Lock()
	if f.epoch != epoch {
		f.mu.Unlock()
		return false, nil
	}

	from := f.state
	if from == target {
		f.mu.Unlock()
		return true, nil
	}

	if !f.canTransition(from, target) {
		f.mu.Unlock()
		return false, ErrInvalidReauthTransition.Clone().WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	f.state = target
	if target == ReauthVerified {
		f.verifiedAt = f.now()
	}
	hooks := f.hooks
	f.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, from, target)
	}

	return true, nil
}

func (f *ReauthFlow) canTransition(from, to ReauthState) bool {
	if allowed, ok := f.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (f *ReauthFlow) recordFailure(ctx context.Context, current *Identity, reason string) {
	recordActivity(ctx, f.activitySink, f.logger, ActivityEvent{
		EventType:  ActivityEventReauthFailed,
		Username:   current.Username,
		UserID:     current.ID,
		Metadata:   map[string]any{"reason": reason},
		OccurredAt: f.now(),
	})
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
