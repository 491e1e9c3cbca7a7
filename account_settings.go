package authclient

import (
	"context"
	"strings"
	"sync"
)

// AccountService is what the account settings screen needs from the Gateway
type AccountService interface {
	Authenticator
	UpdateAccount(ctx context.Context, username, email string) (*Identity, error)
	ChangePassword(ctx context.Context, newPassword, confirmPassword string) (string, error)
}

// AccountSettings is the model behind the account settings screen. Edits are
// buffered until Submit, which needs a verified password.
type AccountSettings struct {
	service AccountService
	store   *Store
	reauth  *ReauthFlow
	logger  Logger

	mu          sync.Mutex
	original    AccountFields
	draft       AccountFields
	unsubscribe func()
}

// AccountSettingsOption customizes AccountSettings construction
type AccountSettingsOption func(*AccountSettings)

// WithAccountSettingsLogger overrides the logger
func WithAccountSettingsLogger(logger Logger) AccountSettingsOption {
	return func(a *AccountSettings) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithReauthFlow replaces the flow created by default
func WithReauthFlow(flow *ReauthFlow) AccountSettingsOption {
	return func(a *AccountSettings) {
		if flow != nil {
			a.reauth = flow
		}
	}
}

// NewAccountSettings returns the screen model. Call Enter before use.
func NewAccountSettings(service AccountService, store *Store, opts ...AccountSettingsOption) *AccountSettings {
	a := &AccountSettings{
		service: service,
		store:   store,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if a.reauth == nil {
		a.reauth = NewReauthFlow(service, store, WithReauthLogger(a.logger))
	}

	return a
}

// Reauth exposes the verification flow of this screen
func (a *AccountSettings) Reauth() *ReauthFlow {
	return a.reauth
}

// Enter loads the current identity and follows the session from now on.
// Verification starts over on every entry.
func (a *AccountSettings) Enter(ctx context.Context, _ *Identity) {
	a.reauth.Reset(ctx)

	a.mu.Lock()
	prev := a.unsubscribe
	a.unsubscribe = nil
	a.original = AccountFields{}
	a.draft = AccountFields{}
	a.mu.Unlock()

	if prev != nil {
		prev()
	}

	unsubscribe := a.store.Subscribe(a.onIdentity)

	a.mu.Lock()
	a.unsubscribe = unsubscribe
	a.mu.Unlock()
}

// Leave stops following the session
func (a *AccountSettings) Leave(ctx context.Context) {
	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.unsubscribe = nil
	a.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	a.reauth.Reset(ctx)
}

// onIdentity refreshes the last known values. An untouched draft follows
// them, edits in progress are kept.
func (a *AccountSettings) onIdentity(identity *Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if identity == nil {
		a.original = AccountFields{}
		a.draft = AccountFields{}
		return
	}

	pristine := a.draft == a.original
	a.original = AccountFields{Username: identity.Username, Email: identity.Email}
	if pristine {
		a.draft = a.original
	}
}

// Verify checks the current password, see ReauthFlow.Verify
func (a *AccountSettings) Verify(ctx context.Context, password []byte) error {
	return a.reauth.Verify(ctx, password)
}

// SetUsername edits the pending username
func (a *AccountSettings) SetUsername(username string) {
	a.mu.Lock()
	a.draft.Username = username
	a.mu.Unlock()
}

// SetEmail edits the pending email
func (a *AccountSettings) SetEmail(email string) {
	a.mu.Lock()
	a.draft.Email = email
	a.mu.Unlock()
}

// Draft returns the pending values
func (a *AccountSettings) Draft() AccountFields {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft
}

// Original returns the last known good values
func (a *AccountSettings) Original() AccountFields {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.original
}

// Dirty checks if there are pending edits
func (a *AccountSettings) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !sameAccount(a.draft, a.original)
}

// Submit sends the pending edits. It needs a verified password and at least
// one changed field. On success the screen goes back to Unverified.
func (a *AccountSettings) Submit(ctx context.Context) (*Identity, error) {
	if err := a.reauth.Require(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	draft, original := a.draft, a.original
	a.mu.Unlock()

	if sameAccount(draft, original) {
		return nil, ErrNoChanges
	}

	payload := AccountUpdatePayload{
		Username: strings.TrimSpace(draft.Username),
		Email:    strings.TrimSpace(draft.Email),
	}
	if err := payload.Validate(); err != nil {
		return nil, invalidInput("update_account", err)
	}

	updated, err := a.service.UpdateAccount(ctx, payload.Username, payload.Email)
	if err != nil {
		a.logger.Info("account update rejected: %v", err)
		return nil, err
	}

	if updated != nil {
		a.mu.Lock()
		a.original = AccountFields{Username: updated.Username, Email: updated.Email}
		a.draft = a.original
		a.mu.Unlock()
	}

	a.reauth.Complete(ctx)

	return updated, nil
}

// Cancel discards pending edits and drops the verification
func (a *AccountSettings) Cancel(ctx context.Context) {
	a.mu.Lock()
	a.draft = a.original
	a.mu.Unlock()

	a.reauth.Reset(ctx)
}

// ChangePassword sets a new password for the current account. It needs a
// verified password like any other change on this screen.
func (a *AccountSettings) ChangePassword(ctx context.Context, newPassword, confirmPassword string) (string, error) {
	if err := a.reauth.Require(); err != nil {
		return "", err
	}
	return a.service.ChangePassword(ctx, newPassword, confirmPassword)
}

// BackRoute is where the screen's back button leads
func (a *AccountSettings) BackRoute() string {
	return LandingRoute(a.store.Current())
}

func sameAccount(a, b AccountFields) bool {
	return strings.TrimSpace(a.Username) == strings.TrimSpace(b.Username) &&
		strings.TrimSpace(a.Email) == strings.TrimSpace(b.Email)
}
