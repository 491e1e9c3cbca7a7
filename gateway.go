package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID is set on every outgoing request
const HeaderRequestID = "X-Request-ID"

// Gateway performs the auth service requests and updates the Store on
// success. Every call issues exactly one request and never retries. Methods
// block the calling goroutine; use Async to run them in the background.
type Gateway struct {
	baseURL      string
	httpClient   *http.Client
	store        *Store
	logger       Logger
	activitySink ActivitySink
	requestID    func() string
}

// GatewayOption customizes Gateway construction
type GatewayOption func(*Gateway)

// WithHTTPClient sets the client used for requests. The core enforces no
// timeout of its own, set one on the client when needed.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithGatewayLogger overrides the logger
func WithGatewayLogger(logger Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) GatewayOption {
	return func(g *Gateway) {
		g.activitySink = normalizeActivitySink(sink)
	}
}

// WithRequestIDFunc overrides how X-Request-ID values are generated
func WithRequestIDFunc(fn func() string) GatewayOption {
	return func(g *Gateway) {
		if fn != nil {
			g.requestID = fn
		}
	}
}

// NewGateway returns a Gateway talking to cfg's auth endpoints and writing
// to store.
func NewGateway(cfg Config, store *Store, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		baseURL:      strings.TrimRight(cfg.GetBaseURL(), "/") + cfg.GetAuthPath(),
		httpClient:   &http.Client{},
		store:        store,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		requestID:    uuid.NewString,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Store returns the session store this gateway writes to
func (g *Gateway) Store() *Store {
	return g.store
}

// Login verifies the credentials and makes the returned identity current.
// On failure the session is left as it was.
func (g *Gateway) Login(ctx context.Context, username, password string) (*Identity, error) {
	identity, err := g.authenticate(ctx, "login", username, password)
	if err != nil {
		g.logger.Info("login failed for %q: %v", username, err)
		recordActivity(ctx, g.activitySink, g.logger, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Username:  username,
		})
		return nil, err
	}

	if err := g.store.SetCurrent(ctx, identity); err != nil {
		// the session is live in memory, only durability is lost
		g.logger.Warn("login: session not persisted: %v", err)
	}

	recordActivity(ctx, g.activitySink, g.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Username:  identity.Username,
		UserID:    identity.ID,
	})

	return identity.Clone(), nil
}

// Authenticate runs the login request without touching the session. The
// service still issues a token, the caller decides what to do with it.
func (g *Gateway) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	return g.authenticate(ctx, "authenticate", username, password)
}

func (g *Gateway) authenticate(ctx context.Context, operation, username, password string) (*Identity, error) {
	status, body, err := g.send(ctx, http.MethodPost, "/login", loginRequest{
		Username: username,
		Password: password,
	}, "")
	if err != nil {
		return nil, failure(ErrAuthenticationFailed, operation, status, "", err)
	}

	if !isSuccess(status) {
		return nil, failure(ErrAuthenticationFailed, operation, status, "", &responseError{
			Operation: operation,
			Status:    status,
			Message:   apiMessage(body),
		})
	}

	identity, err := decodeIdentity(string(body))
	if err != nil {
		return nil, failure(ErrAuthenticationFailed, operation, status, "", err)
	}

	if !identity.valid() {
		return nil, failure(ErrAuthenticationFailed, operation, status, "", &responseError{
			Operation: operation,
			Status:    status,
			Message:   "incomplete identity in login response",
		})
	}

	return identity, nil
}

// Register creates an account. It never starts a session, the caller
// navigates to login afterwards.
func (g *Gateway) Register(ctx context.Context, username, email, password string) (string, error) {
	payload := RegistrationPayload{
		Username:        strings.TrimSpace(username),
		Email:           strings.TrimSpace(email),
		Password:        password,
		ConfirmPassword: password,
	}
	if err := payload.Validate(); err != nil {
		return "", invalidInput("register", err)
	}

	status, body, err := g.send(ctx, http.MethodPost, "/register", registerRequest{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	}, "")
	if err != nil {
		return "", failure(ErrRegistrationFailed, "register", status, "", err)
	}

	if !isSuccess(status) {
		msg := apiMessage(body)
		return "", failure(ErrRegistrationFailed, "register", status, msg, &responseError{
			Operation: "register",
			Status:    status,
			Message:   msg,
		})
	}

	recordActivity(ctx, g.activitySink, g.logger, ActivityEvent{
		EventType: ActivityEventRegistered,
		Username:  payload.Username,
	})

	return confirmation(body, "User registered successfully"), nil
}

// ResetPassword sets a new password for the account with email. The session
// is not touched.
func (g *Gateway) ResetPassword(ctx context.Context, email, newPassword string) (string, error) {
	payload := PasswordResetPayload{
		Email:       strings.TrimSpace(email),
		NewPassword: newPassword,
	}
	if err := payload.Validate(); err != nil {
		return "", invalidInput("reset_password", err)
	}

	return g.resetPassword(ctx, "reset_password", payload)
}

// ChangePassword resets the password of the current identity through the
// reset endpoint.
func (g *Gateway) ChangePassword(ctx context.Context, newPassword, confirmPassword string) (string, error) {
	current := g.store.Current()
	if current == nil {
		return "", ErrNotAuthenticated
	}

	change := PasswordChangePayload{
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	}
	if err := change.Validate(); err != nil {
		return "", invalidInput("change_password", err)
	}

	return g.resetPassword(ctx, "change_password", PasswordResetPayload{
		Email:       current.Email,
		NewPassword: newPassword,
	})
}

func (g *Gateway) resetPassword(ctx context.Context, operation string, payload PasswordResetPayload) (string, error) {
	status, body, err := g.send(ctx, http.MethodPost, "/reset-password", resetPasswordRequest{
		Email:       payload.Email,
		NewPassword: payload.NewPassword,
	}, "")
	if err != nil {
		return "", failure(ErrResetFailed, operation, status, "", err)
	}

	if !isSuccess(status) {
		msg := apiMessage(body)
		return "", failure(ErrResetFailed, operation, status, msg, &responseError{
			Operation: operation,
			Status:    status,
			Message:   msg,
		})
	}

	recordActivity(ctx, g.activitySink, g.logger, ActivityEvent{
		EventType: ActivityEventPasswordReset,
		Metadata:  map[string]any{"operation": operation},
	})

	return confirmation(body, "Password reset successfully"), nil
}

// UpdateAccount changes the username and email of the current identity.
// The service reply is authoritative: its fields, and a reissued token if
// any, are merged into the session. Role and ID stay as they were.
func (g *Gateway) UpdateAccount(ctx context.Context, username, email string) (*Identity, error) {
	token := g.store.Token()
	if token == "" {
		return nil, failure(ErrUpdateFailed, "update_account", 0, "Not authenticated", ErrNotAuthenticated)
	}

	payload := AccountUpdatePayload{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
	}
	if err := payload.Validate(); err != nil {
		return nil, invalidInput("update_account", err)
	}

	status, body, err := g.send(ctx, http.MethodPut, "/update-account", updateAccountRequest{
		Username: payload.Username,
		Email:    payload.Email,
	}, token)
	if err != nil {
		return nil, failure(ErrUpdateFailed, "update_account", status, "", err)
	}

	if !isSuccess(status) {
		msg := apiMessage(body)
		return nil, failure(ErrUpdateFailed, "update_account", status, msg, &responseError{
			Operation: "update_account",
			Status:    status,
			Message:   msg,
		})
	}

	var account accountResponse
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, failure(ErrUpdateFailed, "update_account", status, "", err)
	}

	if account.Username == "" || account.Email == "" {
		return nil, failure(ErrUpdateFailed, "update_account", status, "", &responseError{
			Operation: "update_account",
			Status:    status,
			Message:   "incomplete account in update response",
		})
	}

	if err := g.store.UpdateIdentityFields(ctx, AccountFields{
		Username: account.Username,
		Email:    account.Email,
		Token:    account.Token,
	}); err != nil {
		g.logger.Warn("update account: session not persisted: %v", err)
	}

	updated := g.store.Current()
	event := ActivityEvent{
		EventType: ActivityEventAccountUpdated,
		Username:  account.Username,
		Metadata:  map[string]any{"token_reissued": account.Token != ""},
	}
	if updated != nil {
		event.UserID = updated.ID
	}
	recordActivity(ctx, g.activitySink, g.logger, event)

	return updated, nil
}

// Logout clears the session
func (g *Gateway) Logout(ctx context.Context) error {
	current := g.store.Current()
	err := g.store.Clear(ctx)

	event := ActivityEvent{EventType: ActivityEventLogout}
	if current != nil {
		event.Username = current.Username
		event.UserID = current.ID
	}
	recordActivity(ctx, g.activitySink, g.logger, event)

	return err
}

// LoginAsync runs Login in the background
func (g *Gateway) LoginAsync(ctx context.Context, username, password string) *Pending[*Identity] {
	return Async(ctx, func(ctx context.Context) (*Identity, error) {
		return g.Login(ctx, username, password)
	})
}

// UpdateAccountAsync runs UpdateAccount in the background
func (g *Gateway) UpdateAccountAsync(ctx context.Context, username, email string) *Pending[*Identity] {
	return Async(ctx, func(ctx context.Context) (*Identity, error) {
		return g.UpdateAccount(ctx, username, email)
	})
}

func confirmation(body []byte, fallback string) string {
	if msg := apiMessage(body); msg != "" {
		return msg
	}
	return fallback
}
