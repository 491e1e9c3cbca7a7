package authclient

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAuthenticationFailed    = "AUTHENTICATION_FAILED"
	TextCodeRegistrationFailed      = "REGISTRATION_FAILED"
	TextCodeResetFailed             = "RESET_FAILED"
	TextCodeUpdateFailed            = "UPDATE_FAILED"
	TextCodeReauthFailed            = "REAUTH_FAILED"
	TextCodeReauthRequired          = "REAUTH_REQUIRED"
	TextCodeNotAuthenticated        = "NOT_AUTHENTICATED"
	TextCodeNoChanges               = "NO_CHANGES"
	TextCodeInvalidInput            = "INVALID_INPUT"
	TextCodeInvalidReauthTransition = "INVALID_REAUTH_TRANSITION"
)

// ErrAuthenticationFailed covers bad credentials and an unreachable
// service alike, the client can not tell them apart.
var ErrAuthenticationFailed = goerrors.New("authentication failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrRegistrationFailed is returned when the service rejects a registration
var ErrRegistrationFailed = goerrors.New("registration failed", goerrors.CategoryBadInput).
	WithTextCode(TextCodeRegistrationFailed).
	WithCode(goerrors.CodeBadRequest)

// ErrResetFailed is returned when a password reset is rejected
var ErrResetFailed = goerrors.New("password reset failed", goerrors.CategoryBadInput).
	WithTextCode(TextCodeResetFailed).
	WithCode(goerrors.CodeBadRequest)

// ErrUpdateFailed is returned when an account update is rejected
var ErrUpdateFailed = goerrors.New("account update failed", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUpdateFailed).
	WithCode(goerrors.CodeBadRequest)

// ErrReauthFailed is returned when the password verification probe is rejected
var ErrReauthFailed = goerrors.New("incorrect password, please try again", goerrors.CategoryAuth).
	WithTextCode(TextCodeReauthFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrReauthRequired is returned when a sensitive change is attempted before
// the password was verified
var ErrReauthRequired = goerrors.New("please verify your password first", goerrors.CategoryAuthz).
	WithTextCode(TextCodeReauthRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrNotAuthenticated is returned when an operation needs a current identity
var ErrNotAuthenticated = goerrors.New("not authenticated", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoChanges is returned when an update would not change anything
var ErrNoChanges = goerrors.New("no changes detected", goerrors.CategoryValidation).
	WithTextCode(TextCodeNoChanges).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidInput is returned when client side validation fails, no request
// is sent in that case
var ErrInvalidInput = goerrors.New("please fix the validation errors before submitting", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidReauthTransition is returned for a transition the reauth state
// machine does not allow
var ErrInvalidReauthTransition = goerrors.New("invalid re-authentication transition", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidReauthTransition).
	WithCode(goerrors.CodeBadRequest)

// failure clones base and attaches the operation details. When the service
// supplied a reason it becomes part of the message.
func failure(base *goerrors.Error, operation string, status int, reason string, cause error) error {
	clone := base.Clone()
	if clone == nil {
		clone = base
	}

	if cause != nil {
		clone.Source = cause
	}

	meta := map[string]any{}
	if operation != "" {
		meta["operation"] = operation
	}
	if status != 0 {
		meta["status"] = status
	}
	if reason != "" {
		meta["reason"] = reason
		clone.Message = reason
	}

	if len(meta) > 0 {
		clone.WithMetadata(meta)
	}

	return clone
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsAuthenticationFailed checks for ErrAuthenticationFailed
func IsAuthenticationFailed(err error) bool {
	return hasTextCode(err, TextCodeAuthenticationFailed)
}

// IsRegistrationFailed checks for ErrRegistrationFailed
func IsRegistrationFailed(err error) bool {
	return hasTextCode(err, TextCodeRegistrationFailed)
}

// IsResetFailed checks for ErrResetFailed
func IsResetFailed(err error) bool {
	return hasTextCode(err, TextCodeResetFailed)
}

// IsUpdateFailed checks for ErrUpdateFailed
func IsUpdateFailed(err error) bool {
	return hasTextCode(err, TextCodeUpdateFailed)
}

// IsReauthFailed checks for ErrReauthFailed
func IsReauthFailed(err error) bool {
	return hasTextCode(err, TextCodeReauthFailed)
}

// IsReauthRequired checks for ErrReauthRequired
func IsReauthRequired(err error) bool {
	return hasTextCode(err, TextCodeReauthRequired)
}

// IsNotAuthenticated checks for ErrNotAuthenticated
func IsNotAuthenticated(err error) bool {
	return hasTextCode(err, TextCodeNotAuthenticated)
}

// IsNoChanges checks for ErrNoChanges
func IsNoChanges(err error) bool {
	return hasTextCode(err, TextCodeNoChanges)
}

// IsInvalidInput checks for ErrInvalidInput
func IsInvalidInput(err error) bool {
	return hasTextCode(err, TextCodeInvalidInput)
}

// FailureReason returns the human readable message to show on the
// originating screen.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if reason, ok := richErr.Metadata["reason"].(string); ok && reason != "" {
			return reason
		}
		return richErr.Message
	}
	return err.Error()
}

// FieldErrors returns the per field validation messages carried by an
// ErrInvalidInput error.
func FieldErrors(err error) map[string]string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != TextCodeInvalidInput {
		return nil
	}
	fields, _ := richErr.Metadata["fields"].(map[string]string)
	return fields
}
