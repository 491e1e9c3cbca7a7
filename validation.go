package authclient

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	passwordMinLength = 5
	passwordMaxLength = 9
)

var passwordSpecialChars = regexp.MustCompile("[!@#$%^&*()_+\\-=\\[\\]{};':\"\\\\|,.<>/?~`]")

// RegistrationPayload is the register form
type RegistrationPayload struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate will validate the payload
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.By(ValidateUsername)),
		validation.Field(&r.Email, validation.By(ValidateEmail)),
		validation.Field(&r.Password, validation.By(ValidatePassword)),
		validation.Field(&r.ConfirmPassword, validation.By(ValidateConfirmation(r.Password))),
	)
}

// PasswordResetPayload is the reset password form
type PasswordResetPayload struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// Validate will validate the payload
func (r PasswordResetPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.By(ValidateEmail)),
		validation.Field(&r.NewPassword, validation.By(ValidatePassword)),
	)
}

// AccountUpdatePayload is the account settings form
type AccountUpdatePayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Validate will validate the payload
func (r AccountUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.By(ValidateUsername)),
		validation.Field(&r.Email, validation.By(ValidateEmail)),
	)
}

// PasswordChangePayload is the change password form
type PasswordChangePayload struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate will validate the payload
func (r PasswordChangePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.By(ValidatePassword)),
		validation.Field(&r.ConfirmPassword, validation.By(ValidateConfirmation(r.NewPassword))),
	)
}

// ValidateUsername requires a non blank username
func ValidateUsername(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("Username is required")
	}
	return nil
}

// ValidateEmail requires an address with an @
func ValidateEmail(value any) error {
	s, _ := value.(string)
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return errors.New("Email is required")
	case !strings.Contains(s, "@"):
		return errors.New("Email must contain @ symbol")
	}
	return nil
}

// ValidatePassword applies the password policy: 5 to 9 characters with at
// least one special character.
func ValidatePassword(value any) error {
	s, _ := value.(string)
	n := len([]rune(s))
	switch {
	case s == "":
		return errors.New("Password is required")
	case n < passwordMinLength:
		return errors.New("Password must be at least 5 characters")
	case n > passwordMaxLength:
		return errors.New("Password must be at most 9 characters")
	case !passwordSpecialChars.MatchString(s):
		return errors.New("Password must contain at least one special character")
	}
	return nil
}

// ValidateConfirmation checks the confirmation matches password
func ValidateConfirmation(password string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return errors.New("Please confirm your password")
		}
		if s != password {
			return errors.New("Passwords do not match")
		}
		return nil
	}
}

// invalidInput turns a validation result into ErrInvalidInput carrying the
// per field messages.
func invalidInput(operation string, err error) error {
	if err == nil {
		return nil
	}

	fields := map[string]string{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for name, ferr := range verrs {
			if ferr != nil {
				fields[name] = ferr.Error()
			}
		}
	} else {
		fields["form"] = err.Error()
	}

	clone := ErrInvalidInput.Clone()
	if clone == nil {
		clone = ErrInvalidInput
	}
	clone.Source = err
	clone.WithMetadata(map[string]any{
		"operation": operation,
		"fields":    fields,
	})
	return clone
}
