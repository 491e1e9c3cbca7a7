package authclient

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the user's role as issued by the auth service
type Role string

const (
	// RoleUser can browse the catalog
	RoleUser Role = "USER"
	// RoleEmployee can browse and manage catalog entries
	RoleEmployee Role = "EMPLOYEE"
	// RoleAdmin can manage catalog entries and user accounts
	RoleAdmin Role = "ADMIN"
)

// IsValid checks if the role is one of the predefined roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleEmployee, RoleAdmin:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{
		RoleUser,
		RoleEmployee,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a Role, ignoring case
func ParseRole(roleStr string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(roleStr)))
	return role, role.IsValid()
}

// Identity is the authenticated user held by the session store.
// The JSON shape matches the login response of the auth service.
type Identity struct {
	Token    string `json:"token"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// AccountFields are the identity fields a user may change.
// Token is only set when the service reissued one.
type AccountFields struct {
	Username string
	Email    string
	Token    string
}

// Clone returns a copy that callers may keep or mutate freely.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// valid reports whether a restored identity is usable.
func (i *Identity) valid() bool {
	if i == nil {
		return false
	}
	return strings.TrimSpace(i.Username) != "" && i.Token != "" && i.Role.IsValid()
}

// TokenExpiry reads the exp claim of the identity token without verifying
// the signature. It is informational: the client never trusts it for
// authorization.
func (i *Identity) TokenExpiry() (time.Time, bool) {
	if i == nil || i.Token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(i.Token, &claims); err != nil {
		return time.Time{}, false
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}

// Initials returns the first two characters of the username, upper cased
func (i *Identity) Initials() string {
	if i == nil {
		return ""
	}
	r := []rune(i.Username)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

func decodeIdentity(raw string) (*Identity, error) {
	identity := &Identity{}
	if err := json.Unmarshal([]byte(raw), identity); err != nil {
		return nil, err
	}
	if role, ok := ParseRole(string(identity.Role)); ok {
		identity.Role = role
	}
	return identity, nil
}

func encodeIdentity(identity *Identity) (string, error) {
	b, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
