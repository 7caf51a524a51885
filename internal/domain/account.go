package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role controls what an authenticated account may do. Viewers read,
// admins mutate.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Account is a console login. The failed-attempt counter and lock
// timestamp drive the brute-force lockout state machine.
type Account struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	Role           Role       `json:"role"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Locked reports whether the account is under an active lockout at the
// given instant. An elapsed lock no longer blocks authentication.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// Principal is the request-scoped identity extracted from a verified
// session credential.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the principal satisfies the admin role.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateUsername enforces the 3-50 character alphanumeric (plus
// underscore and hyphen) username rule and returns the trimmed value.
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 50 {
		return "", Validation("username", "must be 3-50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return "", Validation("username", "may only contain letters, numbers, underscores, and hyphens")
	}
	return username, nil
}

// ValidatePassword enforces length limits and requires at least three of
// four character classes (upper, lower, digit, special).
func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 128 {
		return Validation("password", "must be 8-128 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(`!@#$%^&*(),.?":{}|<>`, r):
			hasSpecial = true
		}
	}

	strength := 0
	for _, ok := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if ok {
			strength++
		}
	}
	if strength < 3 {
		return Validation("password", "must contain at least 3 of: uppercase, lowercase, numbers, special characters")
	}
	return nil
}

// ValidateRole checks that role is one of the two known roles.
func ValidateRole(role string) (Role, error) {
	switch Role(role) {
	case RoleAdmin, RoleViewer:
		return Role(role), nil
	default:
		return "", Validation("role", "must be admin or viewer")
	}
}
