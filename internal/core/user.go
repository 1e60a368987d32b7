package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

type (
	// PasswordChange tracks password lifecycle state for a user: when the
	// password last changed and any pending reset token. The token is stored
	// only as a one-way digest; the plaintext is returned once to the caller
	// and never persisted.
	PasswordChange struct {
		ChangedAt           *time.Time
		ResetTokenDigest    string
		ResetTokenExpiresAt *time.Time
	}

	// User is the owning aggregate: credentials, the chart of accounts and
	// categories, and password-change state.
	User struct {
		ID             string
		Name           string
		Email          string
		PasswordHash   string
		Chart          Chart
		PasswordChange PasswordChange
		CreatedAt      time.Time
	}
)

var (
	ErrNameLength  = errors.New("name must be between 5 and 40 characters")
	ErrNameCharset = errors.New("name can contain only alphanumeric characters, spaces, dots, and dashes")
	ErrEmailFormat = errors.New("email address is not valid")
)

// HasPendingReset reports whether a reset token is currently stored,
// regardless of expiry.
func (pc PasswordChange) HasPendingReset() bool {
	return pc.ResetTokenDigest != "" && pc.ResetTokenExpiresAt != nil
}

// ClearReset drops any pending reset token state.
func (pc *PasswordChange) ClearReset() {
	pc.ResetTokenDigest = ""
	pc.ResetTokenExpiresAt = nil
}

// Validate enforces the user's own invariants: name shape, email shape, and
// a well-formed chart.
func (u User) Validate() error {
	name := strings.TrimSpace(u.Name)
	if len(name) < 5 || len(name) > 40 {
		return ErrNameLength
	}
	for _, r := range name {
		if !isNameRune(r) {
			return ErrNameCharset
		}
	}
	if !validEmail(u.Email) {
		return ErrEmailFormat
	}
	return u.Chart.Validate()
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '.', r == '-':
		return true
	}
	return false
}

// validEmail accepts a bare RFC 5322 address. Display-name forms
// ("Mario <m@example.com>") are rejected, and the domain must be dotted.
func validEmail(email string) bool {
	if email == "" || len(email) > 100 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	domain := email[strings.LastIndexByte(email, '@')+1:]
	return strings.Contains(domain, ".")
}
