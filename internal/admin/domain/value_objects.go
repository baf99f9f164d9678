package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
	StatusFlagged  Status = "flagged"
)

// Statuses lists review states in display order.
var Statuses = []Status{StatusPending, StatusVerified, StatusRejected, StatusFlagged}

func NewStatus(value string) (Status, error) {
	trimmed := Status(strings.ToLower(strings.TrimSpace(value)))
	if trimmed == "" {
		return "", fmt.Errorf("status is required")
	}
	for _, allowed := range Statuses {
		if allowed == trimmed {
			return trimmed, nil
		}
	}
	return "", fmt.Errorf("invalid status: %s", value)
}

// Final reports whether the status is a review decision that records reviewer and time.
func (s Status) Final() bool {
	return s == StatusVerified || s == StatusRejected
}

func (s Status) String() string {
	return string(s)
}

type Role string

const (
	RoleViewer   Role = "viewer"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer:   1,
	RoleReviewer: 2,
	RoleAdmin:    3,
}

func NewRole(value string) (Role, error) {
	trimmed := Role(strings.ToLower(strings.TrimSpace(value)))
	if trimmed == "" {
		return "", fmt.Errorf("role is required")
	}
	if _, ok := roleRank[trimmed]; !ok {
		return "", fmt.Errorf("invalid role: %s", value)
	}
	return trimmed, nil
}

// Allows reports whether r carries at least the permissions of required.
func (r Role) Allows(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[required]
}

func (r Role) String() string {
	return string(r)
}

type Email string

// NewEmail validates and lowercases an address. Empty input yields an empty Email.
func NewEmail(value string) (Email, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) > 254 {
		return "", fmt.Errorf("email too long")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid email: %w", err)
	}
	if addr.Address != trimmed {
		return "", fmt.Errorf("invalid email: %s", trimmed)
	}
	return Email(strings.ToLower(trimmed)), nil
}

func (e Email) String() string {
	return string(e)
}

const MinPasswordLength = 8

type Password string

func NewPassword(value string) (Password, error) {
	if utf8.RuneCountInString(value) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(value) > 72 {
		return "", fmt.Errorf("password must be at most 72 bytes")
	}
	return Password(value), nil
}

func (p Password) String() string {
	return string(p)
}
