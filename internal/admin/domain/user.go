package domain

import "time"

// User is a staff account with access to the admin API.
type User struct {
	ID           string
	Email        Email
	Name         string
	PasswordHash string
	Role         Role
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
