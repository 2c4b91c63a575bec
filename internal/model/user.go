// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including User, Post, Visit, and analytics structures.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleGuest = "guest"
)

// User represents a site user. Guests have no backing User record.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Role         string       `json:"role"`
	Name         string       `json:"name"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Subject is the identity carried inside a signed session token.
// A valid token always carries a non-empty ID, Email, and Role.
type Subject struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsGuest returns true for anonymous guest subjects.
func (s Subject) IsGuest() bool {
	return s.Role == RoleGuest
}
