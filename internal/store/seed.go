// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
)

// Default admin credentials, only created when seeding is enabled.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin123"
	DefaultAdminName     = "Administrator"
)

// Seed creates the default admin user when seeding is enabled and no
// admin exists yet. The password must be changed after first login.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		return nil
	}

	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Name:         DefaultAdminName,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user", "id", user.ID, "email", user.Email)
	return nil
}
