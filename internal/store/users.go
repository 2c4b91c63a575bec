// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/folio-go/internal/model"
)

// Queries wraps a database handle with typed query methods.
type Queries struct {
	db *sql.DB
}

// New creates a Queries instance for the given database.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const userColumns = "id, email, password_hash, role, name, created_at, updated_at, last_login_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

// GetUserByID fetches a user by ID. Returns sql.ErrNoRows if absent.
func (q *Queries) GetUserByID(ctx context.Context, id string) (model.User, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email. Returns sql.ErrNoRows if absent.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// CreateUserParams holds the fields for creating a user.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	Name         string
}

// CreateUser inserts a new user with a generated opaque ID.
func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (model.User, error) {
	now := time.Now()
	u := model.User{
		ID:           uuid.NewString(),
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		Name:         p.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.Role, u.Name, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}

	return u, nil
}

// UpdateUserLastLogin records the most recent successful login time.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE users SET last_login_at = ? WHERE id = ?", at, id)
	return err
}

// DeleteUser removes a user. Sessions backed by the removed account stop
// validating on the next check even if their token has not expired yet.
func (q *Queries) DeleteUser(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return err
}
