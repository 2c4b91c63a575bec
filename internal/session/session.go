// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session bridges signed tokens and HTTP cookies. It issues
// admin sessions after credential verification, anonymous guest
// sessions for public visitors, and validates either kind on request.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/token"
)

const (
	// SessionCookie holds the token for authenticated users.
	SessionCookie = "session"
	// GuestCookie holds the token for anonymous visitors.
	GuestCookie = "guest-token"

	// SessionTTL is the lifetime of an authenticated session.
	SessionTTL = 24 * time.Hour
	// GuestTTL is the lifetime of a guest session.
	GuestTTL = 7 * 24 * time.Hour
)

var (
	// ErrInvalidCredentials is returned for any login failure. It is
	// deliberately generic so responses cannot be used to enumerate
	// accounts.
	ErrInvalidCredentials = errors.New("session: invalid credentials")

	// ErrNoSession is returned when a request carries no usable session.
	ErrNoSession = errors.New("session: no active session")
)

// Manager issues and validates cookie-backed sessions.
type Manager struct {
	codec   *token.Codec
	queries *store.Queries
	secure  bool
}

// NewManager creates a session manager. secure controls the Secure
// cookie attribute and should be true outside development.
func NewManager(codec *token.Codec, queries *store.Queries, secure bool) *Manager {
	return &Manager{codec: codec, queries: queries, secure: secure}
}

// Login verifies credentials and, on success, sets the session cookie
// and clears any guest cookie. Every failure path returns
// ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, email, password string) (model.Subject, error) {
	user, err := m.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn comparable time so missing accounts are not
			// distinguishable from wrong passwords.
			_, _ = auth.CheckPassword(password, auth.DummyHash)
			return model.Subject{}, ErrInvalidCredentials
		}
		return model.Subject{}, fmt.Errorf("session: lookup user: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return model.Subject{}, ErrInvalidCredentials
	}

	subject := model.Subject{ID: user.ID, Email: user.Email, Role: user.Role}

	signed, err := m.codec.Issue(subject, SessionTTL)
	if err != nil {
		return model.Subject{}, fmt.Errorf("session: issue token: %w", err)
	}

	if err := m.queries.UpdateUserLastLogin(ctx, user.ID, time.Now()); err != nil {
		return model.Subject{}, fmt.Errorf("session: update last login: %w", err)
	}

	m.setCookie(w, SessionCookie, signed, SessionTTL)
	m.clearCookie(w, GuestCookie)

	return subject, nil
}

// CreateGuestSession issues an anonymous guest token and sets the
// guest cookie. Guests exist only inside the token; nothing is stored.
func (m *Manager) CreateGuestSession(w http.ResponseWriter) (model.Subject, error) {
	id := uuid.NewString()
	subject := model.Subject{
		ID:    id,
		Email: fmt.Sprintf("guest-%s@visitor.local", id[:8]),
		Role:  model.RoleGuest,
	}

	signed, err := m.codec.Issue(subject, GuestTTL)
	if err != nil {
		return model.Subject{}, fmt.Errorf("session: issue guest token: %w", err)
	}

	m.setCookie(w, GuestCookie, signed, GuestTTL)

	return subject, nil
}

// Validate resolves the subject for a request. The session cookie is
// consulted before the guest cookie, so a logged-in user with a stale
// guest token keeps their authenticated identity.
func (m *Manager) Validate(ctx context.Context, r *http.Request) (model.Subject, error) {
	for _, name := range []string{SessionCookie, GuestCookie} {
		cookie, err := r.Cookie(name)
		if err != nil || cookie.Value == "" {
			continue
		}

		subject, err := m.codec.Verify(cookie.Value)
		if err != nil {
			continue
		}

		// Non-guest tokens must still correspond to a live account.
		if !subject.IsGuest() {
			if _, err := m.queries.GetUserByID(ctx, subject.ID); err != nil {
				continue
			}
		}

		return subject, nil
	}

	return model.Subject{}, ErrNoSession
}

// Logout expires both cookies. It succeeds even without a session.
func (m *Manager) Logout(w http.ResponseWriter) {
	m.clearCookie(w, SessionCookie)
	m.clearCookie(w, GuestCookie)
}

func (m *Manager) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
