// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request hardening.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeySubject holds the resolved session subject.
const ContextKeySubject ContextKey = "subject"

// LoadSubject resolves the request's session cookie (admin or guest)
// and stores the subject in the request context. Requests without a
// valid session pass through anonymously.
func LoadSubject(sm *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := sm.Validate(r.Context(), r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject retrieves the session subject from the request context.
func GetSubject(r *http.Request) (model.Subject, bool) {
	subject, ok := r.Context().Value(ContextKeySubject).(model.Subject)
	return subject, ok
}

// RequireAdmin rejects requests whose subject is missing or not an
// admin. It must run after LoadSubject.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := GetSubject(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if subject.Role != model.RoleAdmin {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"subject_role", subject.Role,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GuestWriteGuard blocks mutating methods for guests and anonymous
// visitors. Authorization is enforced here, in one place, rather than
// per handler.
func GuestWriteGuard() func(http.Handler) http.Handler {
	mutating := map[string]bool{
		http.MethodPost:   true,
		http.MethodPut:    true,
		http.MethodPatch:  true,
		http.MethodDelete: true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutating[r.Method] {
				next.ServeHTTP(w, r)
				return
			}

			subject, ok := GetSubject(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if subject.IsGuest() {
				slog.Warn("guest mutation rejected",
					"method", r.Method, "path", r.URL.Path)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
