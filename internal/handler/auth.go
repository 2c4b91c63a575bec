// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/session"
	"github.com/olegiv/folio-go/internal/util"
)

// invalidCredentialsMsg is the single message for every login failure.
// Wrong password, unknown account, and locked account all read the
// same to the caller.
const invalidCredentialsMsg = "Invalid credentials"

// AuthHandler handles login, logout, guest sessions, and validation.
type AuthHandler struct {
	sessions   *session.Manager
	protection *middleware.LoginProtection
	logger     *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *session.Manager, protection *middleware.LoginProtection, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, protection: protection, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	if locked, remaining := h.protection.IsAccountLocked(req.Email); locked {
		h.logger.Warn("login attempt on locked account",
			"email", req.Email, "remaining", remaining, "ip", util.ClientIP(r))
		writeJSONError(w, http.StatusUnauthorized, invalidCredentialsMsg)
		return
	}

	subject, err := h.sessions.Login(r.Context(), w, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			if nowLocked, duration := h.protection.RecordFailedAttempt(req.Email); nowLocked {
				h.logger.Warn("account locked", "email", req.Email, "duration", duration)
			}
			writeJSONError(w, http.StatusUnauthorized, invalidCredentialsMsg)
			return
		}

		h.logger.Error("login failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.protection.RecordSuccessfulLogin(req.Email)
	h.logger.Info("user logged in", "email", subject.Email, "ip", util.ClientIP(r))

	writeJSONSuccess(w, map[string]any{"user": subject})
}

// Guest handles GET /api/auth/guest. It issues an anonymous guest
// session so public visitors get a stable identity.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	// An existing session (admin or guest) is kept as-is.
	if subject, err := h.sessions.Validate(r.Context(), r); err == nil {
		writeJSONSuccess(w, map[string]any{"user": subject})
		return
	}

	subject, err := h.sessions.CreateGuestSession(w)
	if err != nil {
		h.logger.Error("guest session creation failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSONSuccess(w, map[string]any{"user": subject})
}

// Logout handles POST /api/auth/logout. It succeeds regardless of
// session state.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Logout(w)
	writeJSONSuccess(w, nil)
}

// Validate handles GET /api/auth/validate. It reports the current
// subject or 401; expired and malformed tokens are indistinguishable
// from absent ones.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.GetSubject(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "No active session")
		return
	}

	writeJSONSuccess(w, map[string]any{"user": subject})
}
