// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/session"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv bundles the collaborators most handler tests need.
type testEnv struct {
	db       *sql.DB
	queries  *store.Queries
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	queries := store.New(db)
	return &testEnv{
		db:       db,
		queries:  queries,
		sessions: session.NewManager(token.NewCodec([]byte(testSecret)), queries, false),
	}
}

// asAdmin injects an admin subject into the request context, the way
// LoadSubject would after validating a cookie.
func asAdmin(r *http.Request) *http.Request {
	subject := model.Subject{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin}
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeySubject, subject))
}

// asGuest injects a guest subject, as a guest-token cookie would yield.
func asGuest(r *http.Request) *http.Request {
	subject := model.Subject{ID: "guest-1", Email: "guest-abc12345@visitor.local", Role: model.RoleGuest}
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeySubject, subject))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
