// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) (*Manager, *store.Queries) {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	queries := store.New(db)
	return NewManager(token.NewCodec([]byte(testSecret)), queries, false), queries
}

func createTestUser(t *testing.T, queries *store.Queries, email, password string) model.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := queries.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Name:         "Test Admin",
	})
	require.NoError(t, err)
	return user
}

func cookieByName(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_Success(t *testing.T) {
	mgr, queries := newTestManager(t)
	createTestUser(t, queries, "admin@example.com", "correct horse battery staple")

	w := httptest.NewRecorder()
	subject, err := mgr.Login(context.Background(), w, "admin@example.com", "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, subject.Role)

	cookie := cookieByName(t, w, SessionCookie)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, "/", cookie.Path)

	// Guest cookie is cleared on login.
	guest := cookieByName(t, w, GuestCookie)
	require.NotNil(t, guest)
	require.Empty(t, guest.Value)
	require.Negative(t, guest.MaxAge)
}

func TestLogin_WrongPassword(t *testing.T) {
	mgr, queries := newTestManager(t)
	createTestUser(t, queries, "admin@example.com", "right-password-here-ok")

	_, err := mgr.Login(context.Background(), httptest.NewRecorder(), "admin@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.Login(context.Background(), httptest.NewRecorder(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGuestSession(t *testing.T) {
	mgr, _ := newTestManager(t)

	w := httptest.NewRecorder()
	subject, err := mgr.CreateGuestSession(w)
	require.NoError(t, err)
	require.Equal(t, model.RoleGuest, subject.Role)
	require.True(t, subject.IsGuest())

	cookie := cookieByName(t, w, GuestCookie)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.Equal(t, int(GuestTTL.Seconds()), cookie.MaxAge)
}

func TestValidate_RoundTrip(t *testing.T) {
	mgr, queries := newTestManager(t)
	createTestUser(t, queries, "admin@example.com", "correct horse battery staple")

	w := httptest.NewRecorder()
	subject, err := mgr.Login(context.Background(), w, "admin@example.com", "correct horse battery staple")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/auth/validate", nil)
	r.AddCookie(cookieByName(t, w, SessionCookie))

	got, err := mgr.Validate(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, subject, got)
}

func TestValidate_GuestCookie(t *testing.T) {
	mgr, _ := newTestManager(t)

	w := httptest.NewRecorder()
	subject, err := mgr.CreateGuestSession(w)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookieByName(t, w, GuestCookie))

	got, err := mgr.Validate(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, subject.ID, got.ID)
	require.True(t, got.IsGuest())
}

func TestValidate_SessionBeatsGuest(t *testing.T) {
	mgr, queries := newTestManager(t)
	createTestUser(t, queries, "admin@example.com", "correct horse battery staple")

	guestW := httptest.NewRecorder()
	_, err := mgr.CreateGuestSession(guestW)
	require.NoError(t, err)

	loginW := httptest.NewRecorder()
	subject, err := mgr.Login(context.Background(), loginW, "admin@example.com", "correct horse battery staple")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookieByName(t, guestW, GuestCookie))
	r.AddCookie(cookieByName(t, loginW, SessionCookie))

	got, err := mgr.Validate(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, subject.ID, got.ID)
	require.Equal(t, model.RoleAdmin, got.Role)
}

func TestValidate_DeletedUserRejected(t *testing.T) {
	mgr, queries := newTestManager(t)
	user := createTestUser(t, queries, "admin@example.com", "correct horse battery staple")

	w := httptest.NewRecorder()
	_, err := mgr.Login(context.Background(), w, "admin@example.com", "correct horse battery staple")
	require.NoError(t, err)

	require.NoError(t, queries.DeleteUser(context.Background(), user.ID))

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookieByName(t, w, SessionCookie))

	_, err = mgr.Validate(context.Background(), r)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestValidate_NoCookies(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.Validate(context.Background(), httptest.NewRequest("GET", "/", nil))
	require.ErrorIs(t, err, ErrNoSession)
}

func TestValidate_TamperedToken(t *testing.T) {
	mgr, _ := newTestManager(t)

	w := httptest.NewRecorder()
	_, err := mgr.CreateGuestSession(w)
	require.NoError(t, err)

	cookie := cookieByName(t, w, GuestCookie)
	cookie.Value += "tampered"

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)

	_, err = mgr.Validate(context.Background(), r)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestLogout(t *testing.T) {
	mgr, _ := newTestManager(t)

	w := httptest.NewRecorder()
	mgr.Logout(w)

	for _, name := range []string{SessionCookie, GuestCookie} {
		cookie := cookieByName(t, w, name)
		require.NotNil(t, cookie)
		require.Empty(t, cookie.Value)
		require.Negative(t, cookie.MaxAge)
	}
}
