// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
	"github.com/3ddreamcrafts/dreamcrafts/internal/session"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
	"github.com/3ddreamcrafts/dreamcrafts/internal/testutil"
)

var client = Client{IP: "198.51.100.7", UserAgent: "test-agent"}

type fixture struct {
	db  *sql.DB
	sm  *scs.SessionManager
	mgr *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.TestDB(t)
	sm := session.New(db, true, time.Hour)
	t.Cleanup(func() { session.Close(sm) })

	rec := audit.NewRecorder(db, nil, testutil.TestLoggerSilent())
	mgr := NewManager(db, sm, rec, Config{}, testutil.TestLoggerSilent())
	return &fixture{db: db, sm: sm, mgr: mgr}
}

// newSession returns a context carrying a fresh, empty session.
func (f *fixture) newSession(t *testing.T) context.Context {
	t.Helper()
	ctx, err := f.sm.Load(context.Background(), "")
	require.NoError(t, err)
	return ctx
}

func (f *fixture) countEvents(t *testing.T, typ string) int64 {
	t.Helper()
	n, err := store.New(f.db).CountSecurityLogByType(context.Background(), typ)
	require.NoError(t, err)
	return n
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)

	id, err := f.mgr.CreateUser(ctx, "admin", "correct horse")
	require.NoError(t, err)

	require.NoError(t, f.mgr.Login(ctx, "admin", "correct horse", client))
	assert.True(t, f.mgr.IsAuthenticated(ctx))
	assert.Equal(t, id, f.mgr.UserID(ctx))
	assert.Equal(t, "admin", f.mgr.Username(ctx))

	token := f.sm.GetString(ctx, SessionKeyCSRF)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), token)

	user, err := f.mgr.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, user.LastLogin.Valid, "last_login should be set")

	assert.EqualValues(t, 1, f.countEvents(t, audit.LoginSuccess))
	assert.EqualValues(t, 1, f.countEvents(t, audit.UserCreated))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)
	_, err := f.mgr.CreateUser(ctx, "admin", "correct horse")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "wrong password"},
		{"unknown user", "nobody", "correct horse"},
		{"empty username", "", "correct horse"},
		{"empty password", "admin", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.mgr.Login(ctx, tt.username, tt.password, client)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, ErrInvalidCredentials.Error(), err.Error())
			assert.False(t, f.mgr.IsAuthenticated(ctx))
		})
	}
	assert.EqualValues(t, len(tests), f.countEvents(t, audit.LoginFailure))
}

func TestLoginRateLimit(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)
	_, err := f.mgr.CreateUser(ctx, "admin", "correct horse")
	require.NoError(t, err)

	for i := 0; i < DefaultMaxAttempts; i++ {
		err := f.mgr.Login(ctx, "admin", "nope nope", client)
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i+1)
	}

	err = f.mgr.Login(ctx, "admin", "correct horse", client)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
	assert.False(t, f.mgr.IsAuthenticated(ctx))
	assert.EqualValues(t, 1, f.countEvents(t, audit.LoginBlocked))

	// Another IP is unaffected.
	require.NoError(t, f.mgr.Login(ctx, "admin", "correct horse", Client{IP: "203.0.113.1"}))

	// Failures age out of the window.
	f.mgr.limiter.now = func() time.Time { return time.Now().Add(DefaultWindow + time.Minute) }
	blocked, err := f.mgr.limiter.Blocked(ctx, client.IP)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestLoginClearsFailuresOnSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)
	_, err := f.mgr.CreateUser(ctx, "admin", "correct horse")
	require.NoError(t, err)

	for i := 0; i < DefaultMaxAttempts-1; i++ {
		_ = f.mgr.Login(ctx, "admin", "nope nope", client)
	}
	require.NoError(t, f.mgr.Login(ctx, "admin", "correct horse", client))

	remaining, err := f.mgr.limiter.Remaining(ctx, client.IP)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxAttempts, remaining)
}

func TestLoginRenewsSessionToken(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)
	_, err := f.mgr.CreateUser(ctx, "admin", "correct horse")
	require.NoError(t, err)

	f.sm.Put(ctx, "marker", "x")
	before, _, err := f.sm.Commit(ctx)
	require.NoError(t, err)

	require.NoError(t, f.mgr.Login(ctx, "admin", "correct horse", client))
	after, _, err := f.sm.Commit(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after, "login must issue a new session token")
}

func TestSessionTimeout(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)
	_, err := f.mgr.CreateUser(ctx, "admin", "correct horse")
	require.NoError(t, err)
	require.NoError(t, f.mgr.Login(ctx, "admin", "correct horse", client))

	f.mgr.now = func() time.Time { return time.Now().Add(59 * time.Minute) }
	assert.True(t, f.mgr.IsAuthenticated(ctx))

	f.mgr.now = func() time.Time { return time.Now().Add(DefaultSessionTimeout + time.Second) }
	assert.False(t, f.mgr.IsAuthenticated(ctx))
	assert.Zero(t, f.mgr.UserID(ctx), "expired session should be destroyed")

	_, err = f.mgr.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)
	_, err := f.mgr.CreateUser(ctx, "admin", "correct horse")
	require.NoError(t, err)
	require.NoError(t, f.mgr.Login(ctx, "admin", "correct horse", client))

	require.NoError(t, f.mgr.Logout(ctx, client))
	assert.False(t, f.mgr.IsAuthenticated(ctx))
	assert.Empty(t, f.sm.GetString(ctx, SessionKeyCSRF))
	assert.EqualValues(t, 1, f.countEvents(t, audit.Logout))
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		username string
		password string
		want     error
	}{
		{"", "long enough", ErrInvalidUsername},
		{"has space", "long enough", ErrInvalidUsername},
		{"a/b", "long enough", ErrInvalidUsername},
		{strings.Repeat("a", 51), "long enough", ErrInvalidUsername},
		{"admin", "short", ErrWeakPassword},
		{"admin", "", ErrWeakPassword},
	}
	for _, tt := range tests {
		_, err := f.mgr.CreateUser(ctx, tt.username, tt.password)
		assert.ErrorIs(t, err, tt.want, "CreateUser(%q, %q)", tt.username, tt.password)
	}

	_, err := f.mgr.CreateUser(ctx, "admin.user-1", "long enough")
	require.NoError(t, err)
	_, err = f.mgr.CreateUser(ctx, "admin.user-1", "other password")
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, "user already exists", err.Error())
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.mgr.EnsureAdmin(ctx, "admin", "first password")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.mgr.EnsureAdmin(ctx, "other", "second password")
	require.NoError(t, err)
	assert.False(t, created, "existing admin must not be replaced")

	n, err := store.New(f.db).CountAdminUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)
	id, err := f.mgr.CreateUser(ctx, "admin", "old password")
	require.NoError(t, err)
	require.NoError(t, f.mgr.Login(ctx, "admin", "old password", client))

	assert.ErrorIs(t, f.mgr.ChangePassword(ctx, id, "short"), ErrWeakPassword)
	require.NoError(t, f.mgr.ChangePassword(ctx, id, "new password"))
	assert.True(t, f.mgr.IsAuthenticated(ctx), "current session stays valid")

	ok, err := f.mgr.CheckUserPassword(ctx, id, "new password")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.mgr.CheckUserPassword(ctx, id, "old password")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, errors.Is(f.mgr.ChangePassword(ctx, 9999, "new password"), store.ErrNotFound))
	assert.True(t, errors.Is(f.mgr.ChangePasswordByUsername(ctx, "ghost", "new password"), store.ErrNotFound))
	require.NoError(t, f.mgr.ChangePasswordByUsername(ctx, "admin", "third password"))
	assert.EqualValues(t, 2, f.countEvents(t, audit.PasswordChanged))
}

func TestLoginRehashesLegacyHash(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)
	q := store.New(f.db)

	legacy := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"
	user, err := q.CreateAdminUser(ctx, store.CreateAdminUserParams{
		Username: "legacy", PasswordHash: legacy, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, f.mgr.Login(ctx, "legacy", "changeme", client))

	updated, err := q.GetAdminUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, legacy, updated.PasswordHash)
	assert.False(t, NeedsRehash(updated.PasswordHash))
}

func TestCSRFToken(t *testing.T) {
	f := newFixture(t)
	ctx := f.newSession(t)

	assert.False(t, f.mgr.ValidCSRF(ctx, ""), "no token yet")

	token := f.mgr.CSRFToken(ctx)
	assert.Len(t, token, 64)
	assert.Equal(t, token, f.mgr.CSRFToken(ctx), "one token per session")

	assert.True(t, f.mgr.ValidCSRF(ctx, token))
	assert.True(t, f.mgr.ValidCSRF(ctx, token), "tokens are reusable within the session")
	assert.False(t, f.mgr.ValidCSRF(ctx, ""))
	assert.False(t, f.mgr.ValidCSRF(ctx, token[:63]))
	assert.False(t, f.mgr.ValidCSRF(ctx, token+"0"))

	other := f.newSession(t)
	assert.NotEqual(t, token, f.mgr.CSRFToken(other))
	assert.False(t, f.mgr.ValidCSRF(other, token))
}

func TestRateLimiterPrune(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.mgr.Limiter()

	old := time.Now().Add(-48 * time.Hour)
	l.now = func() time.Time { return old }
	require.NoError(t, l.Record(ctx, "1.1.1.1", "a", false))
	l.now = time.Now
	require.NoError(t, l.Record(ctx, "1.1.1.1", "a", false))

	n, err := l.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	remaining, err := l.Remaining(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxAttempts-1, remaining)
}
