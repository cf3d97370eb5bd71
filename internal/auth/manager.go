// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/alexedwards/scs/v2"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
)

// Errors returned by Manager.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidUsername    = errors.New("username must be 1-50 letters, digits, '.', '_' or '-'")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Session keys.
const (
	SessionKeyUserID    = "user_id"
	SessionKeyUsername  = "username"
	SessionKeyCSRF      = "csrf_token"
	SessionKeyLoginTime = "login_time"
	SessionKeyFlash     = "flash"
)

const (
	// DefaultSessionTimeout bounds how long a login stays valid.
	DefaultSessionTimeout = time.Hour
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8

	csrfTokenBytes = 32
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,50}$`)

// Client identifies the caller of a login or logout.
type Client struct {
	IP        string
	UserAgent string
}

// Config tunes a Manager.
type Config struct {
	SessionTimeout time.Duration
	MaxAttempts    int
	Window         time.Duration
}

// Manager authenticates the site's admin users against admin_users and keeps
// the login state in the scs session.
type Manager struct {
	sessions *scs.SessionManager
	queries  *store.Queries
	limiter  *RateLimiter
	audit    *audit.Recorder
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewManager creates a Manager. rec may be nil.
func NewManager(db *sql.DB, sm *scs.SessionManager, rec *audit.Recorder, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	return &Manager{
		sessions: sm,
		queries:  store.New(db),
		limiter:  NewRateLimiter(db, cfg.MaxAttempts, cfg.Window),
		audit:    rec,
		logger:   logger,
		timeout:  cfg.SessionTimeout,
		now:      time.Now,
	}
}

// Limiter returns the manager's login rate limiter.
func (m *Manager) Limiter() *RateLimiter { return m.limiter }

// Sessions returns the underlying session manager.
func (m *Manager) Sessions() *scs.SessionManager { return m.sessions }

// Login checks the credentials and, on success, starts an authenticated
// session in ctx. Every credential failure is ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, username, password string, c Client) error {
	username = strings.TrimSpace(username)

	blocked, err := m.limiter.Blocked(ctx, c.IP)
	if err != nil {
		return err
	}
	if blocked {
		m.record(ctx, audit.LoginBlocked, username, c, nil)
		m.logger.Info("login blocked", "ip", c.IP, "username", username)
		return ErrTooManyAttempts
	}

	user, ok := m.verify(ctx, username, password)
	if !ok {
		if err := m.limiter.Record(ctx, c.IP, username, false); err != nil {
			m.logger.Error("recording failed login", "error", err)
		}
		m.record(ctx, audit.LoginFailure, username, c, nil)
		m.logger.Info("login failed", "ip", c.IP, "username", username)
		return ErrInvalidCredentials
	}

	if err := m.sessions.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	token, err := newCSRFToken()
	if err != nil {
		return err
	}
	now := m.now().UTC()
	m.sessions.Put(ctx, SessionKeyUserID, user.ID)
	m.sessions.Put(ctx, SessionKeyUsername, user.Username)
	m.sessions.Put(ctx, SessionKeyCSRF, token)
	m.sessions.Put(ctx, SessionKeyLoginTime, now.Unix())

	if err := m.queries.UpdateAdminUserLastLogin(ctx, store.UpdateAdminUserLastLoginParams{
		LastLogin: sql.NullTime{Time: now, Valid: true},
		ID:        user.ID,
	}); err != nil {
		m.logger.Error("updating last login", "user_id", user.ID, "error", err)
	}
	if err := m.limiter.Clear(ctx, c.IP); err != nil {
		m.logger.Error("clearing failed logins", "error", err)
	}
	if err := m.limiter.Record(ctx, c.IP, user.Username, true); err != nil {
		m.logger.Error("recording login", "error", err)
	}
	m.rehash(ctx, user, password)
	m.record(ctx, audit.LoginSuccess, user.Username, c, nil)
	m.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return nil
}

// verify looks up username and checks password. Unknown users still cost a
// hash computation.
func (m *Manager) verify(ctx context.Context, username, password string) (store.AdminUser, bool) {
	if username == "" || password == "" {
		return store.AdminUser{}, false
	}

	user, err := m.queries.GetAdminUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			m.logger.Error("loading admin user", "error", err)
		}
		_, _ = CheckPassword(password, m.dummy())
		return store.AdminUser{}, false
	}

	ok, err := CheckPassword(password, user.PasswordHash)
	if err != nil {
		m.logger.Error("checking password hash", "user_id", user.ID, "error", err)
		return store.AdminUser{}, false
	}
	return user, ok
}

func (m *Manager) dummy() string {
	m.dummyOnce.Do(func() {
		m.dummyHash, _ = HashPassword("dreamcrafts-placeholder")
	})
	return m.dummyHash
}

// rehash upgrades a hash created with older argon2 parameters.
func (m *Manager) rehash(ctx context.Context, user store.AdminUser, password string) {
	if !NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := HashPassword(password)
	if err != nil {
		m.logger.Error("rehashing password", "user_id", user.ID, "error", err)
		return
	}
	if _, err := m.queries.UpdateAdminUserPassword(ctx, store.UpdateAdminUserPasswordParams{
		PasswordHash: hash,
		ID:           user.ID,
	}); err != nil {
		m.logger.Error("saving rehashed password", "user_id", user.ID, "error", err)
	}
}

// IsAuthenticated reports whether ctx carries a live login. Sessions older
// than the timeout are destroyed.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	if m.sessions.GetInt64(ctx, SessionKeyUserID) == 0 {
		return false
	}
	loginTime := time.Unix(m.sessions.GetInt64(ctx, SessionKeyLoginTime), 0)
	if m.now().Sub(loginTime) >= m.timeout {
		if err := m.sessions.Destroy(ctx); err != nil {
			m.logger.Error("destroying expired session", "error", err)
		}
		return false
	}
	return true
}

// UserID returns the logged in user's id or 0.
func (m *Manager) UserID(ctx context.Context) int64 {
	return m.sessions.GetInt64(ctx, SessionKeyUserID)
}

// Username returns the logged in user's name or "".
func (m *Manager) Username(ctx context.Context) string {
	return m.sessions.GetString(ctx, SessionKeyUsername)
}

// CurrentUser loads the logged in user.
func (m *Manager) CurrentUser(ctx context.Context) (*store.AdminUser, error) {
	if !m.IsAuthenticated(ctx) {
		return nil, ErrNotAuthenticated
	}
	user, err := m.queries.GetAdminUserByID(ctx, m.UserID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("loading current user: %w", err)
	}
	return &user, nil
}

// Logout destroys the session.
func (m *Manager) Logout(ctx context.Context, c Client) error {
	username := m.Username(ctx)
	if err := m.sessions.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	if username != "" {
		m.record(ctx, audit.Logout, username, c, nil)
	}
	return nil
}

// CreateUser adds an admin user and returns its id.
func (m *Manager) CreateUser(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return 0, ErrInvalidUsername
	}
	if err := checkPasswordStrength(password); err != nil {
		return 0, err
	}

	if _, err := m.queries.GetAdminUserByUsername(ctx, username); err == nil {
		return 0, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("checking username: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}
	user, err := m.queries.CreateAdminUser(ctx, store.CreateAdminUserParams{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    m.now().UTC(),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("creating user: %w", err)
	}

	m.record(ctx, audit.UserCreated, username, Client{}, nil)
	m.logger.Info("admin user created", "user_id", user.ID, "username", username)
	return user.ID, nil
}

// EnsureAdmin creates the first admin user when none exists. It reports
// whether a user was created.
func (m *Manager) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := m.queries.CountAdminUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("counting admin users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := m.CreateUser(ctx, username, password); err != nil {
		return false, err
	}
	return true, nil
}

// CheckUserPassword verifies password for an existing user id.
func (m *Manager) CheckUserPassword(ctx context.Context, userID int64, password string) (bool, error) {
	user, err := m.queries.GetAdminUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, store.ErrNotFound
		}
		return false, fmt.Errorf("loading user: %w", err)
	}
	return CheckPassword(password, user.PasswordHash)
}

// ChangePassword replaces the password of userID. Sessions stay valid.
func (m *Manager) ChangePassword(ctx context.Context, userID int64, newPassword string) error {
	if err := checkPasswordStrength(newPassword); err != nil {
		return err
	}
	user, err := m.queries.GetAdminUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("loading user: %w", err)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := m.queries.UpdateAdminUserPassword(ctx, store.UpdateAdminUserPasswordParams{
		PasswordHash: hash,
		ID:           userID,
	}); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	m.record(ctx, audit.PasswordChanged, user.Username, Client{}, nil)
	return nil
}

// ChangePasswordByUsername is ChangePassword keyed by username.
func (m *Manager) ChangePasswordByUsername(ctx context.Context, username, newPassword string) error {
	user, err := m.queries.GetAdminUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return fmt.Errorf("loading user: %w", err)
	}
	return m.ChangePassword(ctx, user.ID, newPassword)
}

// CSRFToken returns the session's CSRF token, creating it on first use.
func (m *Manager) CSRFToken(ctx context.Context) string {
	if t := m.sessions.GetString(ctx, SessionKeyCSRF); t != "" {
		return t
	}
	t, err := newCSRFToken()
	if err != nil {
		m.logger.Error("generating csrf token", "error", err)
		return ""
	}
	m.sessions.Put(ctx, SessionKeyCSRF, t)
	return t
}

// ValidCSRF compares token with the session's token in constant time.
func (m *Manager) ValidCSRF(ctx context.Context, token string) bool {
	expected := m.sessions.GetString(ctx, SessionKeyCSRF)
	if expected == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

// Flash stores a one-time message shown on the next rendered page.
func (m *Manager) Flash(ctx context.Context, msg string) {
	m.sessions.Put(ctx, SessionKeyFlash, msg)
}

// PopFlash returns and clears the pending flash message.
func (m *Manager) PopFlash(ctx context.Context) string {
	return m.sessions.PopString(ctx, SessionKeyFlash)
}

func (m *Manager) record(ctx context.Context, typ, username string, c Client, details map[string]string) {
	_ = m.audit.Record(ctx, audit.Event{
		Type:      typ,
		IP:        c.IP,
		Username:  username,
		UserAgent: c.UserAgent,
		Details:   details,
	})
}

func checkPasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

func newCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
