// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"

	"github.com/3ddreamcrafts/dreamcrafts/internal/audit"
	"github.com/3ddreamcrafts/dreamcrafts/internal/auth"
)

// CSRF token transport.
const (
	CSRFFormField = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

// CSRFConfig holds configuration for cross-origin protection.
// filippo.io/csrf/gorilla checks Fetch metadata headers, so no cookie is
// involved.
type CSRFConfig struct {
	// AuthKey is kept for API compatibility with gorilla/csrf; it is unused
	// by the Fetch metadata check.
	AuthKey []byte

	// ErrorHandler is called when validation fails.
	ErrorHandler http.Handler

	// TrustedOrigins are host values allowed to send cross-origin requests.
	TrustedOrigins []string
}

// DefaultCSRFConfig returns a CSRFConfig for the given environment.
func DefaultCSRFConfig(authKey []byte, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}

	// The library expects host-only values, not full URLs.
	if isDev {
		cfg.TrustedOrigins = []string{"localhost:8080", "127.0.0.1:8080"}
	}
	return cfg
}

// CrossOrigin rejects state-changing requests sent by another origin.
func CrossOrigin(cfg CSRFConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	errHandler := cfg.ErrorHandler
	if errHandler == nil {
		errHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "unknown"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			logger.Warn("cross-origin request rejected",
				"category", "security",
				"reason", reason,
				"method", r.Method,
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"),
				"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
				"ip", ClientIP(r),
			)
			http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
		})
	}

	opts := []csrf.Option{csrf.ErrorHandler(errHandler)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

// SessionCSRF requires the session's CSRF token on every state-changing
// request, sent either as the csrf_token form field or the X-CSRF-Token
// header. Failures are recorded in the security log.
func SessionCSRF(am *auth.Manager, rec *audit.Recorder, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(CSRFHeader)
			if token == "" {
				token = r.PostFormValue(CSRFFormField)
			}
			if am.ValidCSRF(r.Context(), token) {
				next.ServeHTTP(w, r)
				return
			}

			c := Client(r)
			logger.Info("csrf token rejected", "method", r.Method, "path", r.URL.Path, "ip", c.IP)
			if err := rec.Record(r.Context(), audit.Event{
				Type:      audit.CSRFFailure,
				IP:        c.IP,
				Username:  am.Username(r.Context()),
				UserAgent: c.UserAgent,
				Details:   map[string]string{"method": r.Method, "path": r.URL.Path},
			}); err != nil {
				logger.Error("recording csrf failure", "error", err)
			}

			if wantsJSON(r) {
				writeJSONError(w, http.StatusForbidden, "invalid CSRF token")
				return
			}
			http.Error(w, "Forbidden - invalid or missing CSRF token", http.StatusForbidden)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
