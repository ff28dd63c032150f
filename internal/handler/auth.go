// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/quillcms/quill/internal/auth"
	"github.com/quillcms/quill/internal/middleware"
	"github.com/quillcms/quill/internal/model"
	"github.com/quillcms/quill/internal/render"
	"github.com/quillcms/quill/internal/service"
	"github.com/quillcms/quill/internal/store"
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 8

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
	}
}

// RegisterForm renders the registration page.
// GET /register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID) > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	h.renderer.RenderPage(w, r, "register", render.TemplateData{
		Title: "Register",
	})
}

// Register handles the registration form submission. On success the new
// user is logged in immediately.
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteRegister) {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if name == "" || email == "" || password == "" {
		flashError(w, r, h.renderer, RouteRegister, "Name, email and password are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		flashError(w, r, h.renderer, RouteRegister, "Invalid email address")
		return
	}
	if len(password) < MinPasswordLength {
		flashError(w, r, h.renderer, RouteRegister,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	clientIP := middleware.GetClientIP(r)

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelWarning,
				"Registration attempt with existing email", nil, clientIP, map[string]any{"email": email})
			flashError(w, r, h.renderer, RouteLogin, "Email is already registered with another account.")
			return
		}
		logAndInternalError(w, "failed to create user", "error", err)
		return
	}

	// Log the new user in right away.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User registered",
		&user.ID, clientIP, map[string]any{"email": user.Email})

	flashSuccess(w, r, h.renderer, RouteRoot, "Welcome, "+user.Name+"!")
}

// LoginForm renders the login page.
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID) > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	h.renderer.RenderPage(w, r, "login", render.TemplateData{
		Title: "Log In",
	})
}

// Login handles the login form submission.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		flashError(w, r, h.renderer, RouteLogin, "Email and password are required")
		return
	}

	clientIP := middleware.GetClientIP(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning,
				"Login attempt on locked account", nil, clientIP, map[string]any{"email": email})
			flashError(w, r, h.renderer, RouteLogin,
				"Account temporarily locked. Try again in "+formatDuration(remaining)+".")
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			// Infrastructure failure, not a bad credential. Don't count it
			// toward the lockout.
			logAndInternalError(w, "database error during login", "error", err)
			return
		}
		slog.Debug("login attempt for non-existent user", "email", email)
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning,
			"Login failed: user not found", nil, clientIP, map[string]any{"email": email})
		// Record failed attempt even for non-existent users to prevent enumeration
		h.recordFailure(w, r, email)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		flashError(w, r, h.renderer, RouteLogin, "Incorrect credentials.")
		return
	}
	if !valid {
		slog.Debug("invalid password attempt", "email", email)
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning,
			"Login failed: invalid password", &user.ID, clientIP, map[string]any{"email": email})
		h.recordFailure(w, r, email)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Re-hash password if it uses outdated parameters.
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				ID:           user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
		ID:          user.ID,
	}); err != nil {
		// Don't block login on this error
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged in",
		&user.ID, clientIP, map[string]any{"email": user.Email})

	flashSuccess(w, r, h.renderer, RouteRoot, "Welcome back, "+user.Name+"!")
}

// recordFailure tracks a failed login attempt and redirects with the
// matching flash message.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, r *http.Request, email string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning,
				"Account locked due to failed attempts", nil, middleware.GetClientIP(r),
				map[string]any{"email": email, "duration": lockDuration.String()})
			flashError(w, r, h.renderer, RouteLogin,
				"Too many failed attempts. Account locked for "+formatDuration(lockDuration)+".")
			return
		}
		if remaining := h.loginProtection.GetRemainingAttempts(email); remaining <= 3 && remaining > 0 {
			flashError(w, r, h.renderer, RouteLogin,
				fmt.Sprintf("Incorrect credentials. %d attempts remaining.", remaining))
			return
		}
	}
	flashError(w, r, h.renderer, RouteLogin, "Incorrect credentials.")
}

// Logout destroys the session and returns to the homepage.
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if userID > 0 {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged out",
			&userID, middleware.GetClientIP(r), nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", userID)
	http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
