package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"quill/internal/auth"
	"quill/internal/middleware"
	"quill/internal/render"
	"quill/internal/store"
)

// AuthHandler handles login, logout and registration.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// AuthFormData holds data for the login and registration templates.
type AuthFormData struct {
	Form RegisterForm
}

// LoginForm renders the login page. Authenticated users are sent home.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "auth/login", baseTemplateData(r, "Log In", AuthFormData{})); err != nil {
		logAndInternalError(w, "failed to render login", "error", err)
	}
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.renderLogin(w, r, username, "Username and password are required")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			slog.Warn("login attempt on locked account", "category", "auth", "username", username, "ip", middleware.ClientIP(r))
			h.renderLogin(w, r, username,
				fmt.Sprintf("Account temporarily locked. Try again in %s", formatDuration(remaining)))
			return
		}
	}

	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Warn("login failed: user not found", "category", "auth", "username", username, "ip", middleware.ClientIP(r))
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Record the attempt for unknown usernames too, so probing does
		// not reveal which accounts exist.
		h.recordFailureAndRender(w, r, username)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		h.renderLogin(w, r, username, "Invalid username or password")
		return
	}
	if !valid {
		slog.Warn("login failed: invalid password", "category", "auth", "username", username, "ip", middleware.ClientIP(r))
		h.recordFailureAndRender(w, r, username)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}

	// Upgrade hashes created with older parameters on the fly.
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate the session ID to prevent session fixation.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	flashSuccess(w, r, h.renderer, "/profile/"+user.Username, "Welcome back, "+user.FullName())
}

// Logout destroys the session and sends the user to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", userID)
	flashAndRedirect(w, r, h.renderer, RouteLogin, "You have been logged out", "info")
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "auth/register", baseTemplateData(r, "Sign Up", AuthFormData{})); err != nil {
		logAndInternalError(w, "failed to render registration", "error", err)
	}
}

// Register handles the registration form submission. New accounts get
// the regular user role.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteRegister) {
		return
	}

	form := parseRegisterForm(r)
	if !form.Valid() {
		h.renderRegister(w, r, form)
		return
	}

	if _, err := h.queries.GetUserByUsername(r.Context(), form.Username); err == nil {
		form.Errors = append(form.Errors, "Username is already taken")
		h.renderRegister(w, r, form)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "failed to check username", "error", err)
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     form.Username,
		Email:        form.Email,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		PasswordHash: hash,
		Role:         store.RoleUser,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create user", "error", err)
		return
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	flashSuccess(w, r, h.renderer, "/profile/"+user.Username, "Welcome, "+user.FullName())
}

// renderLogin re-renders the login page with the attempted username and
// an error message. The password is never echoed back.
func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, username, message string) {
	data := AuthFormData{Form: RegisterForm{Username: username, Errors: []string{message}}}
	err := h.renderer.RenderStatus(w, r, "auth/login", http.StatusUnauthorized,
		baseTemplateData(r, "Log In", data))
	if err != nil {
		logAndInternalError(w, "failed to render login", "error", err)
	}
}

// renderRegister re-renders the registration page with the submitted
// values and their validation errors. The passwords are never echoed
// back.
func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, form RegisterForm) {
	form.Password = ""
	form.PasswordConfirm = ""
	err := h.renderer.RenderStatus(w, r, "auth/register", http.StatusUnprocessableEntity,
		baseTemplateData(r, "Sign Up", AuthFormData{Form: form}))
	if err != nil {
		logAndInternalError(w, "failed to render registration", "error", err)
	}
}

// recordFailureAndRender records a failed login attempt and re-renders
// the login page with the generic invalid-credentials message, or a
// lockout notice when the attempt tripped the limit.
func (h *AuthHandler) recordFailureAndRender(w http.ResponseWriter, r *http.Request, username string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
			slog.Warn("account locked after failed attempts", "category", "auth", "username", username)
			h.renderLogin(w, r, username,
				fmt.Sprintf("Too many failed attempts. Try again in %s", formatDuration(lockDuration)))
			return
		}
		remaining := h.loginProtection.GetRemainingAttempts(username)
		if remaining > 0 && remaining <= 3 {
			h.renderLogin(w, r, username,
				fmt.Sprintf("Invalid username or password. %d attempts remaining", remaining))
			return
		}
	}
	h.renderLogin(w, r, username, "Invalid username or password")
}

// formatDuration renders a lockout duration in whole minutes or seconds.
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		minutes := int(d.Round(time.Minute) / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	seconds := int(d.Round(time.Second) / time.Second)
	if seconds <= 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", seconds)
}
