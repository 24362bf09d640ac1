package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	s.Templates.Render(w, "users.html", &struct {
		PageData
		Users []model.User
		Roles []string
	}{
		PageData: s.page(r, "Users"),
		Users:    users,
		Roles:    []string{model.RoleAdmin, model.RoleFamily, model.RoleGuest},
	})
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	username := r.FormValue("username")
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" || !model.ValidRole(role) {
		backErr(w, r, "/users", "Enter a username and pick a role.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		backErr(w, r, "/users", err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, username, string(hash), role); err != nil {
		backErr(w, r, "/users", "Username already exists.")
		return
	}
	slog.Info("user created", "user", claims.Username, "new_user", username, "role", role)
	backOK(w, r, "/users", "User created.")
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		backErr(w, r, "/users", err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, string(hash)); err != nil {
		backErr(w, r, "/users", "User not found.")
		return
	}
	backOK(w, r, "/users", "Password reset.")
}

// UserUpdateSubmit handles POST /users/{id} with a role and a confirmed flag.
func (s *Server) UserUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	if !model.ValidRole(role) {
		backErr(w, r, "/users", "Invalid role.")
		return
	}
	if id == claims.UserID && role != model.RoleAdmin {
		backErr(w, r, "/users", "You cannot demote yourself.")
		return
	}

	if err := store.UpdateUser(r.Context(), s.DB, id, role); err != nil {
		backErr(w, r, "/users", "User not found.")
		return
	}
	if err := store.SetUserConfirmed(r.Context(), s.DB, id, r.FormValue("confirmed") == "on"); err != nil {
		backErr(w, r, "/users", "User not found.")
		return
	}
	slog.Info("user updated", "user", claims.Username, "target_id", id, "role", role)
	backOK(w, r, "/users", "User updated.")
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	s.Templates.Render(w, "settings.html", &PageData{
		Title: "Settings",
		User:  claims,
	})
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		s.Templates.Render(w, "settings.html", &PageData{
			Title: "Settings",
			User:  claims,
			Error: "Enter your current and new password.",
		})
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		s.Templates.Render(w, "settings.html", &PageData{
			Title: "Settings",
			User:  claims,
			Error: err.Error(),
		})
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		s.Templates.Render(w, "settings.html", &PageData{
			Title: "Settings",
			User:  claims,
			Error: "Could not load your account.",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		s.Templates.Render(w, "settings.html", &PageData{
			Title: "Settings",
			User:  claims,
			Error: "Current password is incorrect.",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.Templates.Render(w, "settings.html", &PageData{
			Title: "Settings",
			User:  claims,
			Error: "Could not save the password.",
		})
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, string(hash)); err != nil {
		s.Templates.Render(w, "settings.html", &PageData{
			Title: "Settings",
			User:  claims,
			Error: "Could not update the password.",
		})
		return
	}

	s.Templates.Render(w, "settings.html", &PageData{
		Title:   "Settings",
		User:    claims,
		Success: "Password changed.",
	})
}
