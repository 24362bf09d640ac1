package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// UsersHandler manages accounts of the admin area.
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin family guest"`
}

type updateUserRequest struct {
	Role      string `json:"role" validate:"omitempty,oneof=admin family guest"`
	Confirmed *bool  `json:"confirmed"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users. Accounts created by an admin are
// confirmed immediately.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.Validate(&req); err != nil {
		storeError(w, err, "create user")
		return
	}
	hash, ok := hashPassword(w, req.Password)
	if !ok {
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, hash, req.Role)
	if err != nil {
		jsonError(w, http.StatusConflict, "username already exists")
		return
	}

	slog.Info("user created", "user", GetClaims(r.Context()).Username, "new_user", req.Username, "role", req.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}
	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}: a role change, a confirmation change
// or both. An admin cannot demote or unconfirm themselves.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.Validate(&req); err != nil {
		storeError(w, err, "update user")
		return
	}
	if req.Role == "" && req.Confirmed == nil {
		jsonError(w, http.StatusBadRequest, "role or confirmed required")
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id && ((req.Role != "" && req.Role != model.RoleAdmin) || (req.Confirmed != nil && !*req.Confirmed)) {
		jsonError(w, http.StatusBadRequest, "cannot demote yourself")
		return
	}

	if req.Role != "" {
		if err := store.UpdateUser(r.Context(), h.DB, id, req.Role); err != nil {
			storeError(w, err, "update user")
			return
		}
	}
	if req.Confirmed != nil {
		if err := store.SetUserConfirmed(r.Context(), h.DB, id, *req.Confirmed); err != nil {
			storeError(w, err, "update user")
			return
		}
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	slog.Info("user updated", "user", claims.Username, "target_user", user.Username, "role", user.Role, "confirmed", user.Confirmed)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.Validate(&req); err != nil {
		storeError(w, err, "reset password")
		return
	}
	hash, ok := hashPassword(w, req.Password)
	if !ok {
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, hash); err != nil {
		storeError(w, err, "reset password")
		return
	}

	slog.Info("user password reset", "user", GetClaims(r.Context()).Username, "target_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}. Users are soft deleted and can no
// longer sign in.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete user")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "target_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// hashPassword checks the password policy and returns the bcrypt hash.
func hashPassword(w http.ResponseWriter, password string) (string, bool) {
	if err := model.ValidatePassword(password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return "", false
	}
	return string(hash), true
}
