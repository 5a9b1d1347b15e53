package handler

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/lifeboard/lifeboard/internal/auth"
	"github.com/lifeboard/lifeboard/internal/model"
	"github.com/lifeboard/lifeboard/internal/store"
)

type AuthHandler struct {
	userStore *store.UserStore
	tokens    *auth.Tokens
	logger    *slog.Logger
}

func NewAuthHandler(us *store.UserStore, tokens *auth.Tokens, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if len(req.Password) > auth.MaxPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at most 72 bytes")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "user already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := h.userStore.Create(req.Email, req.Name, hash)
	if err != nil {
		// Lost a race with a concurrent registration of the same email.
		if again, _ := h.userStore.GetByEmail(req.Email); again != nil {
			writeError(w, http.StatusBadRequest, "user already exists")
			return
		}
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		writeError(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	token, expires, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: user})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get current user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
