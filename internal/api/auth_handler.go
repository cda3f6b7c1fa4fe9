package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tradearena/backend/internal/auth"
)

// ── Request / Response types ────────────────────────────────────────────────

type RegisterRequest struct {
	Email       string `json:"email" example:"trader@example.com"`
	DisplayName string `json:"display_name" example:"margin_call_mary"`
	Password    string `json:"password" example:"correct horse battery staple"`
}

func (r *RegisterRequest) Validate() error {
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return errors.New("a valid email is required")
	}
	if r.DisplayName == "" {
		return errors.New("display_name is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type RegisterResponse struct {
	ID          string `json:"id" example:"a1b2c3d4e5f6g7h8"`
	Email       string `json:"email" example:"trader@example.com"`
	DisplayName string `json:"display_name" example:"margin_call_mary"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"trader@example.com"`
	Password string `json:"password" example:"correct horse battery staple"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type LoginResponse struct {
	Token     string `json:"token" example:"8e44dd2e-9c6f-4c4e-9d7a-1f2e3d4c5b6a"`
	ExpiresAt string `json:"expires_at" example:"2025-01-02T15:04:05Z"`
}

type MeResponse struct {
	ID          string `json:"id" example:"a1b2c3d4e5f6g7h8"`
	Email       string `json:"email" example:"trader@example.com"`
	DisplayName string `json:"display_name" example:"margin_call_mary"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// register creates a new user account.
// @Summary      Register
// @Description  Create an account. Password hashing runs on the background pool.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterRequest  true  "Account to create"
// @Success      201   {object}  RegisterResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string  "email already registered"
// @Failure      504   {object}  map[string]string  "hashing timed out"
// @Router       /auth/register [post]
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.auth.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrEmailTaken):
			respondError(w, http.StatusConflict, "email already registered")
		default:
			h.handlePoolError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, RegisterResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	})
}

// login verifies credentials and issues a session token.
// @Summary      Log in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Credentials"
// @Success      200   {object}  LoginResponse
// @Failure      401   {object}  map[string]string
// @Failure      504   {object}  map[string]string  "comparison timed out"
// @Router       /auth/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.handlePoolError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// logout revokes the current session.
// @Summary      Log out
// @Tags         Auth
// @Security     BearerAuth
// @Success      204
// @Router       /auth/logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.logger.Error("logout failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// currentUser returns the authenticated user.
// @Summary      Current user
// @Tags         Auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  MeResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	u := CurrentUser(r.Context())
	respondJSON(w, http.StatusOK, MeResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	})
}
