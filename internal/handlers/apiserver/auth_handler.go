package apiserver

import (
	"encoding/json"
	"net/http"

	"trailbook/internal/apperrors"
	"trailbook/internal/middleware"
	"trailbook/internal/services"
)

// AuthHandler exposes registration, login and logout endpoints.
type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apperrors.InvalidArgument("invalid request body"))
		return
	}
	defer r.Body.Close()

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password, req.Nickname)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "registered", user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apperrors.InvalidArgument("invalid request body"))
		return
	}
	defer r.Body.Close()

	token, user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "logged in", loginResponse{Token: token, User: user})
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, apperrors.Forbidden("not authenticated"))
		return
	}
	if err := h.authService.Logout(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "logged out", nil)
}
