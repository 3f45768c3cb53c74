package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"trailbook/internal/apperrors"
	"trailbook/internal/middleware"
	"trailbook/internal/services"
)

// UserHandler exposes profile endpoints.
type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// pathUserID extracts a user id path variable by name.
func pathUserID(r *http.Request, name string) (uint, error) {
	idStr, ok := mux.Vars(r)[name]
	if !ok {
		return 0, apperrors.InvalidArgument("missing " + name + " in path")
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidArgument("invalid " + name)
	}
	return uint(id), nil
}

// callerID reads the authenticated user from context, written by the auth
// middleware.
func callerID(r *http.Request) (uint, error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return 0, apperrors.Forbidden("not authenticated")
	}
	return userID, nil
}

func (h *UserHandler) GetMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", user)
}

type updateProfileRequest struct {
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

func (h *UserHandler) UpdateMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apperrors.InvalidArgument("invalid request body"))
		return
	}
	defer r.Body.Close()

	user, err := h.userService.UpdateProfile(r.Context(), userID, req.Nickname, req.AvatarURL, req.Bio)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "profile updated", user)
}

func (h *UserHandler) GetUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	info, err := h.userService.GetBasicInfo(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", info)
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

// SetPushTokenHandler registers the device token the notification consumer
// delivers to. An empty token unregisters the device.
func (h *UserHandler) SetPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req pushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apperrors.InvalidArgument("invalid request body"))
		return
	}
	defer r.Body.Close()

	if err := h.userService.SetPushToken(r.Context(), userID, req.Token); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "push token updated", nil)
}
