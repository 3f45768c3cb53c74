package apiserver

import (
	"net/http"

	"trailbook/internal/services"
)

// TrailConnectionHandler exposes eligibility checks and deep-connection
// management.
type TrailConnectionHandler struct {
	connectionService services.TrailConnectionService
}

func NewTrailConnectionHandler(connectionService services.TrailConnectionService) *TrailConnectionHandler {
	return &TrailConnectionHandler{connectionService: connectionService}
}

// CheckEligibilityHandler handles GET /trail-connections/check-eligibility/{userId}.
func (h *TrailConnectionHandler) CheckEligibilityHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	otherID, err := pathUserID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.connectionService.CheckEligibility(r.Context(), userID, otherID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", result)
}

// ConnectHandler handles POST /trail-connections/connect/{userId}.
func (h *TrailConnectionHandler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	otherID, err := pathUserID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	connection, err := h.connectionService.Connect(r.Context(), userID, otherID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "trail connection established", connection)
}

// ReevaluateHandler handles POST /trail-connections/reevaluate/{userId}. It
// re-runs eligibility for an existing pair and persists the outcome.
func (h *TrailConnectionHandler) ReevaluateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	otherID, err := pathUserID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	connection, err := h.connectionService.Reevaluate(r.Context(), userID, otherID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "trail connection reevaluated", connection)
}

// ListHandler handles GET /trail-connections/walked-together.
func (h *TrailConnectionHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	connections, err := h.connectionService.ListActive(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", connections)
}

// GetWithHandler handles GET /trail-connections/with/{userId}.
func (h *TrailConnectionHandler) GetWithHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	otherID, err := pathUserID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	connection, err := h.connectionService.GetWith(r.Context(), userID, otherID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", connection)
}

// DeactivateHandler handles DELETE /trail-connections/with/{userId}.
func (h *TrailConnectionHandler) DeactivateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	otherID, err := pathUserID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.connectionService.Deactivate(r.Context(), userID, otherID); err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "trail connection removed", nil)
}
