package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"trailbook/internal/apperrors"
	"trailbook/internal/models"
	"trailbook/internal/services"
)

// ConnectionRequestHandler exposes the request state machine over HTTP.
type ConnectionRequestHandler struct {
	requestService services.ConnectionRequestService
}

func NewConnectionRequestHandler(requestService services.ConnectionRequestService) *ConnectionRequestHandler {
	return &ConnectionRequestHandler{requestService: requestService}
}

// SendHandler handles POST /connection-requests/send/{userId}.
func (h *ConnectionRequestHandler) SendHandler(w http.ResponseWriter, r *http.Request) {
	requesterID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	recipientID, err := pathUserID(r, "userId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	request, err := h.requestService.SendRequest(r.Context(), requesterID, recipientID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "connection request sent", request)
}

// RespondHandler handles PUT /connection-requests/{decision}/{requestId}
// where decision is accept or reject.
func (h *ConnectionRequestHandler) RespondHandler(w http.ResponseWriter, r *http.Request) {
	recipientID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	requestID, err := pathUserID(r, "requestId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	decision := services.ConnectionRequestDecision(mux.Vars(r)["decision"])

	request, err := h.requestService.Respond(r.Context(), recipientID, requestID, decision)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "connection request "+string(request.Status), request)
}

// ListHandler handles GET /connection-requests/{status}.
func (h *ConnectionRequestHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status := models.ConnectionRequestStatus(mux.Vars(r)["status"])
	if status == "connected" {
		// Listing alias: "connected" is the accepted set from either side.
		status = models.ConnectionRequestStatusAccepted
	}
	if !models.ValidConnectionRequestStatus(status) {
		respondError(w, r, apperrors.InvalidArgument("status must be pending, accepted or rejected"))
		return
	}

	views, err := h.requestService.ListByStatus(r.Context(), userID, status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", views)
}
