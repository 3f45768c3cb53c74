package apiserver

import (
	"encoding/json"
	"net/http"
	"time"

	"trailbook/internal/apperrors"
)

// successResponse is the envelope for every successful API response.
type successResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// errorResponse is the envelope for every failed API response.
type errorResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	StatusCode int      `json:"statusCode"`
	Path       string   `json:"path"`
	Timestamp  string   `json:"timestamp"`
	Details    []string `json:"details,omitempty"`
}

func respondSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(successResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondError maps a service error onto the envelope. Internal errors are
// masked with a generic message; their cause belongs in the logs, not the
// response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := apperrors.HTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Success: false,
		Message: apperrors.UserMessage(err),
		Error: errorBody{
			StatusCode: statusCode,
			Path:       r.URL.Path,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Details:    apperrors.DetailsOf(err),
		},
	})
}
