package api

import (
	"encoding/json"
	"net/http"

	"beacons-hub/errors"
	"beacons-hub/logger"
)

// errorResponse is the body of generic API errors.
type errorResponse struct {
	Error   string         `json:"error"`
	Type    string         `json:"type,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// MessageResponse is the fixed-message body of the sequence routes.
type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, code int, body any, lg *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// headers are gone, nothing left but to log
		lg.Error("failed to encode response", map[string]any{
			"status_code": code,
			"error":       err.Error(),
		})
	}
}

func respondMessage(w http.ResponseWriter, code int, message string, lg *logger.Logger) {
	respondJSON(w, code, MessageResponse{Message: message}, lg)
}

// respondWithError sends a structured error response
func respondWithError(w http.ResponseWriter, apiErr *errors.APIError, lg *logger.Logger) {
	lg.Error("HTTP error response", map[string]any{
		"error_type":    string(apiErr.Type),
		"error_message": apiErr.Message,
		"status_code":   apiErr.Code,
		"error_details": apiErr.Details,
	})

	respondJSON(w, apiErr.Code, errorResponse{
		Error:   apiErr.Message,
		Type:    string(apiErr.Type),
		Details: apiErr.Details,
	}, lg)
}
