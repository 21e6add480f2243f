package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/wallet-analyzer/internal/errors"
	"github.com/wallet-analyzer/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError maps a pipeline error onto the wire format. Categorized
// errors carry their own status and code; anything else becomes a 500.
func respondError(w http.ResponseWriter, err error) {
	catErr := apperrors.Categorize(err)

	response := ErrorResponse{Error: *catErr.ToServiceError()}
	if catErr.Category == apperrors.CategoryStorage || catErr.Category == apperrors.CategorySystem {
		// Internal detail stays in the logs.
		response.Error.Message = "an internal error occurred"
		response.Error.Details = nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.GetHTTPStatusCode(catErr))
	json.NewEncoder(w).Encode(response)
}
