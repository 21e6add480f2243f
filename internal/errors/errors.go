// Package errors provides the categorized error taxonomy for the wallet
// analyzer. Categories drive both HTTP status mapping and recovery policy:
// provider and narrative errors are recovered locally with degraded results,
// validation errors fail the request immediately, storage errors are fatal.
package errors

import (
	"fmt"
	"net/http"

	"github.com/wallet-analyzer/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryValidation represents malformed user input (4xx)
	CategoryValidation ErrorCategory = "validation"
	// CategoryProvider represents wallet-data provider errors
	CategoryProvider ErrorCategory = "provider"
	// CategoryNarrative represents reasoning-service errors
	CategoryNarrative ErrorCategory = "narrative"
	// CategoryStorage represents report store errors
	CategoryStorage ErrorCategory = "storage"
	// CategoryNotFound represents not found errors
	CategoryNotFound ErrorCategory = "not_found"
	// CategorySystem represents other internal errors (5xx)
	CategorySystem ErrorCategory = "system"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewInvalidAddressError creates an invalid address error
func NewInvalidAddressError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_ADDRESS",
		Message:    fmt.Sprintf("invalid address format: %s", address),
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewReportNotFoundError creates a not found error for a missing report
func NewReportNotFoundError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "REPORT_NOT_FOUND",
		Message:    fmt.Sprintf("no report found for address: %s", address),
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewProviderError creates a wallet-data provider error
func NewProviderError(provider string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       "PROVIDER_ERROR",
		Message:    fmt.Sprintf("data provider error: %s", provider),
		Cause:      cause,
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// NewNarrativeError creates a reasoning-service error
func NewNarrativeError(reason string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNarrative,
		StatusCode: http.StatusBadGateway,
		Code:       "NARRATIVE_ERROR",
		Message:    fmt.Sprintf("reasoning service failed: %s", reason),
		Cause:      cause,
	}
}

// NewStorageError creates a report store error
func NewStorageError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryStorage,
		StatusCode: http.StatusInternalServerError,
		Code:       "STORAGE_ERROR",
		Message:    fmt.Sprintf("report store error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	// If already categorized, return as-is
	if catErr, ok := err.(*CategorizedError); ok {
		return catErr
	}

	// Default to internal error
	return NewInternalError("unexpected error", err)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsRetryable determines if an error is worth retrying. Provider and
// narrative failures are transient by assumption; everything else is not.
func IsRetryable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	switch catErr.Category {
	case CategoryProvider, CategoryNarrative:
		return true
	default:
		return false
	}
}

// IsRecoverable reports whether the pipeline may substitute a degraded
// default for this error instead of aborting the request.
func IsRecoverable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return true
	}

	switch catErr.Category {
	case CategoryValidation, CategoryStorage:
		return false
	default:
		return true
	}
}
