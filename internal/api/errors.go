package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bloomeryapp/bloomery-admin/internal/errors"
	"github.com/bloomeryapp/bloomery-admin/internal/store"
)

// APIError implements huma.StatusError, mapping domain errors to HTTP
// responses with a consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to surface domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			if errors.Is(err, store.ErrNotFound) {
				return &APIError{
					status:  http.StatusNotFound,
					Code:    string(domainerrors.CodeNotFound),
					Message: err.Error(),
				}
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// statusToCode maps bare HTTP status codes to domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeBusy)
	case http.StatusRequestEntityTooLarge:
		return string(domainerrors.CodeTooLarge)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	default:
		return string(domainerrors.CodeInternal)
	}
}
