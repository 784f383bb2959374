package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/http/response"
	"github.com/listenupapp/listenup-lists/internal/logger"
	"github.com/listenupapp/listenup-lists/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
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

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var details []string
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return fromDomainError(domainErr)
			}

			if errors.Is(err, store.ErrNotFound) {
				return &APIError{
					status:  http.StatusNotFound,
					Code:    string(domainerrors.CodeNotFound),
					Message: "not found",
				}
			}

			// Request validation failures from huma carry one detail per field.
			if err != nil {
				details = append(details, err.Error())
			}
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if len(details) > 0 && status < http.StatusInternalServerError {
			apiErr.Details = details
		}
		return apiErr
	}
}

// fromDomainError converts a domain error. Internal errors never expose their message.
func fromDomainError(err *domainerrors.Error) *APIError {
	if err.Code == domainerrors.CodeInternal {
		return &APIError{
			status:  http.StatusInternalServerError,
			Code:    string(domainerrors.CodeInternal),
			Message: "internal server error",
		}
	}
	return &APIError{
		status:  err.HTTPStatus(),
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeAlreadyExists)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	default:
		return string(domainerrors.CodeInternal)
	}
}

// EnvelopeTransformer wraps every huma response body in the versioned envelope.
// Errors become {"v":1,"success":false,"error":...,"code":...}; everything else is {"v":1,"success":true,"data":...}.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case response.Envelope, *response.Envelope:
		return v, nil
	case *APIError:
		return response.Fail(body.Code, body.Message, body.Details), nil
	}

	if code, err := strconv.Atoi(status); err == nil && code >= http.StatusBadRequest {
		return response.Fail(statusToCode(code), http.StatusText(code), nil), nil
	}
	return response.Wrap(v), nil
}

// apiError logs unexpected failures with the request logger before huma maps them to a 500.
func apiError(ctx context.Context, err error) error {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code == domainerrors.CodeInternal {
		logger.FromContext(ctx).Error("API request failed", "error", err)
	}
	return err
}
