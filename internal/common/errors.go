// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorUnprocessable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "UNPROCESSABLE",
		Message:    messageOrDefault(msg, "Request cannot be quoted"),
	}
}

func HTTPErrorUnavailable(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusServiceUnavailable,
		Code:       "UNAVAILABLE",
		Message:    messageOrDefault(msg, "Service unavailable"),
	}
}

// HTTPErrorFromDomain maps quote and refresh errors onto HTTP responses.
func HTTPErrorFromDomain(err error) *HttpError {
	var httpErr *HttpError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, domain.ErrValidatorNotFound):
		return HTTPErrorNotFound(err.Error())
	case errors.Is(err, domain.ErrInvalidValidatorState),
		errors.Is(err, domain.ErrWithdrawalTooSmall),
		errors.Is(err, domain.ErrInsufficientLiquidity),
		errors.Is(err, domain.ErrPoolNotUpdated),
		errors.Is(err, domain.ErrInconsistentInstructionInput),
		errors.Is(err, domain.ErrMath):
		return HTTPErrorUnprocessable(err.Error())
	case errors.Is(err, domain.ErrMissingAccount),
		errors.Is(err, domain.ErrDeserialize):
		return HTTPErrorUnavailable(err.Error())
	default:
		return HTTPErrorInternalError(err.Error())
	}
}
