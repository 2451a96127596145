package utils

import "fmt"

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

const (
	CodeValidation = 1001
	CodeNotFound   = 1002
	CodeConflict   = 1003
	CodeSystem     = 5001
)

func NewValidationError(field string, err error) *APIError {
	return &APIError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("invalid %s", field),
		Details: err.Error(),
	}
}

func NewNotFoundError(what string) *APIError {
	return &APIError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", what),
	}
}

func NewConflictError(what string) *APIError {
	return &APIError{
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s already exists", what),
	}
}

func NewSystemError(err error) *APIError {
	return &APIError{
		Code:    CodeSystem,
		Message: "internal error",
		Details: err.Error(),
	}
}
