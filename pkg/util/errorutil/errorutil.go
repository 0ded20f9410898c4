package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes surfaced in the "error" field of failure responses.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeMissingDocuments    = "MISSING_DOCUMENTS"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodePasswordRequired    = "PASSWORD_REQUIRED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeIncorrectPassword   = "INCORRECT_PASSWORD"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateKey        = "DUPLICATE_KEY"
	CodeLogoutFailed        = "LOGOUT_FAILED"
	CodeUpstreamStore       = "UPSTREAM_STORE_ERROR"
	CodeInternal            = "INTERNAL_ERROR"
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewMissingDocuments reports absent required document categories.
func NewMissingDocuments(missing []string) error {
	return NewDomainError(CodeMissingDocuments,
		fmt.Sprintf("Missing required documents: %s", strings.Join(missing, ", ")),
		http.StatusBadRequest,
		map[string]any{"missing": missing})
}

func NewInvalidStatus(message string) error {
	return NewDomainError(CodeInvalidStatus, message, http.StatusBadRequest, nil)
}

func NewUnsupportedFileType(message string, details map[string]any) error {
	return NewDomainError(CodeUnsupportedFileType, message, http.StatusBadRequest, details)
}

func NewPasswordRequired() error {
	return NewDomainError(CodePasswordRequired, "Password is required", http.StatusBadRequest, nil)
}

func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "Invalid credentials", http.StatusUnauthorized, nil)
}

func NewIncorrectPassword() error {
	return NewDomainError(CodeIncorrectPassword, "Incorrect password", http.StatusUnauthorized, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewDuplicateKey(message string, details map[string]any) error {
	return NewDomainError(CodeDuplicateKey, message, http.StatusConflict, details)
}

func NewLogoutFailed(err error) error {
	return &DomainError{
		Code:       CodeLogoutFailed,
		Message:    "Logout failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStoreError wraps a failure of the record store or session store.
func NewStoreError(err error) error {
	return &DomainError{
		Code:       CodeUpstreamStore,
		Message:    "storage unavailable",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}

// IsCode reports whether err carries the given DomainError code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return CodeValidationFailed
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeDuplicateKey
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= 500 {
		return CodeInternal
	}
	return "REQUEST_FAILED"
}
