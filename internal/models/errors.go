package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeDuplicateUsername       = "DUPLICATE_USERNAME"
	CodeInvalidPassword         = "INVALID_PASSWORD"
	CodeNotAuthenticated        = "NOT_AUTHENTICATED"
	CodeSelfReferenceRejected   = "SELF_REFERENCE_REJECTED"
	CodeDuplicateEdge           = "DUPLICATE_EDGE"
	CodeMissingEdge             = "MISSING_EDGE"
	CodeUnknownPostKind         = "UNKNOWN_POST_KIND"
	CodeWrongCredential         = "WRONG_CREDENTIAL"
	CodeInvalidOperationForKind = "INVALID_OPERATION_FOR_KIND"
	CodeInvalidDiscount         = "INVALID_DISCOUNT"
	CodeAlreadyLiked            = "ALREADY_LIKED"
	CodeNotFound                = "NOT_FOUND"
	CodeValidation              = "VALIDATION_ERROR"
	CodeNetworkConflict         = "NETWORK_CONFLICT"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeInternal                = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so the sentinels below work
// with errors.Is regardless of the message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrDuplicateUsername       = &AppError{Code: CodeDuplicateUsername, Message: "username already registered"}
	ErrInvalidPassword         = &AppError{Code: CodeInvalidPassword, Message: "password must be 5 to 7 characters long"}
	ErrNotAuthenticated        = &AppError{Code: CodeNotAuthenticated, Message: "account is not logged in"}
	ErrSelfReferenceRejected   = &AppError{Code: CodeSelfReferenceRejected, Message: "action cannot target your own account"}
	ErrDuplicateEdge           = &AppError{Code: CodeDuplicateEdge, Message: "already following this account"}
	ErrMissingEdge             = &AppError{Code: CodeMissingEdge, Message: "not following this account"}
	ErrUnknownPostKind         = &AppError{Code: CodeUnknownPostKind, Message: "unknown post kind"}
	ErrWrongCredential         = &AppError{Code: CodeWrongCredential, Message: "invalid credentials"}
	ErrInvalidOperationForKind = &AppError{Code: CodeInvalidOperationForKind, Message: "operation not supported for this post kind"}
	ErrInvalidDiscount         = &AppError{Code: CodeInvalidDiscount, Message: "discount percent must be between 0 and 100"}
	ErrAlreadyLiked            = &AppError{Code: CodeAlreadyLiked, Message: "post already liked"}
	ErrNetworkConflict         = &AppError{Code: CodeNetworkConflict, Message: "network already created under another name"}
)

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
