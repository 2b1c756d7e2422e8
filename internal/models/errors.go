package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes shared by every layer.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error. Code is the error family;
// Reason, when set, names the exact condition inside that family.
type AppError struct {
	Code    string
	Reason  string
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

// Is matches two AppErrors carrying the same non-empty Reason, so a sentinel
// still matches after WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Reason == "" {
		return false
	}
	return e.Code == t.Code && e.Reason == t.Reason
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func newReason(code, reason, message string) *AppError {
	return &AppError{Code: code, Reason: reason, Message: message}
}

// Sentinel failures raised by the engines.
var (
	ErrAuthorNotFound   = newReason(CodeNotFound, "AUTHOR_NOT_FOUND", "Author not found")
	ErrUserNotFound     = newReason(CodeNotFound, "USER_NOT_FOUND", "User not found")
	ErrPostNotFound     = newReason(CodeNotFound, "POST_NOT_FOUND", "Post not found")
	ErrCommentNotFound  = newReason(CodeNotFound, "COMMENT_NOT_FOUND", "Comment not found")
	ErrParentNotFound   = newReason(CodeNotFound, "PARENT_NOT_FOUND", "Parent comment not found")
	ErrCategoryNotFound = newReason(CodeNotFound, "CATEGORY_NOT_FOUND", "Category not found")
	ErrLikeNotFound     = newReason(CodeNotFound, "LIKE_NOT_FOUND", "Like not found")

	ErrMaxDepthExceeded       = newReason(CodeValidation, "MAX_DEPTH_EXCEEDED", "Maximum reply depth exceeded")
	ErrSomeCategoriesNotFound = newReason(CodeValidation, "SOME_CATEGORIES_NOT_FOUND", "Some categories not found")
	ErrInvalidTargetKind      = newReason(CodeValidation, "INVALID_TARGET_KIND", "Target kind must be 'post' or 'comment'")
	ErrCommentCycle           = newReason(CodeValidation, "COMMENT_CYCLE", "Comment thread contains a cycle")

	ErrDuplicateReaction = newReason(CodeConflict, "DUPLICATE_REACTION", "Reaction already exists for this target")
	ErrUsernameTaken     = newReason(CodeConflict, "USERNAME_TAKEN", "Username is already taken")
	ErrEmailTaken        = newReason(CodeConflict, "EMAIL_TAKEN", "Email is already registered")
	ErrCategoryExists    = newReason(CodeConflict, "CATEGORY_EXISTS", "Category with this title already exists")
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
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

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeConflict:
		return fiber.StatusConflict
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response. Internal error
// details are only exposed for non-500 statuses.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Reason: appErr.Reason,
		}
		if appErr.Err != nil && status < fiber.StatusInternalServerError {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
