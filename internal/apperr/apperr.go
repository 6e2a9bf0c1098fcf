package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a tagged failure that handlers can render without leaking internals.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
	parent     *AppError
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap exposes the internal cause.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches any AppError with the same code, or a code this one refines.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}
	for cur := e; cur != nil; cur = cur.parent {
		if cur.Code == t.Code {
			return true
		}
	}
	return false
}

// WithMessage returns a copy carrying a caller-facing message.
func (e *AppError) WithMessage(msg string) *AppError {
	cpy := *e
	cpy.Message = msg
	return &cpy
}

// WithInternal returns a copy wrapping err.
func (e *AppError) WithInternal(err error) *AppError {
	cpy := *e
	cpy.Internal = err
	return &cpy
}

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}
	ErrUnauthenticated = &AppError{
		Code:       "UNAUTHENTICATED",
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}
	// ErrUnauthorized means the caller is known but does not own the resource.
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "You do not have access to this resource",
		StatusCode: http.StatusForbidden,
	}
	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}
	ErrBidExpired = &AppError{
		Code:       "BID_EXPIRED",
		Message:    "This bid has expired",
		StatusCode: http.StatusBadRequest,
		parent:     ErrValidationFailed,
	}
	ErrNotInvited = &AppError{
		Code:       "NOT_INVITED",
		Message:    "Bid not found or you don't have access",
		StatusCode: http.StatusForbidden,
	}
	ErrAlreadyResponded = &AppError{
		Code:       "ALREADY_RESPONDED",
		Message:    "You have already submitted a response to this bid",
		StatusCode: http.StatusConflict,
	}
	ErrDeliveryFailed = &AppError{
		Code:       "DELIVERY_FAILED",
		Message:    "Failed to deliver notification",
		StatusCode: http.StatusBadGateway,
	}
	ErrInternal = &AppError{
		Code:       "INTERNAL",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// Validation builds a ValidationFailed error with msg.
func Validation(msg string) *AppError {
	return ErrValidationFailed.WithMessage(msg)
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) *AppError {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound builds a NotFound error naming the missing thing.
func NotFound(what string) *AppError {
	return ErrNotFound.WithMessage(what + " not found")
}

// FromError converts err into an AppError, defaulting to ErrInternal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.WithInternal(err)
}
