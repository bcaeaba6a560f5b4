package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeNetwork represents timeouts, transport failures and HTTP errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeBlocked represents anti-bot or rate limiting responses
	ErrorTypeBlocked ErrorType = "blocked"
	// ErrorTypeParsing represents payloads that could not be decoded
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeNotFound represents a heuristic miss: the expected data is absent
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeConversion represents unavailable exchange rates
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeRender represents card rendering failures
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
)

// Error is the error type shared by the storefront, pricing and bot layers
type Error struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if a later attempt may succeed
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// New creates a new Error
func New(errType ErrorType, source, message string, err error) *Error {
	return &Error{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *Error {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *Error {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewBlocked creates a new blocked error
func NewBlocked(source string, duration time.Duration) *Error {
	return New(ErrorTypeBlocked, source, fmt.Sprintf("blocked for %v", duration), nil)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *Error {
	return New(ErrorTypeParsing, source, message, err)
}

// NewNotFound creates a new not found error
func NewNotFound(source, message string) *Error {
	return New(ErrorTypeNotFound, source, message, nil)
}

// NewConversion creates a new conversion error
func NewConversion(source, message string, err error) *Error {
	return New(ErrorTypeConversion, source, message, err)
}

// NewRender creates a new render error
func NewRender(message string, err error) *Error {
	return New(ErrorTypeRender, "render", message, err)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *Error {
	return New(ErrorTypeCache, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *Error {
	return New(ErrorTypeValidation, source, message, nil)
}

// Is reports whether any error in err's chain is an *Error of the given type
func Is(err error, errType ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == errType
	}
	return false
}

// TypeOf returns the type of the first *Error in err's chain, or "" if none
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsRetryable reports whether err is a retryable *Error
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.IsRetryable()
	}
	return false
}
