package apperror

import "fmt"

// Kind classifies a domain failure. The HTTP layer maps each kind to a
// status code; services only ever deal in kinds.
type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
)

type AppError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap keeps the underlying cause for logging while the client only ever
// sees Message.
func Wrap(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, cause: cause}
}

func Unauthenticated(message string) *AppError { return New(KindUnauthenticated, message) }
func Forbidden(message string) *AppError       { return New(KindForbidden, message) }
func NotFound(message string) *AppError        { return New(KindNotFound, message) }
func Conflict(message string) *AppError        { return New(KindConflict, message) }
func Validation(message string) *AppError      { return New(KindValidation, message) }
