// Package errdefs defines the error classes the session core reports.
// Handlers and clients match on these with errors.Is; the concrete message
// carries the operation detail.
package errdefs

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthorization: the requester lacks rights for a roster mutation.
	ErrAuthorization = errors.New("not authorized")

	// ErrInvariant: the operation would break a structural invariant,
	// e.g. removing the project creator.
	ErrInvariant = errors.New("invariant violation")

	// ErrNotFound: the referenced project, participant or file is unknown.
	ErrNotFound = errors.New("not found")

	// ErrPayloadFormat: an agent message is not well-formed structured data.
	// Non-fatal; the raw text is still displayed.
	ErrPayloadFormat = errors.New("malformed agent payload")

	// ErrPersistence: the durable store failed to save a snapshot. The
	// in-memory state is not rolled back; callers surface this as a warning.
	ErrPersistence = errors.New("persistence failure")
)

// Authorizationf wraps ErrAuthorization with a formatted detail message.
func Authorizationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrAuthorization}, args...)...)
}

// Invariantf wraps ErrInvariant with a formatted detail message.
func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// PayloadFormatf wraps ErrPayloadFormat with a formatted detail message.
func PayloadFormatf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrPayloadFormat}, args...)...)
}

// Persistencef wraps ErrPersistence with a formatted detail message.
func Persistencef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrPersistence}, args...)...)
}
