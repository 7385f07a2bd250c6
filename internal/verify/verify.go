// Package verify confirms that a national ID number resolves to a given person
// against the external cédula registry, classifying every failure into a fixed
// taxonomy so callers can branch without inspecting provider details.
package verify

import (
	"context"
	"errors"
	"fmt"
)

// Result is the verified official name for a cédula.
type Result struct {
	FirstName string
	LastName  string
}

// Verifier is the lookup port. Implemented by Client; tests use fakes.
type Verifier interface {
	Verify(ctx context.Context, nationality, number string) (Result, error)
}

// Category is the normalized failure taxonomy.
type Category string

const (
	// CategoryNotFound: the registry answered and the cédula does not resolve.
	CategoryNotFound Category = "not_found"

	// CategoryRateLimited: the registry rejected the call for quota reasons.
	// Retryable later, never immediately.
	CategoryRateLimited Category = "rate_limited"

	// CategoryMalformedResponse: the registry answered with an unexpected shape.
	CategoryMalformedResponse Category = "malformed_response"

	// CategoryTransportFailure: network error or deadline exceeded.
	CategoryTransportFailure Category = "transport_failure"
)

// Error wraps verification failures with normalized categorization.
type Error struct {
	Category   Category
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("verify [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("verify [%s]: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a categorized verification error. Only rate limiting is
// marked retryable: the caller should come back later, all other categories
// are terminal for the current attempt.
func NewError(category Category, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == CategoryRateLimited,
	}
}

// CategoryOf extracts the category from an error chain, or "" when the error
// is not a verification failure.
func CategoryOf(err error) Category {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Category
	}
	return ""
}

// IsRetryable reports whether the failure is worth retrying later.
func IsRetryable(err error) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Retryable
	}
	return false
}
