// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"sort"
	"strings"
)

// Auth sentinels.
var (
	// ErrDuplicateUsername indicates the username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrUserNotFound indicates no active user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrPasswordMismatch indicates the supplied password does not match the stored digest.
	ErrPasswordMismatch = errors.New("password not match")

	// ErrInvalidToken indicates an unknown, consumed or terminated refresh token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRefreshTokenExpired indicates the refresh token exists but is past its expiry.
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrAuthNotFound indicates no active session matches the presented access token.
	ErrAuthNotFound = errors.New("auth not found")

	// ErrUnauthorized indicates a missing or rejected access token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)

// Content sentinels.
var (
	// ErrArticleNotFound indicates the article is missing, soft-deleted or not owned by the caller.
	ErrArticleNotFound = errors.New("article not found")

	// ErrCommentNotFound indicates the comment is missing, soft-deleted or not owned by the caller.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrInvalidCursor indicates a listing cursor that cannot be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// ValidationError carries per-field validation messages.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidation returns an empty validation error ready for Add.
func NewValidation() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add records a message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// Err returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}
