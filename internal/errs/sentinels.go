// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSecret indicates a room code/secret pair matching no role.
	// Transport surfaces it identically to ErrNotFound so valid room codes
	// cannot be enumerated.
	ErrInvalidSecret = errors.New("invalid secret")

	// ErrUnauthorized indicates a missing or invalid identity token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPermissionDenied indicates an action above the caller's resolved role.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAlreadyPending indicates an outstanding access request for the same
	// (project, user) pair.
	ErrAlreadyPending = errors.New("request already pending")

	// ErrInvalidRequest indicates an access request that makes no sense
	// (owner requesting, or requested role not above the current one).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., duplicate path).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnsupportedLanguage indicates a language id with no runtime mapping.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrRateLimited indicates a temporary join lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
