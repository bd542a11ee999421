// Package limiter defines interfaces and implementations for rate limiting
// room join attempts. Brute-forcing an 8-character secret is the main abuse
// vector of the join-by-link flow.
package limiter

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Limiter controls join attempts and temporary lockouts per (user, ip).
type Limiter interface {
	// Allow reports whether a join attempt is currently allowed and an
	// optional retry-after.
	Allow(ctx context.Context, userID uuid.UUID, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful redemption.
	Success(ctx context.Context, userID uuid.UUID, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, userID uuid.UUID, ipHash []byte) (bool, time.Duration, error)
}
