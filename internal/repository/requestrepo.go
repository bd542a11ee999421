package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/model"
)

// RequestRepository provides access to access-level upgrade requests.
type RequestRepository interface {
	// Create inserts a pending request; errs.ErrAlreadyPending when one is
	// already outstanding for (project, user).
	Create(ctx context.Context, r *model.AccessRequest) error
	// GetByID loads a request by id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.AccessRequest, error)
	// Approve atomically marks the request approved and upserts the
	// matching collaborator grant in one transaction. The request must
	// still be pending.
	Approve(ctx context.Context, id uuid.UUID) (*model.AccessRequest, error)
	// Reject marks a pending request rejected; no grant side effect.
	Reject(ctx context.Context, id uuid.UUID) error
	// Withdraw deletes a still-pending request.
	Withdraw(ctx context.Context, id uuid.UUID) error
	// ListByProject returns a project's requests, pending first, newest first.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.AccessRequest, error)
	// ListByUser returns a user's own requests across projects.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.AccessRequest, error)
}
