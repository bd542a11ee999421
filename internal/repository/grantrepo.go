package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/model"
)

// GrantRepository provides access to collaborator grants.
type GrantRepository interface {
	// Get loads the grant for (project, user); errs.ErrNotFound when absent.
	Get(ctx context.Context, projectID, userID uuid.UUID) (*model.Grant, error)
	// Upsert creates or overwrites the grant's role. Overwrite is
	// deliberate: redemption always reflects the secret's tier, never a
	// ratchet, so downgrades go through too.
	Upsert(ctx context.Context, projectID, userID uuid.UUID, role model.Role) error
	// ListByProject returns all grants on a project.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Grant, error)
	// Delete removes the grant (revoke or leave).
	Delete(ctx context.Context, projectID, userID uuid.UUID) error
}
