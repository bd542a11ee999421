package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
)

// GrantRepo implements GrantRepository using PostgreSQL.
type GrantRepo struct{ db *DB }

// NewGrantRepo constructs a grant repository.
func NewGrantRepo(db *DB) *GrantRepo { return &GrantRepo{db: db} }

// Get loads the grant for (project, user).
func (r *GrantRepo) Get(ctx context.Context, projectID, userID uuid.UUID) (*model.Grant, error) {
	const q = `
SELECT project_id, user_id, role, created_at, updated_at
FROM collaborator_grants WHERE project_id=$1 AND user_id=$2`
	var g model.Grant
	err := r.db.Pool.QueryRow(ctx, q, projectID, userID).
		Scan(&g.ProjectID, &g.UserID, &g.Role, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Upsert creates or overwrites the grant's role. ON CONFLICT resolves the
// race of two concurrent redemptions: last writer wins.
func (r *GrantRepo) Upsert(ctx context.Context, projectID, userID uuid.UUID, role model.Role) error {
	const q = `
INSERT INTO collaborator_grants (project_id, user_id, role)
VALUES ($1,$2,$3)
ON CONFLICT (project_id, user_id)
DO UPDATE SET role=EXCLUDED.role, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, projectID, userID, role)
	return err
}

// ListByProject returns all grants on a project ordered by creation.
func (r *GrantRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Grant, error) {
	const q = `
SELECT project_id, user_id, role, created_at, updated_at
FROM collaborator_grants WHERE project_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Grant
	for rows.Next() {
		var g model.Grant
		if err = rows.Scan(&g.ProjectID, &g.UserID, &g.Role, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Delete removes the grant for (project, user).
func (r *GrantRepo) Delete(ctx context.Context, projectID, userID uuid.UUID) error {
	const q = `DELETE FROM collaborator_grants WHERE project_id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, projectID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
