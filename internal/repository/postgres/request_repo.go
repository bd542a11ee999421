package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
)

// RequestRepo implements RequestRepository using PostgreSQL.
type RequestRepo struct{ db *DB }

// NewRequestRepo constructs an access request repository.
func NewRequestRepo(db *DB) *RequestRepo { return &RequestRepo{db: db} }

const requestCols = `id, project_id, user_id, requested_role, prior_role,
message, status, created_at, responded_at`

func scanRequest(row pgx.Row) (*model.AccessRequest, error) {
	var a model.AccessRequest
	err := row.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.RequestedRole, &a.PriorRole,
		&a.Message, &a.Status, &a.CreatedAt, &a.RespondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a pending request. The partial unique index on
// (project_id, user_id) WHERE status='pending' enforces single-pending.
func (r *RequestRepo) Create(ctx context.Context, a *model.AccessRequest) error {
	const q = `
INSERT INTO access_requests (id, project_id, user_id, requested_role, prior_role, message, status)
VALUES ($1,$2,$3,$4,$5,$6,'pending')`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.ProjectID, a.UserID,
		a.RequestedRole, a.PriorRole, a.Message)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyPending
	}
	return err
}

// GetByID loads a request by id.
func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.AccessRequest, error) {
	q := `SELECT ` + requestCols + ` FROM access_requests WHERE id=$1`
	return scanRequest(r.db.Pool.QueryRow(ctx, q, id))
}

// Approve marks the request approved and upserts the matching grant in one
// transaction. A request is never observable as approved without its grant.
func (r *RequestRepo) Approve(ctx context.Context, id uuid.UUID) (req *model.AccessRequest, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	sel := `SELECT ` + requestCols + ` FROM access_requests WHERE id=$1 AND status='pending' FOR UPDATE`
	req, err = scanRequest(tx.QueryRow(ctx, sel, id))
	if err != nil {
		return nil, err
	}

	const grant = `
INSERT INTO collaborator_grants (project_id, user_id, role)
VALUES ($1,$2,$3)
ON CONFLICT (project_id, user_id)
DO UPDATE SET role=EXCLUDED.role, updated_at=now()`
	if _, err = tx.Exec(ctx, grant, req.ProjectID, req.UserID, req.RequestedRole); err != nil {
		return nil, err
	}

	const upd = `UPDATE access_requests SET status='approved', responded_at=now() WHERE id=$1`
	if _, err = tx.Exec(ctx, upd, id); err != nil {
		return nil, err
	}
	req.Status = model.StatusApproved
	return req, nil
}

// Reject marks a pending request rejected with a response timestamp.
func (r *RequestRepo) Reject(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE access_requests SET status='rejected', responded_at=now() WHERE id=$1 AND status='pending'`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Withdraw deletes a still-pending request.
func (r *RequestRepo) Withdraw(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM access_requests WHERE id=$1 AND status='pending'`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListByProject returns a project's requests, pending first, newest first.
func (r *RequestRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.AccessRequest, error) {
	q := `SELECT ` + requestCols + `
FROM access_requests WHERE project_id=$1
ORDER BY (status='pending') DESC, created_at DESC`
	return r.list(ctx, q, projectID)
}

// ListByUser returns a user's own requests across projects, newest first.
func (r *RequestRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.AccessRequest, error) {
	q := `SELECT ` + requestCols + `
FROM access_requests WHERE user_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

func (r *RequestRepo) list(ctx context.Context, q string, arg any) ([]model.AccessRequest, error) {
	rows, err := r.db.Pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AccessRequest
	for rows.Next() {
		var a model.AccessRequest
		if err = rows.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.RequestedRole, &a.PriorRole,
			&a.Message, &a.Status, &a.CreatedAt, &a.RespondedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
