package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
)

// ProjectRepo implements ProjectRepository using PostgreSQL.
type ProjectRepo struct{ db *DB }

// NewProjectRepo constructs a project repository.
func NewProjectRepo(db *DB) *ProjectRepo { return &ProjectRepo{db: db} }

const projectCols = `id, name, owner_id, public, room_code,
secret_view, secret_edit, secret_full_access, code, language, created_at, updated_at`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Public, &p.RoomCode,
		&p.Secrets.View, &p.Secrets.Edit, &p.Secrets.FullAccess,
		&p.Code, &p.Language, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new project. Room code collisions surface as ErrAlreadyExists
// so the caller can regenerate and retry.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	const q = `
INSERT INTO projects (id, name, owner_id, public, room_code,
  secret_view, secret_edit, secret_full_access, code, language)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.Pool.Exec(ctx, q, p.ID, p.Name, p.OwnerID, p.Public, p.RoomCode,
		p.Secrets.View, p.Secrets.Edit, p.Secrets.FullAccess, p.Code, p.Language)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID loads a project by id.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	q := `SELECT ` + projectCols + ` FROM projects WHERE id=$1`
	return scanProject(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByRoomCode loads a project by room code.
func (r *ProjectRepo) GetByRoomCode(ctx context.Context, code string) (*model.Project, error) {
	q := `SELECT ` + projectCols + ` FROM projects WHERE room_code=$1`
	return scanProject(r.db.Pool.QueryRow(ctx, q, code))
}

// ListForUser returns owned projects plus projects with a grant, owned
// first, each row carrying the user's granted role (RoleNone for owned).
func (r *ProjectRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.ProjectWithRole, error) {
	const q = `
SELECT p.id, p.name, p.owner_id, p.public, p.room_code,
p.secret_view, p.secret_edit, p.secret_full_access, p.code, p.language,
p.created_at, p.updated_at, COALESCE(g.role, 'none') AS role
FROM projects p
LEFT JOIN collaborator_grants g ON g.project_id=p.id AND g.user_id=$1
WHERE p.owner_id=$1 OR g.user_id IS NOT NULL
ORDER BY (p.owner_id=$1) DESC, p.updated_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProjectWithRole
	for rows.Next() {
		var p model.ProjectWithRole
		if err = rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Public, &p.RoomCode,
			&p.Secrets.View, &p.Secrets.Edit, &p.Secrets.FullAccess,
			&p.Code, &p.Language, &p.CreatedAt, &p.UpdatedAt, &p.Role); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update persists name and visibility.
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, name string, public bool) error {
	const q = `UPDATE projects SET name=$2, public=$3, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, name, public)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetSecret overwrites one role's secret. The column is derived from a closed
// enum, never from caller input.
func (r *ProjectRepo) SetSecret(ctx context.Context, id uuid.UUID, role model.Role, secret string) error {
	var col string
	switch role {
	case model.RoleView:
		col = "secret_view"
	case model.RoleEdit:
		col = "secret_edit"
	case model.RoleFullAccess:
		col = "secret_full_access"
	default:
		return fmt.Errorf("set secret: bad role %q", role)
	}
	q := `UPDATE projects SET ` + col + `=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, secret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SaveCode persists the legacy single-blob code and language. An empty
// language keeps the stored one.
func (r *ProjectRepo) SaveCode(ctx context.Context, id uuid.UUID, code, language string) error {
	const q = `
UPDATE projects
SET code=$2, language=CASE WHEN $3='' THEN language ELSE $3 END, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, code, language)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the project; dependent rows cascade via FK.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM projects WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
