package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
)

// FileRepo implements FileRepository using PostgreSQL.
type FileRepo struct{ db *DB }

// NewFileRepo constructs a file tree repository.
func NewFileRepo(db *DB) *FileRepo { return &FileRepo{db: db} }

const fileCols = `id, project_id, parent_id, name, path, folder, content, created_at, updated_at`

// Create inserts a node; duplicate (project, path) maps to ErrAlreadyExists.
func (r *FileRepo) Create(ctx context.Context, n *model.FileNode) error {
	const q = `
INSERT INTO file_nodes (id, project_id, parent_id, name, path, folder, content)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Pool.Exec(ctx, q, n.ID, n.ProjectID, n.ParentID, n.Name, n.Path, n.Folder, n.Content)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID loads a node by id.
func (r *FileRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.FileNode, error) {
	q := `SELECT ` + fileCols + ` FROM file_nodes WHERE id=$1`
	var n model.FileNode
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&n.ID, &n.ProjectID, &n.ParentID,
		&n.Name, &n.Path, &n.Folder, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// ListByProject returns all nodes of a project ordered by path.
func (r *FileRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.FileNode, error) {
	q := `SELECT ` + fileCols + ` FROM file_nodes WHERE project_id=$1 ORDER BY path ASC`
	rows, err := r.db.Pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FileNode
	for rows.Next() {
		var n model.FileNode
		if err = rows.Scan(&n.ID, &n.ProjectID, &n.ParentID, &n.Name, &n.Path,
			&n.Folder, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountByProject returns the number of nodes in a project.
func (r *FileRepo) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	const q = `SELECT COUNT(*) FROM file_nodes WHERE project_id=$1`
	var n int64
	if err := r.db.Pool.QueryRow(ctx, q, projectID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Rename updates the node's name and path. For folders every descendant path
// is rewritten in the same transaction so no stale prefixes survive.
func (r *FileRepo) Rename(ctx context.Context, id uuid.UUID, name, newPath, oldPath string, folder bool) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
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

	const upd = `UPDATE file_nodes SET name=$2, path=$3, updated_at=now() WHERE id=$1`
	var tag pgconn.CommandTag
	tag, err = tx.Exec(ctx, upd, id, name, newPath)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	if folder {
		// Descendants are matched by exact path prefix via left(); LIKE would
		// treat _ and % in folder names as wildcards and catch unrelated
		// siblings. The rewrite keeps each child's own tail segment.
		const cascade = `
UPDATE file_nodes n SET path = $3 || substr(n.path, length($2)+1), updated_at=now()
FROM file_nodes f
WHERE f.id=$1 AND n.project_id=f.project_id AND left(n.path, length($2)+1) = $2 || '/'`
		if _, err = tx.Exec(ctx, cascade, id, oldPath, newPath); err != nil {
			if isUniqueViolation(err) {
				return errs.ErrAlreadyExists
			}
			return err
		}
	}
	return nil
}

// SaveContent overwrites a file's content with no version check: whichever
// debounced persist lands last wins in full.
func (r *FileRepo) SaveContent(ctx context.Context, id uuid.UUID, content string) error {
	const q = `UPDATE file_nodes SET content=$2, updated_at=now() WHERE id=$1 AND folder=false`
	tag, err := r.db.Pool.Exec(ctx, q, id, content)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a node and, for folders, all descendants by path prefix in
// one transaction, leaving no orphaned children behind.
func (r *FileRepo) Delete(ctx context.Context, id uuid.UUID, projectID uuid.UUID, path string, folder bool) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
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

	if folder {
		// left() keeps the prefix match literal for names containing _ or %.
		const desc = `DELETE FROM file_nodes WHERE project_id=$1 AND left(path, length($2)+1) = $2 || '/'`
		if _, err = tx.Exec(ctx, desc, projectID, path); err != nil {
			return err
		}
	}

	const del = `DELETE FROM file_nodes WHERE id=$1`
	var tag pgconn.CommandTag
	tag, err = tx.Exec(ctx, del, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
