package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/model"
)

// FileRepository provides access to project file trees.
type FileRepository interface {
	// Create inserts a node; errs.ErrAlreadyExists on a duplicate path.
	Create(ctx context.Context, n *model.FileNode) error
	// GetByID loads a node by id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.FileNode, error)
	// ListByProject returns all nodes of a project ordered by path.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.FileNode, error)
	// CountByProject returns the number of nodes in a project.
	CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	// Rename updates a node's name and path and, for folders, rewrites all
	// descendant paths in the same transaction.
	Rename(ctx context.Context, id uuid.UUID, name, newPath, oldPath string, folder bool) error
	// SaveContent overwrites a file's content. Last writer wins; there is
	// no version check.
	SaveContent(ctx context.Context, id uuid.UUID, content string) error
	// Delete removes a node and, for folders, every descendant by path
	// prefix in the same transaction.
	Delete(ctx context.Context, id uuid.UUID, projectID uuid.UUID, path string, folder bool) error
}
