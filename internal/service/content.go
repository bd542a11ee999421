package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/repository"
)

// ContentStore adapts the repositories to the collaboration hub's persistence
// boundary. Role checks happen at session admission; by the time a save
// reaches here it is already authorized.
type ContentStore struct {
	files    repository.FileRepository
	projects repository.ProjectRepository
}

// NewContentStore constructs the hub persistence adapter.
func NewContentStore(files repository.FileRepository, projects repository.ProjectRepository) *ContentStore {
	return &ContentStore{files: files, projects: projects}
}

// SaveFileContent overwrites one file's content, last writer wins.
func (s *ContentStore) SaveFileContent(ctx context.Context, fileID uuid.UUID, content string) error {
	return s.files.SaveContent(ctx, fileID, content)
}

// SaveProjectCode overwrites the legacy single-blob code. The empty language
// keeps whatever the project already stores.
func (s *ContentStore) SaveProjectCode(ctx context.Context, projectID uuid.UUID, content string) error {
	return s.projects.SaveCode(ctx, projectID, content, "")
}
