package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
	"github.com/pairpad/pairpad/internal/repository"
)

// FileService provides file tree operations with role enforcement at the
// point of mutation (defense in depth: the UI also gates, storage re-checks).
type FileService interface {
	// Tree lists all nodes of a project ordered by path.
	Tree(ctx context.Context, projectID, callerID uuid.UUID) ([]model.FileNode, error)
	// Create adds a file or folder under a parent (full_access or owner).
	Create(ctx context.Context, projectID, callerID uuid.UUID, parentID *uuid.UUID, name string, folder bool) (*model.FileNode, error)
	// Get loads a single node.
	Get(ctx context.Context, fileID, callerID uuid.UUID) (*model.FileNode, error)
	// Rename changes a node's name; folder descendants' paths are cascaded.
	Rename(ctx context.Context, fileID, callerID uuid.UUID, newName string) (*model.FileNode, error)
	// SaveContent overwrites a file's content, last writer wins (edit role).
	SaveContent(ctx context.Context, fileID, callerID uuid.UUID, content string) error
	// Delete removes a node and, for folders, every descendant.
	Delete(ctx context.Context, fileID, callerID uuid.UUID) error
}

type FileServiceImpl struct {
	files    repository.FileRepository
	projects repository.ProjectRepository
	grants   repository.GrantRepository
}

// NewFileService constructs FileService with required repositories.
func NewFileService(files repository.FileRepository, projects repository.ProjectRepository, grants repository.GrantRepository) *FileServiceImpl {
	return &FileServiceImpl{files: files, projects: projects, grants: grants}
}

func (s *FileServiceImpl) membership(ctx context.Context, projectID, callerID uuid.UUID) (model.Membership, *model.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return model.Membership{}, nil, err
	}
	m, err := membershipFor(ctx, s.grants, p, callerID)
	if err != nil {
		return model.Membership{}, nil, err
	}
	return m, p, nil
}

// validateName rejects names that would break path derivation.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return fmt.Errorf("validation: bad node name %q: %w", name, errs.ErrInvalidRequest)
	}
	return nil
}

// Tree lists a project's nodes; members or public projects.
func (s *FileServiceImpl) Tree(ctx context.Context, projectID, callerID uuid.UUID) ([]model.FileNode, error) {
	m, p, err := s.membership(ctx, projectID, callerID)
	if err != nil {
		return nil, err
	}
	if !m.CanView() && !p.Public {
		return nil, errs.ErrNotFound
	}
	return s.files.ListByProject(ctx, projectID)
}

// Create inserts a node. Path is always parent's path + "/" + name; files
// start with empty content, folders with none.
func (s *FileServiceImpl) Create(ctx context.Context, projectID, callerID uuid.UUID, parentID *uuid.UUID, name string, folder bool) (*model.FileNode, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	m, _, err := s.membership(ctx, projectID, callerID)
	if err != nil {
		return nil, err
	}
	if !m.CanManageFiles() {
		return nil, errs.ErrPermissionDenied
	}

	path := name
	if parentID != nil {
		parent, err := s.files.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != projectID || !parent.Folder {
			return nil, fmt.Errorf("validation: parent is not a folder in this project: %w", errs.ErrInvalidRequest)
		}
		path = parent.Path + "/" + name
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	n := &model.FileNode{
		ID:        id,
		ProjectID: projectID,
		ParentID:  parentID,
		Name:      name,
		Path:      path,
		Folder:    folder,
	}
	if !folder {
		empty := ""
		n.Content = &empty
	}
	if err := s.files.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Get loads a node after a view check on its project.
func (s *FileServiceImpl) Get(ctx context.Context, fileID, callerID uuid.UUID) (*model.FileNode, error) {
	n, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	m, p, err := s.membership(ctx, n.ProjectID, callerID)
	if err != nil {
		return nil, err
	}
	if !m.CanView() && !p.Public {
		return nil, errs.ErrNotFound
	}
	return n, nil
}

// Rename rewrites the node's own path and cascades descendant paths for
// folders, all in one repository transaction.
func (s *FileServiceImpl) Rename(ctx context.Context, fileID, callerID uuid.UUID, newName string) (*model.FileNode, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}
	n, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	m, _, err := s.membership(ctx, n.ProjectID, callerID)
	if err != nil {
		return nil, err
	}
	if !m.CanManageFiles() {
		return nil, errs.ErrPermissionDenied
	}

	newPath := newName
	if idx := strings.LastIndex(n.Path, "/"); idx >= 0 {
		newPath = n.Path[:idx+1] + newName
	}
	if err := s.files.Rename(ctx, fileID, newName, newPath, n.Path, n.Folder); err != nil {
		return nil, err
	}
	n.Name, n.Path = newName, newPath
	return n, nil
}

// SaveContent overwrites a file's content with no version check: the last
// successful persist wins in full, concurrent edits are not merged.
func (s *FileServiceImpl) SaveContent(ctx context.Context, fileID, callerID uuid.UUID, content string) error {
	n, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if n.Folder {
		return fmt.Errorf("validation: folder has no content: %w", errs.ErrInvalidRequest)
	}
	m, _, err := s.membership(ctx, n.ProjectID, callerID)
	if err != nil {
		return err
	}
	if !m.CanEdit() {
		return errs.ErrPermissionDenied
	}
	return s.files.SaveContent(ctx, fileID, content)
}

// Delete removes the node; folders take all descendants with them so no
// orphaned child with a dangling parent survives.
func (s *FileServiceImpl) Delete(ctx context.Context, fileID, callerID uuid.UUID) error {
	n, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	m, _, err := s.membership(ctx, n.ProjectID, callerID)
	if err != nil {
		return err
	}
	if !m.CanManageFiles() {
		return errs.ErrPermissionDenied
	}
	return s.files.Delete(ctx, fileID, n.ProjectID, n.Path, n.Folder)
}
