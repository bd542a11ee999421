package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
	"github.com/pairpad/pairpad/internal/repository"
	"github.com/pairpad/pairpad/internal/roomcode"
)

// ProjectService provides project lifecycle operations.
type ProjectService interface {
	// Create makes a project with a fresh room code and per-role secrets.
	Create(ctx context.Context, ownerID uuid.UUID, name string, public bool, language string) (*model.Project, error)
	// Get loads a project the caller may view (member or public).
	Get(ctx context.Context, id, callerID uuid.UUID) (*model.Project, model.Membership, error)
	// List returns projects the caller owns or collaborates on, with the
	// caller's role on each.
	List(ctx context.Context, callerID uuid.UUID) ([]model.ProjectWithRole, error)
	// Update renames / changes visibility (owner only).
	Update(ctx context.Context, id, callerID uuid.UUID, name string, public bool) error
	// Delete removes the project and everything under it (owner only).
	Delete(ctx context.Context, id, callerID uuid.UUID) error
	// SaveCode persists the legacy single-blob code (edit role or above).
	SaveCode(ctx context.Context, id, callerID uuid.UUID, code, language string) error
}

type ProjectServiceImpl struct {
	projects repository.ProjectRepository
	grants   repository.GrantRepository
	files    repository.FileRepository
}

// NewProjectService constructs ProjectService with required repositories.
func NewProjectService(projects repository.ProjectRepository, grants repository.GrantRepository, files repository.FileRepository) *ProjectServiceImpl {
	return &ProjectServiceImpl{projects: projects, grants: grants, files: files}
}

// roomCodeAttempts bounds retries on the (unlikely) room code collision.
const roomCodeAttempts = 5

// Create generates the room code and all three role secrets up front; the
// code is immutable afterwards, secrets rotate independently.
func (s *ProjectServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, name string, public bool, language string) (*model.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("validation: empty name: %w", errs.ErrInvalidRequest)
	}
	if ownerID == uuid.Nil {
		return nil, errors.New("validation: empty ownerID")
	}
	if language == "" {
		language = "javascript"
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	var secrets model.RoleSecrets
	for _, role := range model.RolesByPrivilege {
		sec, err := roomcode.New()
		if err != nil {
			return nil, err
		}
		secrets.Set(role, sec)
	}

	p := &model.Project{
		ID:       id,
		Name:     name,
		OwnerID:  ownerID,
		Public:   public,
		Secrets:  secrets,
		Language: language,
	}

	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		p.RoomCode, err = roomcode.New()
		if err != nil {
			return nil, err
		}
		err = s.projects.Create(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, errs.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("create project: room code space exhausted: %w", err)
}

// Get returns the project plus the caller's membership. Non-members see
// public projects with RoleNone membership; private projects are reported
// as not found rather than forbidden.
func (s *ProjectServiceImpl) Get(ctx context.Context, id, callerID uuid.UUID) (*model.Project, model.Membership, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, model.Membership{}, err
	}
	m, err := membershipFor(ctx, s.grants, p, callerID)
	if err != nil {
		return nil, model.Membership{}, err
	}
	if !m.CanView() && !p.Public {
		return nil, model.Membership{}, errs.ErrNotFound
	}
	if !m.Owner {
		// Secrets are only the owner's to see.
		p.Secrets = model.RoleSecrets{}
	}
	return p, m, nil
}

// List returns the caller's projects, owned first.
func (s *ProjectServiceImpl) List(ctx context.Context, callerID uuid.UUID) ([]model.ProjectWithRole, error) {
	ps, err := s.projects.ListForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	for i := range ps {
		if ps[i].OwnerID != callerID {
			ps[i].Secrets = model.RoleSecrets{}
		}
	}
	return ps, nil
}

func (s *ProjectServiceImpl) ownerCheck(ctx context.Context, id, callerID uuid.UUID) error {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID != callerID {
		return errs.ErrPermissionDenied
	}
	return nil
}

// Update renames or toggles visibility; owner only.
func (s *ProjectServiceImpl) Update(ctx context.Context, id, callerID uuid.UUID, name string, public bool) error {
	if name == "" {
		return fmt.Errorf("validation: empty name: %w", errs.ErrInvalidRequest)
	}
	if err := s.ownerCheck(ctx, id, callerID); err != nil {
		return err
	}
	return s.projects.Update(ctx, id, name, public)
}

// Delete removes the project; grants, requests and files cascade.
func (s *ProjectServiceImpl) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	if err := s.ownerCheck(ctx, id, callerID); err != nil {
		return err
	}
	return s.projects.Delete(ctx, id)
}

// SaveCode persists the legacy blob, last writer wins. Edit role or above;
// enforced here regardless of UI gating.
func (s *ProjectServiceImpl) SaveCode(ctx context.Context, id, callerID uuid.UUID, code, language string) error {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m, err := membershipFor(ctx, s.grants, p, callerID)
	if err != nil {
		return err
	}
	if !m.CanEdit() {
		return errs.ErrPermissionDenied
	}
	// The blob only exists while the project has no file tree; once nodes
	// appear, content lives on them and the blob is frozen.
	n, err := s.files.CountByProject(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("project has a file tree: %w", errs.ErrInvalidRequest)
	}
	if language == "" {
		language = p.Language
	}
	return s.projects.SaveCode(ctx, id, code, language)
}
