// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/model"
)

// ProjectRepository provides CRUD access to projects.
type ProjectRepository interface {
	// Create inserts a new project with its room code and secrets.
	Create(ctx context.Context, p *model.Project) error
	// GetByID loads a project by id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// GetByRoomCode loads a project by its room code.
	GetByRoomCode(ctx context.Context, code string) (*model.Project, error)
	// ListForUser returns projects the user owns or collaborates on, each
	// carrying the user's granted role (RoleNone for owned projects).
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.ProjectWithRole, error)
	// Update persists mutable fields (name, visibility).
	Update(ctx context.Context, id uuid.UUID, name string, public bool) error
	// SetSecret overwrites the secret for one role.
	SetSecret(ctx context.Context, id uuid.UUID, role model.Role, secret string) error
	// SaveCode persists the legacy single-blob code and language.
	SaveCode(ctx context.Context, id uuid.UUID, code, language string) error
	// Delete removes the project (grants, requests and files cascade).
	Delete(ctx context.Context, id uuid.UUID) error
}
