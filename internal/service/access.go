// Package service contains application services for projects, access
// control, room links and file trees.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
	"github.com/pairpad/pairpad/internal/repository"
)

// AccessService resolves roles and runs the access request workflow.
type AccessService interface {
	// Resolve returns the user's current membership on a project. It is a
	// pure read of the owner field plus the grant row; callers re-resolve
	// after any grant mutation.
	Resolve(ctx context.Context, projectID, userID uuid.UUID) (model.Membership, error)
	// RequestAccess opens a pending upgrade request.
	RequestAccess(ctx context.Context, projectID, userID uuid.UUID, role model.Role, message string) (*model.AccessRequest, error)
	// Approve grants the requested role and closes the request (owner only).
	Approve(ctx context.Context, requestID, callerID uuid.UUID) (*model.AccessRequest, error)
	// Reject closes the request with no grant side effect (owner only).
	Reject(ctx context.Context, requestID, callerID uuid.UUID) error
	// Withdraw removes the caller's own still-pending request.
	Withdraw(ctx context.Context, requestID, callerID uuid.UUID) error
	// ListProjectRequests returns a project's requests (owner only).
	ListProjectRequests(ctx context.Context, projectID, callerID uuid.UUID) ([]model.AccessRequest, error)
	// ListUserRequests returns the caller's requests across projects.
	ListUserRequests(ctx context.Context, userID uuid.UUID) ([]model.AccessRequest, error)
	// Collaborators lists grants on a project (any member).
	Collaborators(ctx context.Context, projectID, callerID uuid.UUID) ([]model.Grant, error)
	// Revoke removes a collaborator's grant (owner only).
	Revoke(ctx context.Context, projectID, callerID, targetID uuid.UUID) error
	// Leave removes the caller's own grant.
	Leave(ctx context.Context, projectID, callerID uuid.UUID) error
}

type AccessServiceImpl struct {
	projects repository.ProjectRepository
	grants   repository.GrantRepository
	requests repository.RequestRepository
}

// NewAccessService constructs AccessService with required repositories.
func NewAccessService(projects repository.ProjectRepository, grants repository.GrantRepository, requests repository.RequestRepository) *AccessServiceImpl {
	return &AccessServiceImpl{projects: projects, grants: grants, requests: requests}
}

// membershipFor derives membership for an already-loaded project.
func membershipFor(ctx context.Context, grants repository.GrantRepository, p *model.Project, userID uuid.UUID) (model.Membership, error) {
	if p.OwnerID == userID {
		return model.Membership{Owner: true}, nil
	}
	g, err := grants.Get(ctx, p.ID, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Membership{Role: model.RoleNone}, nil
		}
		return model.Membership{}, err
	}
	return model.ResolveRole(p, userID, g), nil
}

// Resolve loads the project and derives the caller's membership.
func (s *AccessServiceImpl) Resolve(ctx context.Context, projectID, userID uuid.UUID) (model.Membership, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return model.Membership{}, err
	}
	return membershipFor(ctx, s.grants, p, userID)
}

// RequestAccess validates and opens a pending request. Only edit and
// full_access are requestable (view is the floor), the requested tier must
// exceed the caller's current one, and the owner cannot request.
func (s *AccessServiceImpl) RequestAccess(ctx context.Context, projectID, userID uuid.UUID, role model.Role, message string) (*model.AccessRequest, error) {
	if role != model.RoleEdit && role != model.RoleFullAccess {
		return nil, errs.ErrInvalidRequest
	}
	m, err := s.Resolve(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if m.Owner || role.Rank() <= m.EffectiveRole().Rank() {
		return nil, errs.ErrInvalidRequest
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	req := &model.AccessRequest{
		ID:            id,
		ProjectID:     projectID,
		UserID:        userID,
		RequestedRole: role,
		PriorRole:     m.Role,
		Message:       message,
		Status:        model.StatusPending,
		CreatedAt:     time.Now(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ownedRequest loads a request and checks the caller owns its project.
func (s *AccessServiceImpl) ownedRequest(ctx context.Context, requestID, callerID uuid.UUID) (*model.AccessRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != callerID {
		return nil, errs.ErrPermissionDenied
	}
	return req, nil
}

// Approve closes the request and materializes the grant atomically. The
// repository performs both in one transaction; a request is never observable
// as approved without its grant.
func (s *AccessServiceImpl) Approve(ctx context.Context, requestID, callerID uuid.UUID) (*model.AccessRequest, error) {
	req, err := s.ownedRequest(ctx, requestID, callerID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusPending {
		return nil, errs.ErrInvalidRequest
	}
	return s.requests.Approve(ctx, requestID)
}

// Reject transitions the request to rejected; no grant side effect.
func (s *AccessServiceImpl) Reject(ctx context.Context, requestID, callerID uuid.UUID) error {
	req, err := s.ownedRequest(ctx, requestID, callerID)
	if err != nil {
		return err
	}
	if req.Status != model.StatusPending {
		return errs.ErrInvalidRequest
	}
	return s.requests.Reject(ctx, requestID)
}

// Withdraw removes the caller's own pending request.
func (s *AccessServiceImpl) Withdraw(ctx context.Context, requestID, callerID uuid.UUID) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.UserID != callerID {
		return errs.ErrPermissionDenied
	}
	if req.Status != model.StatusPending {
		return errs.ErrInvalidRequest
	}
	return s.requests.Withdraw(ctx, requestID)
}

// ListProjectRequests returns a project's requests; owner only.
func (s *AccessServiceImpl) ListProjectRequests(ctx context.Context, projectID, callerID uuid.UUID) ([]model.AccessRequest, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != callerID {
		return nil, errs.ErrPermissionDenied
	}
	return s.requests.ListByProject(ctx, projectID)
}

// ListUserRequests returns the caller's own requests.
func (s *AccessServiceImpl) ListUserRequests(ctx context.Context, userID uuid.UUID) ([]model.AccessRequest, error) {
	return s.requests.ListByUser(ctx, userID)
}

// Collaborators lists grants on a project; any member may look.
func (s *AccessServiceImpl) Collaborators(ctx context.Context, projectID, callerID uuid.UUID) ([]model.Grant, error) {
	m, err := s.Resolve(ctx, projectID, callerID)
	if err != nil {
		return nil, err
	}
	if !m.CanView() {
		return nil, errs.ErrPermissionDenied
	}
	return s.grants.ListByProject(ctx, projectID)
}

// Revoke removes a collaborator's grant; owner only.
func (s *AccessServiceImpl) Revoke(ctx context.Context, projectID, callerID, targetID uuid.UUID) error {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OwnerID != callerID {
		return errs.ErrPermissionDenied
	}
	return s.grants.Delete(ctx, projectID, targetID)
}

// Leave removes the caller's own grant. Owners cannot leave their project.
func (s *AccessServiceImpl) Leave(ctx context.Context, projectID, callerID uuid.UUID) error {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OwnerID == callerID {
		return errs.ErrInvalidRequest
	}
	return s.grants.Delete(ctx, projectID, callerID)
}
