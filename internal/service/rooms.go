package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/limiter"
	"github.com/pairpad/pairpad/internal/model"
	"github.com/pairpad/pairpad/internal/repository"
	"github.com/pairpad/pairpad/internal/roomcode"
)

// RoomService issues join links and redeems room code + secret pairs.
type RoomService interface {
	// IssueLink returns the join URL path for a role (owner only).
	IssueLink(ctx context.Context, projectID, callerID uuid.UUID, role model.Role) (string, error)
	// RotateSecret replaces one role's secret, invalidating only that
	// role's previously shared links (owner only).
	RotateSecret(ctx context.Context, projectID, callerID uuid.UUID, role model.Role) (string, error)
	// Redeem exchanges a room code + secret for a grant. Unknown codes and
	// secret mismatches return distinct sentinels that transport must
	// surface identically.
	Redeem(ctx context.Context, code, secret string, user uuid.UUID, ip string) (model.Membership, *model.Project, error)
}

type RoomServiceImpl struct {
	projects repository.ProjectRepository
	grants   repository.GrantRepository
	lim      limiter.Limiter
}

// NewRoomService constructs RoomService with required dependencies.
func NewRoomService(projects repository.ProjectRepository, grants repository.GrantRepository, lim limiter.Limiter) *RoomServiceImpl {
	return &RoomServiceImpl{projects: projects, grants: grants, lim: lim}
}

// JoinPath renders the join URL path for a room code and secret.
func JoinPath(code, secret string) string { return "/join/" + code + "/" + secret }

func (s *RoomServiceImpl) ownedProject(ctx context.Context, projectID, callerID uuid.UUID) (*model.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != callerID {
		return nil, errs.ErrPermissionDenied
	}
	return p, nil
}

// IssueLink returns the join path embedding the role's current secret.
func (s *RoomServiceImpl) IssueLink(ctx context.Context, projectID, callerID uuid.UUID, role model.Role) (string, error) {
	if role.Rank() == 0 {
		return "", errs.ErrInvalidRequest
	}
	p, err := s.ownedProject(ctx, projectID, callerID)
	if err != nil {
		return "", err
	}
	return JoinPath(p.RoomCode, p.Secrets.For(role)), nil
}

// RotateSecret overwrites one role's secret. The room code itself is stable
// for the project's lifetime, so other roles' links keep working.
func (s *RoomServiceImpl) RotateSecret(ctx context.Context, projectID, callerID uuid.UUID, role model.Role) (string, error) {
	if role.Rank() == 0 {
		return "", errs.ErrInvalidRequest
	}
	if _, err := s.ownedProject(ctx, projectID, callerID); err != nil {
		return "", err
	}
	secret, err := roomcode.New()
	if err != nil {
		return "", err
	}
	if err := s.projects.SetSecret(ctx, projectID, role, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// Redeem looks up the room, matches the secret highest privilege first, and
// upserts the grant. Redemption always reflects the secret's tier: a lower
// secret overwrites a higher existing grant (no ratchet). The owner
// short-circuits to owner status without consuming a grant slot.
func (s *RoomServiceImpl) Redeem(ctx context.Context, code, secret string, user uuid.UUID, ip string) (model.Membership, *model.Project, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, user, ipHash)
	if err != nil {
		return model.Membership{}, nil, err
	}
	if !allowed {
		return model.Membership{}, nil, errs.ErrRateLimited
	}

	p, err := s.projects.GetByRoomCode(ctx, code)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// Unknown codes count as failures too, otherwise the limiter
			// would only slow down the easy half of an enumeration.
			if blocked, _, ferr := s.lim.Failure(ctx, user, ipHash); ferr == nil && blocked {
				return model.Membership{}, nil, errs.ErrRateLimited
			}
		}
		return model.Membership{}, nil, err
	}

	if p.OwnerID == user {
		_ = s.lim.Success(ctx, user, ipHash)
		return model.Membership{Owner: true}, p, nil
	}

	// Fixed matching order, highest privilege first: if a secret were ever
	// duplicated across tiers the higher one wins.
	var matched model.Role
	for _, role := range model.RolesByPrivilege {
		if roomcode.Equal(secret, p.Secrets.For(role)) {
			matched = role
			break
		}
	}
	if matched == "" {
		if blocked, _, ferr := s.lim.Failure(ctx, user, ipHash); ferr == nil && blocked {
			return model.Membership{}, nil, errs.ErrRateLimited
		}
		return model.Membership{}, nil, errs.ErrInvalidSecret
	}

	if err := s.grants.Upsert(ctx, p.ID, user, matched); err != nil {
		return model.Membership{}, nil, err
	}
	_ = s.lim.Success(ctx, user, ipHash)
	return model.Membership{Role: matched}, p, nil
}
