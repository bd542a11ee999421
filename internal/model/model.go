// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is a collaborator's permission tier on a project. Ownership is not a
// Role: it is tracked on the Project itself and always supersedes any grant.
type Role string

const (
	RoleView       Role = "view"
	RoleEdit       Role = "edit"
	RoleFullAccess Role = "full_access"

	// RoleNone is the resolved role of a user with no grant. It is never
	// stored.
	RoleNone Role = "none"
)

// RolesByPrivilege lists grantable roles highest first. Secret matching
// iterates in this exact order so that a secret accidentally duplicated
// across tiers resolves to the higher privilege.
var RolesByPrivilege = [3]Role{RoleFullAccess, RoleEdit, RoleView}

// ParseRole validates a wire/storage role value.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleView, RoleEdit, RoleFullAccess:
		return Role(s), true
	}
	return RoleNone, false
}

// Rank orders roles for comparison: none < view < edit < full_access.
func (r Role) Rank() int {
	switch r {
	case RoleView:
		return 1
	case RoleEdit:
		return 2
	case RoleFullAccess:
		return 3
	}
	return 0
}

// RoleSecrets is the fixed mapping from grantable role to its current
// shared secret. Exactly one secret exists per role; rotation overwrites.
type RoleSecrets struct {
	View       string
	Edit       string
	FullAccess string
}

// For returns the secret for a grantable role ("" for none).
func (s RoleSecrets) For(r Role) string {
	switch r {
	case RoleView:
		return s.View
	case RoleEdit:
		return s.Edit
	case RoleFullAccess:
		return s.FullAccess
	}
	return ""
}

// Set replaces the secret for a grantable role.
func (s *RoleSecrets) Set(r Role, secret string) {
	switch r {
	case RoleView:
		s.View = secret
	case RoleEdit:
		s.Edit = secret
	case RoleFullAccess:
		s.FullAccess = secret
	}
}

// Project is a shared editing space. RoomCode is globally unique and
// immutable after creation. Code/Language are the legacy single-blob mode,
// used only while the project has no file nodes.
type Project struct {
	ID        uuid.UUID
	Name      string
	OwnerID   uuid.UUID
	Public    bool
	RoomCode  string
	Secrets   RoleSecrets
	Code      string
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectWithRole is a listing row: the project plus the role the viewer
// holds on it (RoleNone for projects they own).
type ProjectWithRole struct {
	Project
	Role Role
}

// Grant is a durable (project, user) -> role record. At most one per pair;
// the owner never appears here.
type Grant struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// AccessRequest is a collaborator's pending ask for a higher role,
// terminated by owner approval/rejection or requester withdrawal.
// Withdrawal deletes the row rather than adding a fourth status.
type AccessRequest struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	UserID        uuid.UUID
	RequestedRole Role
	PriorRole     Role // requester's effective role at request time
	Message       string
	Status        RequestStatus
	CreatedAt     time.Time
	RespondedAt   *time.Time
}

// FileNode is a file or folder in a project tree. Path is the full
// slash-delimited location, unique within the project, always equal to the
// parent's path + "/" + name (or just the name at the root). Content is nil
// for folders.
type FileNode struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	ParentID  *uuid.UUID
	Name      string
	Path      string
	Folder    bool
	Content   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserInfo is the identity the external provider vouches for. The core
// stores only the id; name and avatar ride along for presence display.
type UserInfo struct {
	ID     uuid.UUID
	Name   string
	Avatar string
}

// Membership is the resolved standing of a user on a project.
type Membership struct {
	Owner bool
	Role  Role // RoleNone when Owner (owner has all capabilities implicitly)
}

// ResolveRole derives a user's membership from the project's owner field and
// their grant row (nil when absent). Pure; callers re-resolve after any
// grant mutation.
func ResolveRole(p *Project, userID uuid.UUID, g *Grant) Membership {
	if p.OwnerID == userID {
		return Membership{Owner: true}
	}
	if g == nil {
		return Membership{Role: RoleNone}
	}
	return Membership{Role: g.Role}
}

// CanView reports whether the member may read project content.
func (m Membership) CanView() bool { return m.Owner || m.Role != RoleNone }

// CanEdit reports whether the member may modify file content.
func (m Membership) CanEdit() bool {
	return m.Owner || m.Role == RoleEdit || m.Role == RoleFullAccess
}

// CanManageFiles reports whether the member may create/rename/delete nodes.
func (m Membership) CanManageFiles() bool { return m.Owner || m.Role == RoleFullAccess }

// EffectiveRole is the member's tier for request-validation comparisons;
// owners rank above full_access.
func (m Membership) EffectiveRole() Role {
	if m.Owner {
		return RoleFullAccess
	}
	return m.Role
}

// Presence is the ephemeral, connection-scoped state of a connected user.
// It is never persisted; channel membership is the liveness signal.
type Presence struct {
	User        UserInfo
	CurrentFile *uuid.UUID
	Typing      bool
	LastSeen    time.Time
}
