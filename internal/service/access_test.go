package service

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
)

type accessFixture struct {
	projects *fakeProjectRepo
	grants   *fakeGrantRepo
	requests *fakeRequestRepo
	svc      *AccessServiceImpl
	project  *model.Project
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	projects := newFakeProjectRepo()
	grants := newFakeGrantRepo()
	requests := newFakeRequestRepo(grants)
	return &accessFixture{
		projects: projects,
		grants:   grants,
		requests: requests,
		svc:      NewAccessService(projects, grants, requests),
		project:  seedProject(t, projects),
	}
}

func TestAccessService_Resolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newAccessFixture(t)

	m, err := fx.svc.Resolve(ctx, fx.project.ID, fx.project.OwnerID)
	require.NoError(t, err)
	require.True(t, m.Owner)

	stranger := uuid.Must(uuid.NewV4())
	m, err = fx.svc.Resolve(ctx, fx.project.ID, stranger)
	require.NoError(t, err)
	require.False(t, m.CanView())

	fx.grants.grants[grantKey{fx.project.ID, stranger}] = model.RoleEdit
	m, err = fx.svc.Resolve(ctx, fx.project.ID, stranger)
	require.NoError(t, err)
	require.True(t, m.CanEdit())
	require.False(t, m.CanManageFiles())
}

func TestAccessService_RequestAccess_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newAccessFixture(t)
	user := uuid.Must(uuid.NewV4())

	// view is the floor, not requestable
	_, err := fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleView, "")
	require.ErrorIs(t, err, errs.ErrInvalidRequest)

	// owner cannot request
	_, err = fx.svc.RequestAccess(ctx, fx.project.ID, fx.project.OwnerID, model.RoleEdit, "")
	require.ErrorIs(t, err, errs.ErrInvalidRequest)

	// requested tier must exceed the current one
	fx.grants.grants[grantKey{fx.project.ID, user}] = model.RoleEdit
	_, err = fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleEdit, "")
	require.ErrorIs(t, err, errs.ErrInvalidRequest)

	req, err := fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleFullAccess, "pls")
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, req.Status)
	require.Equal(t, model.RoleEdit, req.PriorRole)
}

func TestAccessService_RequestAccess_SinglePending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newAccessFixture(t)
	user := uuid.Must(uuid.NewV4())

	_, err := fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleEdit, "")
	require.NoError(t, err)

	_, err = fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleFullAccess, "")
	require.ErrorIs(t, err, errs.ErrAlreadyPending)
}

func TestAccessService_Approve_GrantsRequestedRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newAccessFixture(t)
	user := uuid.Must(uuid.NewV4())

	req, err := fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleFullAccess, "")
	require.NoError(t, err)

	// only the owner may approve
	_, err = fx.svc.Approve(ctx, req.ID, user)
	require.ErrorIs(t, err, errs.ErrPermissionDenied)

	got, err := fx.svc.Approve(ctx, req.ID, fx.project.OwnerID)
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, got.Status)
	require.Equal(t, model.RoleFullAccess, fx.grants.grants[grantKey{fx.project.ID, user}])

	// a closed request cannot be approved again
	_, err = fx.svc.Approve(ctx, req.ID, fx.project.OwnerID)
	require.ErrorIs(t, err, errs.ErrInvalidRequest)
}

func TestAccessService_Reject_NoGrantSideEffect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newAccessFixture(t)
	user := uuid.Must(uuid.NewV4())

	req, err := fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleEdit, "")
	require.NoError(t, err)

	require.NoError(t, fx.svc.Reject(ctx, req.ID, fx.project.OwnerID))
	require.Empty(t, fx.grants.grants)

	// after rejection the user may request again
	_, err = fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleEdit, "again")
	require.NoError(t, err)
}

func TestAccessService_Withdraw_RequesterOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newAccessFixture(t)
	user := uuid.Must(uuid.NewV4())

	req, err := fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleEdit, "")
	require.NoError(t, err)

	require.ErrorIs(t, fx.svc.Withdraw(ctx, req.ID, fx.project.OwnerID), errs.ErrPermissionDenied)
	require.NoError(t, fx.svc.Withdraw(ctx, req.ID, user))

	// withdrawal removes the row entirely
	_, err = fx.requests.GetByID(ctx, req.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAccessService_ListProjectRequests_OwnerOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newAccessFixture(t)
	user := uuid.Must(uuid.NewV4())

	_, err := fx.svc.RequestAccess(ctx, fx.project.ID, user, model.RoleEdit, "")
	require.NoError(t, err)

	_, err = fx.svc.ListProjectRequests(ctx, fx.project.ID, user)
	require.ErrorIs(t, err, errs.ErrPermissionDenied)

	out, err := fx.svc.ListProjectRequests(ctx, fx.project.ID, fx.project.OwnerID)
	require.NoError(t, err)
	require.Len(t, out, 1)

	mine, err := fx.svc.ListUserRequests(ctx, user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestAccessService_Collaborators_MembersOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newAccessFixture(t)
	member := uuid.Must(uuid.NewV4())
	fx.grants.grants[grantKey{fx.project.ID, member}] = model.RoleView

	out, err := fx.svc.Collaborators(ctx, fx.project.ID, member)
	require.NoError(t, err)
	require.Len(t, out, 1)

	_, err = fx.svc.Collaborators(ctx, fx.project.ID, uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestAccessService_Revoke_And_Leave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newAccessFixture(t)
	member := uuid.Must(uuid.NewV4())
	fx.grants.grants[grantKey{fx.project.ID, member}] = model.RoleEdit

	require.ErrorIs(t, fx.svc.Revoke(ctx, fx.project.ID, member, member), errs.ErrPermissionDenied)
	require.NoError(t, fx.svc.Revoke(ctx, fx.project.ID, fx.project.OwnerID, member))
	require.Empty(t, fx.grants.grants)

	fx.grants.grants[grantKey{fx.project.ID, member}] = model.RoleEdit
	require.NoError(t, fx.svc.Leave(ctx, fx.project.ID, member))
	require.Empty(t, fx.grants.grants)

	// owners cannot leave their own project
	require.ErrorIs(t, fx.svc.Leave(ctx, fx.project.ID, fx.project.OwnerID), errs.ErrInvalidRequest)
}
