package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/limiter"
	"github.com/pairpad/pairpad/internal/model"
	"github.com/pairpad/pairpad/internal/repository"
)

// In-memory repositories backing the service tests. Error fields force the
// next call of that operation to fail.

type fakeProjectRepo struct {
	byID      map[uuid.UUID]*model.Project
	grants    *fakeGrantRepo // consulted by ListForUser; nil means owned only
	createErr error
	getErr    error
	saveCode  []string // recorded (code) args
}

var _ repository.ProjectRepository = (*fakeProjectRepo)(nil)

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{byID: map[uuid.UUID]*model.Project{}}
}

func (f *fakeProjectRepo) put(p *model.Project) {
	cp := *p
	f.byID[p.ID] = &cp
}

func (f *fakeProjectRepo) Create(_ context.Context, p *model.Project) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	for _, other := range f.byID {
		if other.RoomCode == p.RoomCode {
			return errs.ErrAlreadyExists
		}
	}
	f.put(p)
	return nil
}

func (f *fakeProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Project, error) {
	if f.getErr != nil {
		err := f.getErr
		f.getErr = nil
		return nil, err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectRepo) GetByRoomCode(_ context.Context, code string) (*model.Project, error) {
	for _, p := range f.byID {
		if p.RoomCode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeProjectRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]model.ProjectWithRole, error) {
	var out []model.ProjectWithRole
	for _, p := range f.byID {
		if p.OwnerID == userID {
			out = append(out, model.ProjectWithRole{Project: *p, Role: model.RoleNone})
			continue
		}
		if f.grants != nil {
			if role, ok := f.grants.grants[grantKey{p.ID, userID}]; ok {
				out = append(out, model.ProjectWithRole{Project: *p, Role: role})
			}
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) Update(_ context.Context, id uuid.UUID, name string, public bool) error {
	p, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.Name, p.Public = name, public
	return nil
}

func (f *fakeProjectRepo) SetSecret(_ context.Context, id uuid.UUID, role model.Role, secret string) error {
	p, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.Secrets.Set(role, secret)
	return nil
}

func (f *fakeProjectRepo) SaveCode(_ context.Context, id uuid.UUID, code, language string) error {
	p, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.Code = code
	if language != "" {
		p.Language = language
	}
	f.saveCode = append(f.saveCode, code)
	return nil
}

func (f *fakeProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type grantKey struct {
	project uuid.UUID
	user    uuid.UUID
}

type fakeGrantRepo struct {
	grants    map[grantKey]model.Role
	upsertErr error
}

var _ repository.GrantRepository = (*fakeGrantRepo)(nil)

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{grants: map[grantKey]model.Role{}}
}

func (f *fakeGrantRepo) Get(_ context.Context, projectID, userID uuid.UUID) (*model.Grant, error) {
	role, ok := f.grants[grantKey{projectID, userID}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &model.Grant{ProjectID: projectID, UserID: userID, Role: role}, nil
}

func (f *fakeGrantRepo) Upsert(_ context.Context, projectID, userID uuid.UUID, role model.Role) error {
	if f.upsertErr != nil {
		err := f.upsertErr
		f.upsertErr = nil
		return err
	}
	f.grants[grantKey{projectID, userID}] = role
	return nil
}

func (f *fakeGrantRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]model.Grant, error) {
	var out []model.Grant
	for k, role := range f.grants {
		if k.project == projectID {
			out = append(out, model.Grant{ProjectID: k.project, UserID: k.user, Role: role})
		}
	}
	return out, nil
}

func (f *fakeGrantRepo) Delete(_ context.Context, projectID, userID uuid.UUID) error {
	k := grantKey{projectID, userID}
	if _, ok := f.grants[k]; !ok {
		return errs.ErrNotFound
	}
	delete(f.grants, k)
	return nil
}

type fakeRequestRepo struct {
	byID      map[uuid.UUID]*model.AccessRequest
	grants    *fakeGrantRepo // Approve materializes the grant like the real tx
	createErr error
}

var _ repository.RequestRepository = (*fakeRequestRepo)(nil)

func newFakeRequestRepo(grants *fakeGrantRepo) *fakeRequestRepo {
	return &fakeRequestRepo{byID: map[uuid.UUID]*model.AccessRequest{}, grants: grants}
}

func (f *fakeRequestRepo) Create(_ context.Context, a *model.AccessRequest) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	for _, other := range f.byID {
		if other.ProjectID == a.ProjectID && other.UserID == a.UserID && other.Status == model.StatusPending {
			return errs.ErrAlreadyPending
		}
	}
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*model.AccessRequest, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRequestRepo) Approve(ctx context.Context, id uuid.UUID) (*model.AccessRequest, error) {
	a, ok := f.byID[id]
	if !ok || a.Status != model.StatusPending {
		return nil, errs.ErrNotFound
	}
	if err := f.grants.Upsert(ctx, a.ProjectID, a.UserID, a.RequestedRole); err != nil {
		return nil, err
	}
	now := time.Now()
	a.Status, a.RespondedAt = model.StatusApproved, &now
	cp := *a
	return &cp, nil
}

func (f *fakeRequestRepo) Reject(_ context.Context, id uuid.UUID) error {
	a, ok := f.byID[id]
	if !ok || a.Status != model.StatusPending {
		return errs.ErrNotFound
	}
	now := time.Now()
	a.Status, a.RespondedAt = model.StatusRejected, &now
	return nil
}

func (f *fakeRequestRepo) Withdraw(_ context.Context, id uuid.UUID) error {
	a, ok := f.byID[id]
	if !ok || a.Status != model.StatusPending {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRequestRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]model.AccessRequest, error) {
	var out []model.AccessRequest
	for _, a := range f.byID {
		if a.ProjectID == projectID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.AccessRequest, error) {
	var out []model.AccessRequest
	for _, a := range f.byID {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeFileRepo struct {
	byID      map[uuid.UUID]*model.FileNode
	createErr error
}

var _ repository.FileRepository = (*fakeFileRepo)(nil)

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{byID: map[uuid.UUID]*model.FileNode{}}
}

func (f *fakeFileRepo) put(n *model.FileNode) {
	cp := *n
	f.byID[n.ID] = &cp
}

func (f *fakeFileRepo) Create(_ context.Context, n *model.FileNode) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	for _, other := range f.byID {
		if other.ProjectID == n.ProjectID && other.Path == n.Path {
			return errs.ErrAlreadyExists
		}
	}
	f.put(n)
	return nil
}

func (f *fakeFileRepo) GetByID(_ context.Context, id uuid.UUID) (*model.FileNode, error) {
	n, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeFileRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]model.FileNode, error) {
	var out []model.FileNode
	for _, n := range f.byID {
		if n.ProjectID == projectID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeFileRepo) CountByProject(_ context.Context, projectID uuid.UUID) (int64, error) {
	var c int64
	for _, n := range f.byID {
		if n.ProjectID == projectID {
			c++
		}
	}
	return c, nil
}

func (f *fakeFileRepo) Rename(_ context.Context, id uuid.UUID, name, newPath, oldPath string, folder bool) error {
	n, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	n.Name, n.Path = name, newPath
	if folder {
		for _, other := range f.byID {
			if other.ID != id && other.ProjectID == n.ProjectID &&
				len(other.Path) > len(oldPath) && other.Path[:len(oldPath)+1] == oldPath+"/" {
				other.Path = newPath + other.Path[len(oldPath):]
			}
		}
	}
	return nil
}

func (f *fakeFileRepo) SaveContent(_ context.Context, id uuid.UUID, content string) error {
	n, ok := f.byID[id]
	if !ok || n.Folder {
		return errs.ErrNotFound
	}
	c := content
	n.Content = &c
	return nil
}

func (f *fakeFileRepo) Delete(_ context.Context, id uuid.UUID, projectID uuid.UUID, path string, folder bool) error {
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	if folder {
		for other, n := range f.byID {
			if n.ProjectID == projectID &&
				len(n.Path) > len(path) && n.Path[:len(path)+1] == path+"/" {
				delete(f.byID, other)
			}
		}
	}
	delete(f.byID, id)
	return nil
}

type fakeLimiter struct {
	allowed   bool
	failures  int
	successes int
	blockNext bool
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func newFakeLimiter() *fakeLimiter { return &fakeLimiter{allowed: true} }

func (f *fakeLimiter) Allow(context.Context, uuid.UUID, []byte) (bool, time.Duration, error) {
	return f.allowed, 0, nil
}

func (f *fakeLimiter) Success(context.Context, uuid.UUID, []byte) error {
	f.successes++
	return nil
}

func (f *fakeLimiter) Failure(context.Context, uuid.UUID, []byte) (bool, time.Duration, error) {
	f.failures++
	return f.blockNext, 0, nil
}
