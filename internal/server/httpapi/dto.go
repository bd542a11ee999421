package httpapi

import (
	"time"

	"github.com/pairpad/pairpad/internal/model"
)

// Wire views of domain entities. Secrets never appear here except in the
// owner-only link/rotation responses.

type projectView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	Public    bool      `json:"public"`
	RoomCode  string    `json:"room_code"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	Role      string    `json:"role"`
	Owner     bool      `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toProjectView(p *model.Project, m model.Membership) projectView {
	role := string(m.Role)
	if m.Owner {
		role = ""
	}
	return projectView{
		ID:        p.ID.String(),
		Name:      p.Name,
		OwnerID:   p.OwnerID.String(),
		Public:    p.Public,
		RoomCode:  p.RoomCode,
		Code:      p.Code,
		Language:  p.Language,
		Role:      role,
		Owner:     m.Owner,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type grantView struct {
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toGrantViews(gs []model.Grant) []grantView {
	out := make([]grantView, 0, len(gs))
	for _, g := range gs {
		out = append(out, grantView{
			ProjectID: g.ProjectID.String(),
			UserID:    g.UserID.String(),
			Role:      string(g.Role),
			CreatedAt: g.CreatedAt,
		})
	}
	return out
}

type requestView struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	UserID        string     `json:"user_id"`
	RequestedRole string     `json:"requested_role"`
	PriorRole     string     `json:"prior_role"`
	Message       string     `json:"message,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
}

func toRequestView(a *model.AccessRequest) requestView {
	return requestView{
		ID:            a.ID.String(),
		ProjectID:     a.ProjectID.String(),
		UserID:        a.UserID.String(),
		RequestedRole: string(a.RequestedRole),
		PriorRole:     string(a.PriorRole),
		Message:       a.Message,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		RespondedAt:   a.RespondedAt,
	}
}

func toRequestViews(as []model.AccessRequest) []requestView {
	out := make([]requestView, 0, len(as))
	for i := range as {
		out = append(out, toRequestView(&as[i]))
	}
	return out
}

type fileView struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Folder    bool      `json:"folder"`
	Content   *string   `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toFileView(n *model.FileNode) fileView {
	v := fileView{
		ID:        n.ID.String(),
		ProjectID: n.ProjectID.String(),
		Name:      n.Name,
		Path:      n.Path,
		Folder:    n.Folder,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.ParentID != nil {
		v.ParentID = n.ParentID.String()
	}
	return v
}

func toFileViews(ns []model.FileNode) []fileView {
	out := make([]fileView, 0, len(ns))
	for i := range ns {
		out = append(out, toFileView(&ns[i]))
	}
	return out
}
