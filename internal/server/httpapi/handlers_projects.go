package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errs.ErrNotFound
	}
	return id, nil
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	var in struct {
		Name     string `json:"name"`
		Public   bool   `json:"public"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	p, err := s.projects.Create(r.Context(), u.ID, in.Name, in.Public, in.Language)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectView(p, model.Membership{Owner: true}))
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	ps, err := s.projects.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]projectView, 0, len(ps))
	for i := range ps {
		m := model.Membership{Owner: ps[i].OwnerID == u.ID, Role: ps[i].Role}
		out = append(out, toProjectView(&ps[i].Project, m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	p, m, err := s.projects.Get(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectView(p, m))
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	var in struct {
		Name   string `json:"name"`
		Public bool   `json:"public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	if err := s.projects.Update(r.Context(), id, u.ID, in.Name, in.Public); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.projects.Delete(r.Context(), id, u.ID); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) saveCode(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	var in struct {
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	if err := s.projects.SaveCode(r.Context(), id, u.ID, in.Code, in.Language); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
