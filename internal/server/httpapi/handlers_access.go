package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pairpad/pairpad/internal/errs"
	"github.com/pairpad/pairpad/internal/model"
)

func (s *Server) issueLink(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	role, ok := model.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	link, err := s.rooms.IssueLink(r.Context(), id, u.ID, role)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

func (s *Server) rotateSecret(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	role, ok := model.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	secret, err := s.rooms.RotateSecret(r.Context(), id, u.ID, role)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"secret": secret})
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	code := chi.URLParam(r, "code")
	secret := chi.URLParam(r, "secret")
	m, p, err := s.rooms.Redeem(r.Context(), code, secret, u.ID, r.RemoteAddr)
	if err != nil {
		// Unknown code and wrong secret surface as the same not-found body.
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectView(p, m))
}

func (s *Server) listCollaborators(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	gs, err := s.access.Collaborators(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toGrantViews(gs))
}

func (s *Server) revokeCollaborator(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	target, err := pathUUID(r, "userID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.access.Revoke(r.Context(), id, u.ID, target); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) leaveProject(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.access.Leave(r.Context(), id, u.ID); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	var in struct {
		Role    string `json:"role"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	req, err := s.access.RequestAccess(r.Context(), id, u.ID, role, in.Message)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestView(req))
}

func (s *Server) listProjectRequests(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	reqs, err := s.access.ListProjectRequests(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestViews(reqs))
}

func (s *Server) listOwnRequests(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	reqs, err := s.access.ListUserRequests(r.Context(), u.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestViews(reqs))
}

func (s *Server) approveRequest(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "requestID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	req, err := s.access.Approve(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(req))
}

func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "requestID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.access.Reject(r.Context(), id, u.ID); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) withdrawRequest(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "requestID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.access.Withdraw(r.Context(), id, u.ID); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
