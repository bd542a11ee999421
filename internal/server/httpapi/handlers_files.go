package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/errs"
)

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	ns, err := s.files.Tree(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileViews(ns))
}

func (s *Server) createFile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	var in struct {
		Name     string `json:"name"`
		Folder   bool   `json:"folder"`
		ParentID string `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	var parentID *uuid.UUID
	if in.ParentID != "" {
		pid, err := uuid.FromString(in.ParentID)
		if err != nil {
			writeError(w, s.log, errs.ErrInvalidRequest)
			return
		}
		parentID = &pid
	}
	n, err := s.files.Create(r.Context(), id, u.ID, parentID, in.Name, in.Folder)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFileView(n))
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "fileID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	n, err := s.files.Get(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileView(n))
}

func (s *Server) renameFile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "fileID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	n, err := s.files.Rename(r.Context(), id, u.ID, in.Name)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileView(n))
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "fileID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := s.files.Delete(r.Context(), id, u.ID); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) saveFileContent(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	id, err := pathUUID(r, "fileID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	var in struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	if err := s.files.SaveContent(r.Context(), id, u.ID, in.Content); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
