package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/pairpad/pairpad/internal/errs"
)

// execute forwards code to the execution gateway. Failures inside the
// sandbox come back as output lines with success=false; only a bad request
// shape or an unknown language is an HTTP error.
func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, s.log, errs.ErrInvalidRequest)
		return
	}
	res, err := s.exec.Execute(r.Context(), in.Code, in.Language)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
