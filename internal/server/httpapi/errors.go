package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pairpad/pairpad/internal/errs"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON renders a response body with a status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps sentinel errors onto status codes. ErrInvalidSecret is
// deliberately collapsed into the generic not-found answer so the join
// endpoint leaks nothing about which room codes exist.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrInvalidSecret):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, errs.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "permission denied"})
	case errors.Is(err, errs.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	case errors.Is(err, errs.ErrAlreadyPending):
		writeJSON(w, http.StatusConflict, errorBody{Error: "request already pending"})
	case errors.Is(err, errs.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: "already exists"})
	case errors.Is(err, errs.ErrInvalidRequest):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid request"})
	case errors.Is(err, errs.ErrUnsupportedLanguage):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unsupported language"})
	case errors.Is(err, errs.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many attempts"})
	default:
		log.Error("internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal"})
	}
}
