package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/petitmaker/training-backend/internal/document"
	"github.com/petitmaker/training-backend/internal/learner"
	"github.com/petitmaker/training-backend/internal/questionnaire"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}

// svcError maps service failures onto the portal's error taxonomy. Only
// store failures are surfaced as retryable; everything else degrades to a
// specific, non-alarming state.
func svcError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, questionnaire.ErrNotEligible) || errors.Is(err, document.ErrNotEligible):
		writeError(w, http.StatusForbidden, "not_eligible", "your registration is awaiting validation")
	case errors.Is(err, questionnaire.ErrNoActiveTemplate):
		writeError(w, http.StatusConflict, "no_active_template", "questionnaire unavailable")
	case errors.Is(err, questionnaire.ErrBadSubType):
		writeError(w, http.StatusBadRequest, "bad_sub_type", err.Error())
	case errors.Is(err, questionnaire.ErrTemplateMismatch):
		writeError(w, http.StatusBadRequest, "template_mismatch", err.Error())
	case errors.Is(err, learner.ErrNotFound) || errors.Is(err, questionnaire.ErrNotFound) || errors.Is(err, document.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "temporary failure, please retry")
	}
}
