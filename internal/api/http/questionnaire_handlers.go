package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	auth "github.com/petitmaker/training-backend/internal/auth/middleware"
	"github.com/petitmaker/training-backend/internal/questionnaire"
)

var validate = validator.New()

// GET /questionnaires/{category}
// A missing active template is an empty state, not an error.
func ActiveTemplateHandler(svc *questionnaire.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		cat := questionnaire.Category(chi.URLParam(r, "category"))
		if !questionnaire.ValidCategory(cat) {
			writeError(w, http.StatusBadRequest, "bad_category", "unknown questionnaire category")
			return
		}
		t, err := svc.ResolveActive(r.Context(), learnerID, cat)
		if err != nil {
			if errors.Is(err, questionnaire.ErrNoActiveTemplate) {
				writeJSON(w, http.StatusOK, map[string]interface{}{"available": false})
				return
			}
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"available": true, "template": t})
	}
}

type submitRequest struct {
	TemplateID string            `json:"template_id" validate:"required"`
	Type       string            `json:"type" validate:"required,oneof=positioning initial_final_evaluation satisfaction"`
	SubType    string            `json:"sub_type" validate:"omitempty,oneof=initial final"`
	Answers    map[string]string `json:"answers" validate:"required,min=1"`
}

// POST /responses
func SubmitResponseHandler(svc *questionnaire.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json", "malformed body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		resp, err := svc.Submit(r.Context(), learnerID, req.TemplateID,
			questionnaire.Category(req.Type), questionnaire.SubType(req.SubType), req.Answers)
		if err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GET /responses?category=...
func MyResponsesHandler(svc *questionnaire.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		cat := questionnaire.Category(r.URL.Query().Get("category"))
		if cat != "" && !questionnaire.ValidCategory(cat) {
			writeError(w, http.StatusBadRequest, "bad_category", "unknown questionnaire category")
			return
		}
		rs, err := svc.MyResponses(r.Context(), learnerID, cat)
		if err != nil {
			svcError(w, err)
			return
		}
		if rs == nil {
			rs = []questionnaire.Response{}
		}
		writeJSON(w, http.StatusOK, rs)
	}
}
