package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/petitmaker/training-backend/internal/audit"
	"github.com/petitmaker/training-backend/internal/learner"
	"github.com/petitmaker/training-backend/internal/questionnaire"
)

type templateRequest struct {
	ID         string `json:"id"`
	TrainingID string `json:"training_id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=positioning initial_final_evaluation satisfaction"`
	Title      string `json:"title"`
	IsActive   bool   `json:"is_active"`
	Questions  []struct {
		Type          string   `json:"type" validate:"required,oneof=multiple_choice yes_no rating short_answer"`
		Text          string   `json:"text" validate:"required"`
		Options       []string `json:"options"`
		CorrectAnswer *string  `json:"correct_answer"`
	} `json:"questions" validate:"required,min=1,dive"`
}

// POST /admin/templates — upsert; activating one deactivates its siblings.
func SaveTemplateHandler(store questionnaire.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req templateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json", "malformed body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		t := questionnaire.Template{
			ID:         req.ID,
			TrainingID: req.TrainingID,
			Type:       questionnaire.Category(req.Type),
			Title:      req.Title,
			IsActive:   req.IsActive,
		}
		for i, q := range req.Questions {
			t.Questions = append(t.Questions, questionnaire.Question{
				OrderIndex:    i,
				Type:          q.Type,
				Text:          q.Text,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
			})
		}
		if err := store.SaveTemplate(r.Context(), t); err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": t.ID})
	}
}

// GET /admin/trainings/{trainingID}/templates
func ListTemplatesHandler(store questionnaire.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := store.ListTemplates(r.Context(), chi.URLParam(r, "trainingID"))
		if err != nil {
			svcError(w, err)
			return
		}
		if ts == nil {
			ts = []questionnaire.Template{}
		}
		writeJSON(w, http.StatusOK, ts)
	}
}

// GET /admin/learners?training_id=&company_id=&limit=&offset=
func ListLearnersHandler(store learner.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		ps, err := store.ListProfiles(r.Context(), learner.ListOpts{
			TrainingID: q.Get("training_id"),
			CompanyID:  q.Get("company_id"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			svcError(w, err)
			return
		}
		if ps == nil {
			ps = []learner.Profile{}
		}
		writeJSON(w, http.StatusOK, ps)
	}
}

// POST /admin/companies/{companyID}/validate — flips the eligibility gate
// open; learners pick it up on their next progress refresh.
func ValidateCompanyHandler(store learner.Store, events audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "companyID")
		if err := store.SetCompanyStatus(r.Context(), id, "validated"); err != nil {
			svcError(w, err)
			return
		}
		_ = events.Append(r.Context(), audit.Event{
			Type:     audit.TypeCompanyValidated,
			Key:      id,
			DataJSON: "{}",
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": "validated"})
	}
}

// POST /admin/learners — minimal upsert for onboarding.
func UpsertLearnerHandler(store learner.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p learner.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json", "malformed body")
			return
		}
		if p.Email == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "email required")
			return
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Role == "" {
			p.Role = "learner"
		}
		if err := store.PutProfile(r.Context(), p); err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": p.ID})
	}
}

// POST /admin/companies
func UpsertCompanyHandler(store learner.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c learner.Company
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json", "malformed body")
			return
		}
		if c.Name == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "name required")
			return
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if err := store.PutCompany(r.Context(), c); err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": c.ID})
	}
}

// POST /admin/trainings
func UpsertTrainingHandler(store learner.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t learner.Training
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json", "malformed body")
			return
		}
		if t.Title == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "title required")
			return
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if err := store.PutTraining(r.Context(), t); err != nil {
			svcError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": t.ID})
	}
}
