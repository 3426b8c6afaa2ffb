package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	auth "github.com/petitmaker/training-backend/internal/auth/middleware"
	"github.com/petitmaker/training-backend/internal/learner"
	"github.com/petitmaker/training-backend/internal/progress"
	"github.com/petitmaker/training-backend/internal/questionnaire"
)

func strPtr(s string) *string { return &s }

type env struct {
	learners learner.Store
	qstore   questionnaire.Store
	qsvc     *questionnaire.Service
	tracker  *progress.Tracker
}

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	ls := learner.NewInMemoryStore()
	qs := questionnaire.NewInMemoryStore()

	if err := ls.PutTraining(ctx, learner.Training{ID: "tr-1", Title: "Safety"}); err != nil {
		t.Fatal(err)
	}
	if err := ls.PutCompany(ctx, learner.Company{ID: "co-1", Name: "Acme", Status: "validated", TrainingID: "tr-1"}); err != nil {
		t.Fatal(err)
	}
	if err := ls.PutProfile(ctx, learner.Profile{
		ID: "lrn-1", Email: "jo@acme.test", CompanyID: "co-1", TrainingID: "tr-1",
	}); err != nil {
		t.Fatal(err)
	}
	if err := qs.SaveTemplate(ctx, questionnaire.Template{
		ID: "tpl-pos", TrainingID: "tr-1", Type: questionnaire.CategoryPositioning, IsActive: true,
		Questions: []questionnaire.Question{
			{ID: "q1", Type: "yes_no", Text: "?", CorrectAnswer: strPtr("yes")},
		},
	}); err != nil {
		t.Fatal(err)
	}
	return env{
		learners: ls,
		qstore:   qs,
		qsvc:     questionnaire.NewService(qs, ls, nil, nil),
		tracker:  progress.NewTracker(ls, qs, nil),
	}
}

func asLearner(r *http.Request, id string) *http.Request {
	return r.WithContext(auth.WithSubject(r.Context(), id))
}

func withChiParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestSubmitThenProgressFlow(t *testing.T) {
	e := newEnv(t)

	// fresh learner: 0%, next action positioning
	rec := httptest.NewRecorder()
	GetProgressHandler(e.tracker)(rec, asLearner(httptest.NewRequest("GET", "/progress", nil), "lrn-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status=%d body=%s", rec.Code, rec.Body)
	}
	var snap progress.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Percent != 0 || snap.NextAction != progress.StagePositioning {
		t.Fatalf("fresh snapshot: %+v", snap)
	}

	// submit the positioning questionnaire
	body := `{"template_id":"tpl-pos","type":"positioning","answers":{"q1":"yes"}}`
	rec = httptest.NewRecorder()
	SubmitResponseHandler(e.qsvc)(rec, asLearner(httptest.NewRequest("POST", "/responses", strings.NewReader(body)), "lrn-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status=%d body=%s", rec.Code, rec.Body)
	}

	// progress moved to 12%, next action internal rules
	rec = httptest.NewRecorder()
	GetProgressHandler(e.tracker)(rec, asLearner(httptest.NewRequest("GET", "/progress", nil), "lrn-1"))
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Percent != 12 {
		t.Fatalf("percent=%d, want 12", snap.Percent)
	}
	if snap.NextAction != progress.StageInternalRules {
		t.Fatalf("next=%s, want internal_rules", snap.NextAction)
	}
}

func TestSubmitValidation(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing template", `{"type":"positioning","answers":{"q1":"yes"}}`},
		{"bad category", `{"template_id":"tpl-pos","type":"nope","answers":{"q1":"yes"}}`},
		{"no answers", `{"template_id":"tpl-pos","type":"positioning","answers":{}}`},
		{"bad sub type", `{"template_id":"tpl-pos","type":"positioning","sub_type":"later","answers":{"q1":"y"}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SubmitResponseHandler(e.qsvc)(rec, asLearner(httptest.NewRequest("POST", "/responses", strings.NewReader(c.body)), "lrn-1"))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s, want 400", rec.Code, rec.Body)
			}
		})
	}
}

func TestSubmitWhilePendingIsForbidden(t *testing.T) {
	e := newEnv(t)
	if err := e.learners.SetCompanyStatus(context.Background(), "co-1", "pending"); err != nil {
		t.Fatal(err)
	}

	body := `{"template_id":"tpl-pos","type":"positioning","answers":{"q1":"yes"}}`
	rec := httptest.NewRecorder()
	SubmitResponseHandler(e.qsvc)(rec, asLearner(httptest.NewRequest("POST", "/responses", strings.NewReader(body)), "lrn-1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want 403", rec.Code)
	}
	var e2 map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &e2)
	if e2["error"] != "not_eligible" {
		t.Fatalf("error=%q, want not_eligible", e2["error"])
	}
}

func TestNoActiveTemplateIsAnEmptyState(t *testing.T) {
	e := newEnv(t)

	r := httptest.NewRequest("GET", "/questionnaires/satisfaction", nil)
	r = asLearner(r, "lrn-1")
	r = withChiParam(r, "category", "satisfaction")
	rec := httptest.NewRecorder()
	ActiveTemplateHandler(e.qsvc)(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200 empty state", rec.Code)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if avail, _ := out["available"].(bool); avail {
		t.Fatal("available=true, want false")
	}
}
