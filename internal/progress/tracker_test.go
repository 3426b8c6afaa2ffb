package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/petitmaker/training-backend/internal/learner"
	"github.com/petitmaker/training-backend/internal/questionnaire"
)

func seed(t *testing.T) (learner.Store, questionnaire.Store) {
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
	return ls, qs
}

func stageState(snap Snapshot, st Stage) State {
	for _, s := range snap.Stages {
		if s.Stage == st {
			return s.State
		}
	}
	return ""
}

func TestSnapshotFreshLearner(t *testing.T) {
	ls, qs := seed(t)
	tr := NewTracker(ls, qs, nil)

	snap, err := tr.Snapshot(context.Background(), "lrn-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Percent != 0 {
		t.Fatalf("percent=%d, want 0", snap.Percent)
	}
	if snap.NextAction != StagePositioning {
		t.Fatalf("next=%s, want positioning", snap.NextAction)
	}
	if got := stageState(snap, StagePositioning); got != StateAvailable {
		t.Fatalf("positioning=%s, want available", got)
	}
	for _, st := range Stages[1:] {
		if got := stageState(snap, st); got != StatePending {
			t.Fatalf("%s=%s, want pending", st, got)
		}
	}
}

func TestSnapshotAfterPositioning(t *testing.T) {
	ctx := context.Background()
	ls, qs := seed(t)
	tr := NewTracker(ls, qs, nil)

	// response exists, flag not yet refreshed: the cross-check must count it
	if _, err := qs.InsertResponse(ctx, questionnaire.Response{
		LearnerID: "lrn-1", TemplateID: "tpl-p", Type: questionnaire.CategoryPositioning,
		Answers: map[string]string{"q1": "a"},
	}); err != nil {
		t.Fatal(err)
	}

	snap, err := tr.Snapshot(ctx, "lrn-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Percent != 12 { // 1 of 8
		t.Fatalf("percent=%d, want 12", snap.Percent)
	}
	if snap.NextAction != StageInternalRules {
		t.Fatalf("next=%s, want internal_rules", snap.NextAction)
	}
	if got := stageState(snap, StagePositioning); got != StateCompleted {
		t.Fatalf("positioning=%s, want completed", got)
	}
}

func TestNextActionIgnoresOutOfOrderCompletion(t *testing.T) {
	ctx := context.Background()
	ls, qs := seed(t)
	tr := NewTracker(ls, qs, nil)

	// admin override completed the certificate ahead of everything else
	if err := ls.UpdateProfile(ctx, "lrn-1", learner.Patch{
		HasSignedCertificate:  learner.BoolPtr(true),
		SatisfactionCompleted: learner.BoolPtr(true),
	}); err != nil {
		t.Fatal(err)
	}

	snap, err := tr.Snapshot(ctx, "lrn-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.NextAction != StagePositioning {
		t.Fatalf("next=%s, want positioning (first incomplete in fixed order)", snap.NextAction)
	}
	if got := stageState(snap, StageCertificate); got != StateCompleted {
		t.Fatalf("certificate=%s, want completed", got)
	}
	if snap.Percent != 25 {
		t.Fatalf("percent=%d, want 25", snap.Percent)
	}
}

func TestIneligibleLearnerHasNoAvailableStage(t *testing.T) {
	ctx := context.Background()
	ls, qs := seed(t)
	tr := NewTracker(ls, qs, nil)

	if err := ls.SetCompanyStatus(ctx, "co-1", "pending"); err != nil {
		t.Fatal(err)
	}
	snap, err := tr.Snapshot(ctx, "lrn-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Eligibility != learner.EligibilityPending {
		t.Fatalf("eligibility=%s, want pending", snap.Eligibility)
	}
	for _, s := range snap.Stages {
		if s.State == StateAvailable {
			t.Fatalf("stage %s available behind a closed gate", s.Stage)
		}
	}
	// next action is still the canonical first incomplete stage
	if snap.NextAction != StagePositioning {
		t.Fatalf("next=%s, want positioning", snap.NextAction)
	}
}

// failingResponses errors on every read, as a degraded response store would.
type failingResponses struct{ questionnaire.Store }

func (failingResponses) FindResponses(context.Context, questionnaire.ResponseFilter) ([]questionnaire.Response, error) {
	return nil, errors.New("store unavailable")
}

func TestStageFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	ls, qs := seed(t)
	if err := ls.UpdateProfile(ctx, "lrn-1", learner.Patch{
		InternalRulesAcknowledged: learner.BoolPtr(true),
	}); err != nil {
		t.Fatal(err)
	}
	tr := NewTracker(ls, failingResponses{qs}, nil)

	snap, err := tr.Snapshot(ctx, "lrn-1")
	if err != nil {
		t.Fatal(err)
	}
	// stages with a response-store cross-check render unknown
	if got := stageState(snap, StagePositioning); got != StateUnknown {
		t.Fatalf("positioning=%s, want unknown", got)
	}
	// flag-only stages are untouched by the store failure
	if got := stageState(snap, StageInternalRules); got != StateCompleted {
		t.Fatalf("internal_rules=%s, want completed", got)
	}
	if got := stageState(snap, StageAgreement); got != StatePending && got != StateAvailable {
		t.Fatalf("agreement=%s, want pending/available", got)
	}
	if len(snap.Stages) != len(Stages) {
		t.Fatalf("stages=%d, want %d (failures must not drop stages)", len(snap.Stages), len(Stages))
	}
}

func TestAcknowledgeInternalRules(t *testing.T) {
	ctx := context.Background()
	ls, qs := seed(t)
	tr := NewTracker(ls, qs, nil)

	if err := tr.AcknowledgeInternalRules(ctx, "lrn-1"); err != nil {
		t.Fatal(err)
	}
	snap, err := tr.Snapshot(ctx, "lrn-1")
	if err != nil {
		t.Fatal(err)
	}
	if got := stageState(snap, StageInternalRules); got != StateCompleted {
		t.Fatalf("internal_rules=%s, want completed", got)
	}
}
