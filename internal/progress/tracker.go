package progress

import (
	"context"

	"go.uber.org/zap"

	"github.com/petitmaker/training-backend/internal/learner"
	"github.com/petitmaker/training-backend/internal/questionnaire"
)

// Snapshot is the derived view the portal renders: per-stage states, the
// single canonical next action, and an overall percentage.
type Snapshot struct {
	LearnerID   string              `json:"learner_id"`
	Eligibility learner.Eligibility `json:"eligibility"`
	Stages      []StageStatus       `json:"stages"`
	NextAction  Stage               `json:"next_action,omitempty"` // empty when everything is completed
	Percent     int                 `json:"percent"`
}

// Tracker derives stage progress from the profile flags plus a response
// store cross-check. Stage computations are independent: one failing
// stage renders as unknown and never blocks the others.
type Tracker struct {
	learners  learner.Store
	responses questionnaire.Store
	log       *zap.Logger
}

func NewTracker(learners learner.Store, responses questionnaire.Store, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{learners: learners, responses: responses, log: log}
}

// Snapshot recomputes everything from scratch; eligibility in particular
// is never cached between refreshes.
func (t *Tracker) Snapshot(ctx context.Context, learnerID string) (Snapshot, error) {
	p, err := t.learners.GetProfile(ctx, learnerID)
	if err != nil {
		return Snapshot{}, err
	}
	var company *learner.Company
	if p.CompanyID != "" {
		if c, err := t.learners.GetCompany(ctx, p.CompanyID); err == nil {
			company = &c
		}
	}
	elig := learner.ResolveEligibility(p, company)

	snap := Snapshot{LearnerID: learnerID, Eligibility: elig}
	completed := 0
	for _, st := range Stages {
		done, err := t.stageCompleted(ctx, p, st)
		if err != nil {
			t.log.Warn("stage evidence unavailable",
				zap.String("learner_id", learnerID), zap.String("stage", string(st)), zap.Error(err))
			snap.Stages = append(snap.Stages, StageStatus{Stage: st, State: StateUnknown})
			continue
		}
		if done {
			completed++
			snap.Stages = append(snap.Stages, StageStatus{Stage: st, State: StateCompleted})
			continue
		}
		snap.Stages = append(snap.Stages, StageStatus{Stage: st, State: StatePending})
	}

	// next action: first stage in fixed order that is not completed
	for i, ss := range snap.Stages {
		if ss.State == StateCompleted {
			continue
		}
		snap.NextAction = ss.Stage
		// only the next actionable stage is available, and only behind an
		// open eligibility gate
		if ss.State == StatePending && elig == learner.EligibilityValid {
			snap.Stages[i].State = StateAvailable
		}
		break
	}

	// integer percent; one completed stage out of eight reads 12%
	snap.Percent = completed * 100 / len(Stages)
	return snap, nil
}

// stageCompleted reads the denormalized flag, falling back to the response
// store for questionnaire stages whose flag may lag a write.
func (t *Tracker) stageCompleted(ctx context.Context, p learner.Profile, st Stage) (bool, error) {
	switch st {
	case StagePositioning:
		if p.QuestionnaireCompleted {
			return true, nil
		}
		return t.hasResponse(ctx, p.ID, questionnaire.CategoryPositioning, questionnaire.SubTypeNone)
	case StageInternalRules:
		return p.InternalRulesAcknowledged, nil
	case StageAgreement:
		return p.HasSignedAgreement, nil
	case StageInitialEvaluation:
		if p.InitialEvaluationCompleted {
			return true, nil
		}
		return t.hasResponse(ctx, p.ID, questionnaire.CategoryEvaluation, questionnaire.SubTypeInitial)
	case StageAttendance:
		return p.HasSignedAttendance, nil
	case StageFinalEvaluation:
		if p.FinalEvaluationCompleted {
			return true, nil
		}
		return t.hasResponse(ctx, p.ID, questionnaire.CategoryEvaluation, questionnaire.SubTypeFinal)
	case StageSatisfaction:
		if p.SatisfactionCompleted {
			return true, nil
		}
		return t.hasResponse(ctx, p.ID, questionnaire.CategorySatisfaction, questionnaire.SubTypeNone)
	case StageCertificate:
		return p.HasSignedCertificate, nil
	}
	return false, nil
}

func (t *Tracker) hasResponse(ctx context.Context, learnerID string, cat questionnaire.Category, sub questionnaire.SubType) (bool, error) {
	rs, err := t.responses.FindResponses(ctx, questionnaire.ResponseFilter{
		LearnerID:     learnerID,
		Type:          cat,
		SubType:       sub,
		FilterSubType: true,
	})
	if err != nil {
		return false, err
	}
	return len(rs) > 0, nil
}

// AcknowledgeInternalRules records the internal-rules stage; it is a bare
// flag, not a questionnaire.
func (t *Tracker) AcknowledgeInternalRules(ctx context.Context, learnerID string) error {
	return t.learners.UpdateProfile(ctx, learnerID, learner.Patch{
		InternalRulesAcknowledged: learner.BoolPtr(true),
	})
}
