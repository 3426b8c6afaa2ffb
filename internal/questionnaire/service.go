package questionnaire

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/petitmaker/training-backend/internal/audit"
	"github.com/petitmaker/training-backend/internal/learner"
)

var (
	// ErrNotEligible means the learner's company/training association is
	// not validated yet; the UI shows the action greyed out.
	ErrNotEligible = errors.New("learner not eligible")

	ErrBadSubType = errors.New("invalid sub_type for category")

	// ErrTemplateMismatch means the named template is not the one the
	// request claims: wrong category, or another training's template.
	ErrTemplateMismatch = errors.New("template does not match request")
)

// Service is the submission coordinator: create-or-update per response
// tuple, score computation, and the read-through refresh of the learner's
// denormalized completion flags.
type Service struct {
	store    Store
	learners learner.Store
	events   audit.Log
	log      *zap.Logger
}

func NewService(store Store, learners learner.Store, events audit.Log, log *zap.Logger) *Service {
	if events == nil {
		events = audit.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, learners: learners, events: events, log: log}
}

// ResolveActive returns the active template for the learner's training,
// with answer keys stripped. ErrNoActiveTemplate when none is configured,
// ErrNotEligible when the gate is closed.
func (s *Service) ResolveActive(ctx context.Context, learnerID string, cat Category) (Template, error) {
	p, elig, err := s.gate(ctx, learnerID)
	if err != nil {
		return Template{}, err
	}
	if elig != learner.EligibilityValid {
		return Template{}, ErrNotEligible
	}
	t, err := s.store.ActiveTemplate(ctx, p.TrainingID, cat)
	if err != nil {
		return Template{}, err
	}
	// learners never see the key
	for i := range t.Questions {
		t.Questions[i].CorrectAnswer = nil
	}
	return t, nil
}

// Submit is idempotent on the (learner, template, category, sub_type)
// tuple: the first call inserts, later calls overwrite answers and score
// in place. Duplicate rows left behind by upstream drift are resolved to
// the most recent one and reported, never surfaced to the learner.
func (s *Service) Submit(ctx context.Context, learnerID, templateID string, cat Category, sub SubType, answers map[string]string) (Response, error) {
	if !ValidCategory(cat) {
		return Response{}, fmt.Errorf("unknown category %q", cat)
	}
	if err := checkSubType(cat, sub); err != nil {
		return Response{}, err
	}

	p, elig, err := s.gate(ctx, learnerID)
	if err != nil {
		return Response{}, err
	}
	if elig != learner.EligibilityValid {
		return Response{}, ErrNotEligible
	}

	tmpl, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return Response{}, err
	}
	// the score and the completion flag both key off the claimed category,
	// so the template must actually be of that category and belong to the
	// learner's training
	if tmpl.Type != cat {
		return Response{}, fmt.Errorf("%w: template %s is %s, not %s", ErrTemplateMismatch, tmpl.ID, tmpl.Type, cat)
	}
	if tmpl.TrainingID != p.TrainingID {
		return Response{}, fmt.Errorf("%w: template %s belongs to another training", ErrTemplateMismatch, tmpl.ID)
	}

	var score *int
	if Scored(cat) {
		v := ComputeScore(answers, tmpl.Questions)
		score = &v
	}

	existing, err := s.store.FindResponses(ctx, ResponseFilter{
		LearnerID:     learnerID,
		TemplateID:    templateID,
		Type:          cat,
		SubType:       sub,
		FilterSubType: true,
	})
	if err != nil {
		return Response{}, err
	}

	var out Response
	switch {
	case len(existing) == 0:
		out, err = s.store.InsertResponse(ctx, Response{
			LearnerID:  learnerID,
			TemplateID: templateID,
			Type:       cat,
			SubType:    sub,
			Answers:    answers,
			Score:      score,
		})
	default:
		if len(existing) > 1 {
			// uniqueness invariant violated upstream; recover with the
			// most recent row and keep the submission alive
			ids := make([]string, 0, len(existing)-1)
			for _, r := range existing[1:] {
				ids = append(ids, r.ID)
			}
			s.log.Warn("ambiguous response tuple, picking most recent",
				zap.String("learner_id", learnerID),
				zap.String("template_id", templateID),
				zap.String("type", string(cat)),
				zap.String("sub_type", string(sub)),
				zap.Strings("shadowed_ids", ids))
			_ = s.events.Append(ctx, audit.Event{
				Type: audit.TypeResponseAmbiguous,
				Key:  learnerID,
				DataJSON: audit.Payload(map[string]interface{}{
					"template_id":  templateID,
					"type":         cat,
					"sub_type":     sub,
					"picked":       existing[0].ID,
					"shadowed_ids": ids,
				}),
			})
		}
		out, err = s.store.UpdateResponse(ctx, existing[0].ID, answers, score)
	}
	if err != nil {
		return Response{}, err
	}

	if err := s.refreshFlags(ctx, p.ID, cat, sub, score); err != nil {
		// the response is stored; a failed flag refresh corrects itself on
		// the next submission, so log and keep going
		s.log.Error("profile flag refresh failed", zap.String("learner_id", p.ID), zap.Error(err))
	}

	_ = s.events.Append(ctx, audit.Event{
		Type: audit.TypeResponseSubmitted,
		Key:  out.ID,
		DataJSON: audit.Payload(map[string]interface{}{
			"learner_id": learnerID,
			"type":       cat,
			"sub_type":   sub,
			"score":      out.Score,
		}),
	})
	return out, nil
}

// MyResponses lists the learner's stored responses, optionally narrowed to
// one category.
func (s *Service) MyResponses(ctx context.Context, learnerID string, cat Category) ([]Response, error) {
	return s.store.FindResponses(ctx, ResponseFilter{LearnerID: learnerID, Type: cat})
}

func (s *Service) gate(ctx context.Context, learnerID string) (learner.Profile, learner.Eligibility, error) {
	p, err := s.learners.GetProfile(ctx, learnerID)
	if err != nil {
		return learner.Profile{}, "", err
	}
	var company *learner.Company
	if p.CompanyID != "" {
		if c, err := s.learners.GetCompany(ctx, p.CompanyID); err == nil {
			company = &c
		}
	}
	return p, learner.ResolveEligibility(p, company), nil
}

// refreshFlags mirrors response existence onto the profile: the flags are
// a read-through cache of the response store, recomputed after each write.
func (s *Service) refreshFlags(ctx context.Context, learnerID string, cat Category, sub SubType, score *int) error {
	var patch learner.Patch
	switch cat {
	case CategoryPositioning:
		patch.QuestionnaireCompleted = learner.BoolPtr(true)
	case CategorySatisfaction:
		patch.SatisfactionCompleted = learner.BoolPtr(true)
	case CategoryEvaluation:
		switch sub {
		case SubTypeInitial:
			patch.InitialEvaluationCompleted = learner.BoolPtr(true)
			patch.InitialScore = score
		case SubTypeFinal:
			patch.FinalEvaluationCompleted = learner.BoolPtr(true)
			patch.FinalScore = score
		}
	}
	return s.learners.UpdateProfile(ctx, learnerID, patch)
}

func checkSubType(cat Category, sub SubType) error {
	if cat == CategoryEvaluation {
		if sub != SubTypeInitial && sub != SubTypeFinal {
			return ErrBadSubType
		}
		return nil
	}
	if sub != SubTypeNone {
		return ErrBadSubType
	}
	return nil
}
