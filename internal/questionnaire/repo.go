package questionnaire

import (
	"context"
	"errors"
)

// ErrNoActiveTemplate means "questionnaire unavailable", a friendly empty
// state for the caller, never a crash.
var ErrNoActiveTemplate = errors.New("no active template")

var ErrNotFound = errors.New("not found")

// ResponseFilter selects responses by equality on the identifying tuple.
// Zero-valued fields are not filtered on, except SubType which is part of
// the tuple whenever FilterSubType is set.
type ResponseFilter struct {
	LearnerID     string
	TemplateID    string
	Type          Category
	SubType       SubType
	FilterSubType bool
}

type Store interface {
	// ActiveTemplate resolves the single active template for
	// (training, category), newest first when legacy duplicates exist.
	// Questions come back ordered by order_index.
	ActiveTemplate(ctx context.Context, trainingID string, cat Category) (Template, error)

	GetTemplate(ctx context.Context, id string) (Template, error)
	// SaveTemplate upserts a template with its questions. When the template
	// is active, any other active template for the same (training, category)
	// is deactivated in the same transaction.
	SaveTemplate(ctx context.Context, t Template) error
	ListTemplates(ctx context.Context, trainingID string) ([]Template, error)

	FindResponses(ctx context.Context, f ResponseFilter) ([]Response, error)
	InsertResponse(ctx context.Context, r Response) (Response, error)
	UpdateResponse(ctx context.Context, id string, answers map[string]string, score *int) (Response, error)
}
