package questionnaire

// Category classifies a questionnaire template.
type Category string

const (
	CategoryPositioning  Category = "positioning"
	CategoryEvaluation   Category = "initial_final_evaluation"
	CategorySatisfaction Category = "satisfaction"
)

// SubType splits the evaluation category into its two passes. Empty for
// every other category.
type SubType string

const (
	SubTypeInitial SubType = "initial"
	SubTypeFinal   SubType = "final"
	SubTypeNone    SubType = ""
)

func ValidCategory(c Category) bool {
	switch c {
	case CategoryPositioning, CategoryEvaluation, CategorySatisfaction:
		return true
	}
	return false
}

type Template struct {
	ID         string   `json:"id"`
	TrainingID string   `json:"training_id"`
	Type       Category `json:"type"`
	Title      string   `json:"title"`
	IsActive   bool     `json:"is_active"`
	CreatedAt  int64    `json:"created_at,omitempty"`

	Questions []Question `json:"questions,omitempty"`
}

type Question struct {
	ID         string   `json:"id"`
	TemplateID string   `json:"template_id,omitempty"`
	OrderIndex int      `json:"order_index"`
	Type       string   `json:"type"` // multiple_choice|yes_no|rating|short_answer
	Text       string   `json:"text"`
	Options    []string `json:"options,omitempty"`
	// Only meaningful for scored categories; nil questions still count
	// toward the score denominator.
	CorrectAnswer *string `json:"correct_answer,omitempty"`
}

// Response is the central record: at most one per
// (learner, template, category, sub_type) tuple. Resubmissions overwrite.
type Response struct {
	ID         string            `json:"id"`
	LearnerID  string            `json:"learner_id"`
	TemplateID string            `json:"template_id"`
	Type       Category          `json:"type"`
	SubType    SubType           `json:"sub_type,omitempty"`
	Answers    map[string]string `json:"answers"` // question id -> raw answer
	Score      *int              `json:"score,omitempty"`
	CreatedAt  int64             `json:"created_at,omitempty"`
	UpdatedAt  int64             `json:"updated_at,omitempty"`
}
