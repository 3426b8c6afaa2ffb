package learner

// Profile is the learner's denormalized view of the training lifecycle.
// The per-stage booleans mirror the response and document stores; they are
// refreshed by the submission coordinator and the signing workflow after
// every write and must not be mutated anywhere else.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"` // learner|trainer|admin

	CompanyID  string `json:"company_id,omitempty"`
	TrainingID string `json:"training_id,omitempty"`

	QuestionnaireCompleted     bool `json:"questionnaire_completed"`
	InternalRulesAcknowledged  bool `json:"internal_rules_acknowledged"`
	InitialEvaluationCompleted bool `json:"initial_evaluation_completed"`
	FinalEvaluationCompleted   bool `json:"final_evaluation_completed"`
	SatisfactionCompleted      bool `json:"satisfaction_completed"`
	HasSignedAgreement         bool `json:"has_signed_agreement"`
	HasSignedAttendance        bool `json:"has_signed_attendance"`
	HasSignedCertificate       bool `json:"has_signed_certificate"`

	InitialScore *int `json:"initial_score,omitempty"`
	FinalScore   *int `json:"final_score,omitempty"`

	// One reference per signable artifact. Kind is written together with
	// the URL and is authoritative; the path is never re-parsed.
	Agreement   SignatureRef `json:"agreement"`
	Attendance  SignatureRef `json:"attendance"`
	Certificate SignatureRef `json:"certificate"`

	Deleted   bool  `json:"-"` // soft flag, set by a separate collaborator
	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

// AssetKind distinguishes a bare signature PNG from a rendered PDF.
type AssetKind string

const (
	AssetSignature AssetKind = "signature"
	AssetDocument  AssetKind = "document"
)

type SignatureRef struct {
	URL  string    `json:"url,omitempty"`
	Kind AssetKind `json:"kind,omitempty"`
}

type Company struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"` // pending|validated
	TrainingID string `json:"training_id,omitempty"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

type Training struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Patch carries partial profile updates; nil fields are left untouched.
type Patch struct {
	QuestionnaireCompleted     *bool
	InternalRulesAcknowledged  *bool
	InitialEvaluationCompleted *bool
	FinalEvaluationCompleted   *bool
	SatisfactionCompleted      *bool
	HasSignedAgreement         *bool
	HasSignedAttendance        *bool
	HasSignedCertificate       *bool

	InitialScore *int
	FinalScore   *int

	Agreement   *SignatureRef
	Attendance  *SignatureRef
	Certificate *SignatureRef
}

func BoolPtr(b bool) *bool { return &b }
