package document

import "errors"

// Type identifies a signable artifact.
type Type string

const (
	TypeAgreement   Type = "training_agreement"
	TypeAttendance  Type = "attendance_sheet"
	TypeCertificate Type = "completion_certificate"
)

func ValidType(t Type) bool {
	switch t {
	case TypeAgreement, TypeAttendance, TypeCertificate:
		return true
	}
	return false
}

// Record points at a rendered, signed PDF for one
// (learner, training, document type). Distinct from the bare signature
// asset, which lives in the signatures bucket.
type Record struct {
	ID         string `json:"id"`
	LearnerID  string `json:"learner_id"`
	TrainingID string `json:"training_id"`
	Type       Type   `json:"type"`
	FileURL    string `json:"file_url"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

var ErrNotFound = errors.New("document not found")

// Resolution is the terminal outcome of the resolution chain. Exactly one
// of the three states holds; the chain never errors for an unsigned
// document.
type Resolution struct {
	State ResolutionState `json:"state"`
	URL   string          `json:"url,omitempty"`
}

type ResolutionState string

const (
	// StateNeedsSigning: the learner has not signed yet; open the signing UI.
	StateNeedsSigning ResolutionState = "needs_signing"
	// StateResolved: URL points at a renderable signed PDF.
	StateResolved ResolutionState = "resolved"
	// StateRegenerationRequired: signed, but no usable PDF survives; the
	// caller must re-render rather than show a broken link.
	StateRegenerationRequired ResolutionState = "regeneration_required"
)
