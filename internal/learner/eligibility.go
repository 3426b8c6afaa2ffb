package learner

// Eligibility gates every questionnaire and document action. It is derived
// on each progress refresh, never cached: an administrator may validate the
// company at any moment and the portal must pick that up on the next poll.
type Eligibility string

const (
	EligibilityValid    Eligibility = "valid"
	EligibilityPending  Eligibility = "pending"
	EligibilityNotFound Eligibility = "not_found"
)

// ResolveEligibility applies the gate rules:
// no company on file -> not_found; company without a training, or still
// awaiting validation -> pending; anything else -> valid.
func ResolveEligibility(p Profile, c *Company) Eligibility {
	if p.CompanyID == "" || c == nil {
		return EligibilityNotFound
	}
	if c.TrainingID == "" || c.Status != "validated" {
		return EligibilityPending
	}
	return EligibilityValid
}
