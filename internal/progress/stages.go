package progress

// Stage is one ordered step of the learner's mandatory sequence.
type Stage string

const (
	StagePositioning       Stage = "positioning"
	StageInternalRules     Stage = "internal_rules"
	StageAgreement         Stage = "training_agreement"
	StageInitialEvaluation Stage = "initial_evaluation"
	StageAttendance        Stage = "attendance_sheet"
	StageFinalEvaluation   Stage = "final_evaluation"
	StageSatisfaction      Stage = "satisfaction"
	StageCertificate       Stage = "completion_certificate"
)

// Stages is the canonical order. Next-action and percentage computations
// run over this list and nothing else.
var Stages = []Stage{
	StagePositioning,
	StageInternalRules,
	StageAgreement,
	StageInitialEvaluation,
	StageAttendance,
	StageFinalEvaluation,
	StageSatisfaction,
	StageCertificate,
}

type State string

const (
	StatePending   State = "pending"
	StateAvailable State = "available"
	StateCompleted State = "completed"
	// StateUnknown marks a stage whose evidence could not be read; the
	// rest of the view still renders.
	StateUnknown State = "unknown"
)

type StageStatus struct {
	Stage Stage `json:"stage"`
	State State `json:"state"`
}
