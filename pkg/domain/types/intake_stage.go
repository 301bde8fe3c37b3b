package types

// IntakeStage is the position of a submission attempt in the intake workflow
type IntakeStage string

const (
	IntakeStageDraft       IntakeStage = "draft"
	IntakeStageValidating  IntakeStage = "validating"
	IntakeStageRejected    IntakeStage = "rejected"
	IntakeStageScoring     IntakeStage = "scoring"
	IntakeStageIdentifying IntakeStage = "identifying"
	IntakeStagePersisting  IntakeStage = "persisting"
	IntakeStageCommitted   IntakeStage = "committed"
	IntakeStageRolledBack  IntakeStage = "rolled_back"
)

// IsFinal reports whether the stage ends a submission attempt
func (s IntakeStage) IsFinal() bool {
	switch s {
	case IntakeStageRejected, IntakeStageCommitted, IntakeStageRolledBack:
		return true
	default:
		return false
	}
}

// String returns the string representation of the stage
func (s IntakeStage) String() string {
	return string(s)
}
