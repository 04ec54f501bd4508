package assessment

const (
	CycleStatusDraft     = "DRAFT"
	CycleStatusActive    = "ACTIVE"
	CycleStatusCompleted = "COMPLETED"

	StatusSelfAssessing   = "SELF_ASSESSING"
	StatusLeaderAssessing = "LEADER_ASSESSING"
	StatusDiscussion      = "DISCUSSION"
	StatusDone            = "DONE"

	FieldSelfLevel   = "selfLevel"
	FieldLeaderLevel = "leaderLevel"
	FieldFinalLevel  = "finalLevel"
	FieldFeedback    = "feedback"
)
