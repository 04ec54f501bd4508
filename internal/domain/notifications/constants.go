package notifications

const (
	TypeAssessmentOpened    = "assessment_opened"
	TypeAssessmentAdvanced  = "assessment_advanced"
	TypeAssessmentCompleted = "assessment_completed"
	TypeRequestSubmitted    = "request_submitted"
	TypeRequestApproved     = "request_approved"
	TypeRequestRejected     = "request_rejected"
	TypeProfileReviewed     = "profile_reviewed"
	TypeTeamChanged         = "team_changed"
)
