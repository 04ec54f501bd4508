package assessment

import "time"

type Cycle struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	Status          string     `json:"status"`
	ActivatedAt     *time.Time `json:"activatedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CreatedBy       string     `json:"createdBy,omitempty"`
	AssessmentCount int        `json:"assessmentCount"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type CycleInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

type Assessment struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	CycleID       string    `json:"cycleId"`
	CycleName     string    `json:"cycleName"`
	CycleStatus   string    `json:"cycleStatus"`
	LeaderID      string    `json:"leaderId,omitempty"`
	Status        string    `json:"status"`
	SelfScoreAvg  *float64  `json:"selfScoreAvg"`
	FinalScoreAvg *float64  `json:"finalScoreAvg"`
	Feedback      string    `json:"feedback"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Detail struct {
	CompetencyID   string `json:"competencyId"`
	CompetencyName string `json:"competencyName"`
	GroupID        string `json:"groupId"`
	GroupName      string `json:"groupName"`
	RequiredLevel  *int   `json:"requiredLevel"`
	SelfLevel      *int   `json:"selfLevel"`
	LeaderLevel    *int   `json:"leaderLevel"`
	FinalLevel     *int   `json:"finalLevel"`
	Gap            *int   `json:"gap"`
}

// View is an assessment with its detail rows and computed summary.
type View struct {
	Assessment
	Relation Relation `json:"relation"`
	Details  []Detail `json:"details"`
	Summary  Summary  `json:"summary"`
}

type Summary struct {
	SelfScoreAvg   *float64       `json:"selfScoreAvg"`
	FinalScoreAvg  *float64       `json:"finalScoreAvg"`
	Groups         []GroupScore   `json:"groups"`
	Gaps           []Gap          `json:"gaps"`
	Underqualified Underqualified `json:"underqualified"`
}

type GroupScore struct {
	GroupID   string   `json:"groupId"`
	GroupName string   `json:"groupName"`
	Count     int      `json:"count"`
	Self      *float64 `json:"self"`
	Leader    *float64 `json:"leader"`
	Final     *float64 `json:"final"`
	Required  *float64 `json:"required"`
}

type Gap struct {
	CompetencyID   string `json:"competencyId"`
	CompetencyName string `json:"competencyName"`
	RequiredLevel  int    `json:"requiredLevel"`
	AchievedLevel  int    `json:"achievedLevel"`
	Source         string `json:"source"`
	Gap            int    `json:"gap"`
}

type Underqualified struct {
	Count int `json:"count"`
	Sum   int `json:"sum"`
}

type Filter struct {
	CycleID  string
	UserID   string
	LeaderID string
	Status   string
	Limit    int
	Offset   int

	// OwnerOrLeader matches assessments owned by this user or by members of
	// a team they lead.
	OwnerOrLeader string
}

type ReportRow struct {
	AssessmentID   string         `json:"assessmentId"`
	UserID         string         `json:"userId"`
	UserName       string         `json:"userName"`
	Status         string         `json:"status"`
	SelfScoreAvg   *float64       `json:"selfScoreAvg"`
	FinalScoreAvg  *float64       `json:"finalScoreAvg"`
	Underqualified Underqualified `json:"underqualified"`
}

type CycleReport struct {
	Cycle    Cycle          `json:"cycle"`
	ByStatus map[string]int `json:"byStatus"`
	Rows     []ReportRow    `json:"rows"`
}

type EligibleUser struct {
	UserID       string
	CareerBandID string
}
