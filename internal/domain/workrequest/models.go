package workrequest

import "time"

type Request struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	UserName        string     `json:"userName"`
	Type            string     `json:"type"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	IsHalfDay       bool       `json:"isHalfDay"`
	Days            float64    `json:"days"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	ApproverID      string     `json:"approverId,omitempty"`
	ApproverName    string     `json:"approverName,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type CreateInput struct {
	Type      string
	StartDate time.Time
	EndDate   time.Time
	IsHalfDay bool
	Reason    string
}

type Filter struct {
	UserID   string
	UserIDs  []string
	LeaderID string
	Status   string
	Type     string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int

	// OwnerOrLeader matches requests owned by this user or by members of a
	// team they lead.
	OwnerOrLeader string
}

type ListResult struct {
	Items []Request `json:"items"`
	Total int       `json:"total"`
}
