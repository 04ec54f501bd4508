package team

import "time"

type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LeaderID    string    `json:"leaderId,omitempty"`
	LeaderName  string    `json:"leaderName,omitempty"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Member struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	JobTitle string `json:"jobTitle"`
	Role     string `json:"role"`
	IsLeader bool   `json:"isLeader"`
}

type Details struct {
	Team
	Members []Member `json:"members"`
}

type Input struct {
	Name        string
	Description string
}

// DeleteResult tells the caller how many members lost their team.
type DeleteResult struct {
	Team           Team `json:"team"`
	MembersCleared int  `json:"membersCleared"`
}
