package profile

import "time"

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"

	dateLayout = "2006-01-02"
)

// Changes lists the self-service fields a user may ask to change. Nil means
// "leave as is".
type Changes struct {
	FullName    *string   `json:"fullName,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
	DateOfBirth *string   `json:"dateOfBirth,omitempty"`
	JobTitle    *string   `json:"jobTitle,omitempty"`
	Summary     *string   `json:"summary,omitempty"`
	Skills      *[]string `json:"skills,omitempty"`
}

// Profile is the current value of every changeable field.
type Profile struct {
	FullName    string
	Phone       string
	Address     string
	DateOfBirth *time.Time
	JobTitle    string
	Summary     string
	Skills      []string
}

type Request struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName"`
	Changes    Changes    `json:"changes"`
	Previous   Changes    `json:"previousData"`
	Status     string     `json:"status"`
	ReviewerID string     `json:"reviewerId,omitempty"`
	ReviewNote string     `json:"reviewNote,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Filter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}
