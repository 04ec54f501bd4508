package emails

import "time"

type Template struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TemplateInput struct {
	Code        string
	Subject     string
	Body        string
	Description string
}

type Log struct {
	ID           string     `json:"id"`
	TemplateCode string     `json:"templateCode,omitempty"`
	Recipient    string     `json:"recipient"`
	Subject      string     `json:"subject"`
	Body         string     `json:"body"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	Attempts     int        `json:"attempts"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type LogFilter struct {
	Status    string
	Recipient string
	Limit     int
	Offset    int
}
