package timesheet

import "time"

type Entry struct {
	RequestID string  `json:"requestId"`
	UserID    string  `json:"userId"`
	UserName  string  `json:"userName"`
	Type      string  `json:"type"`
	Status    string  `json:"status"`
	IsHalfDay bool    `json:"isHalfDay"`
	Amount    float64 `json:"amount"`
}

type Day struct {
	Date      string  `json:"date"`
	Weekday   string  `json:"weekday"`
	IsWeekend bool    `json:"isWeekend"`
	Entries   []Entry `json:"entries"`
}

// Totals only counts APPROVED requests; PendingEntries is the number of
// day entries still waiting for a decision.
type Totals struct {
	LeaveDays      float64 `json:"leaveDays"`
	WFHDays        float64 `json:"wfhDays"`
	OvertimeDays   float64 `json:"overtimeDays"`
	LateCount      int     `json:"lateCount"`
	EarlyCount     int     `json:"earlyCount"`
	PendingEntries int     `json:"pendingEntries"`
}

type Calendar struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Days   []Day  `json:"days"`
	Totals Totals `json:"totals"`
}

type Person struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	TeamID   string `json:"teamId,omitempty"`
	LeaderID string `json:"-"`
}

type MemberTotals struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Totals   Totals `json:"totals"`
}

// Sheet is a calendar for one user or for a whole team.
type Sheet struct {
	Title    string         `json:"title"`
	UserID   string         `json:"userId,omitempty"`
	TeamID   string         `json:"teamId,omitempty"`
	Calendar Calendar       `json:"calendar"`
	Members  []MemberTotals `json:"members,omitempty"`
}

type TeamRef struct {
	ID       string
	Name     string
	LeaderID string
	Members  []Person
}

// Range is an inclusive date range.
type Range struct {
	From time.Time
	To   time.Time
}
