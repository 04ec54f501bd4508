package competency

import "time"

const (
	MinLevel = 1
	MaxLevel = 5
)

type Group struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	CompetencyCount int       `json:"competencyCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Competency struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	GroupName   string    `json:"groupName,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Levels      []Level   `json:"levels"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Level struct {
	LevelNumber         int    `json:"levelNumber"`
	BehavioralIndicator string `json:"behavioralIndicator"`
}

type Requirement struct {
	CareerBandID   string `json:"careerBandId"`
	CompetencyID   string `json:"competencyId"`
	CompetencyName string `json:"competencyName,omitempty"`
	GroupID        string `json:"groupId,omitempty"`
	RequiredLevel  int    `json:"requiredLevel"`
}

type ImportSummary struct {
	GroupsCreated       int `json:"groupsCreated"`
	CompetenciesCreated int `json:"competenciesCreated"`
	CompetenciesUpdated int `json:"competenciesUpdated"`
}
