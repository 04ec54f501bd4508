package core

import "time"

type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"fullName"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	JobTitle       string     `json:"jobTitle"`
	Summary        string     `json:"summary"`
	Skills         []string   `json:"skills"`
	Role           string     `json:"role"`
	CareerBandID   *string    `json:"careerBandId"`
	CareerBandName string     `json:"careerBandName,omitempty"`
	TeamID         *string    `json:"teamId"`
	TeamName       string     `json:"teamName,omitempty"`
	Status         string     `json:"status"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type CareerBand struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sortOrder"`
	UserCount   int       `json:"userCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UserFilter struct {
	Search string
	Role   string
	Status string
	TeamID string
	BandID string
	Limit  int
	Offset int
}

type CreateUserInput struct {
	Email        string
	FullName     string
	JobTitle     string
	Role         string
	CareerBandID string
	TeamID       string
}

// UpdateUserInput carries administrative changes; nil fields are left as-is.
type UpdateUserInput struct {
	FullName     *string
	JobTitle     *string
	Role         *string
	CareerBandID *string
	Status       *string
}
