package assessment

import (
	"context"

	"talenthub/internal/domain/competency"
)

type StoreAPI interface {
	InTx(ctx context.Context, fn func(tx StoreAPI) error) error

	CreateCycle(ctx context.Context, in CycleInput, createdBy string) (string, error)
	GetCycle(ctx context.Context, cycleID string) (Cycle, error)
	LockCycle(ctx context.Context, cycleID string) (Cycle, error)
	ListCycles(ctx context.Context) ([]Cycle, error)
	UpdateCycle(ctx context.Context, cycleID string, in CycleInput) error
	ActiveCycle(ctx context.Context) (Cycle, bool, error)
	SetCycleStatus(ctx context.Context, cycleID, status string) error

	ListEligibleUsers(ctx context.Context) ([]EligibleUser, error)
	EligibleUser(ctx context.Context, userID string) (EligibleUser, bool, error)
	ListRequirements(ctx context.Context) ([]competency.Requirement, error)

	CreateAssessment(ctx context.Context, cycleID string, seed Seed) (string, error)
	GetAssessment(ctx context.Context, assessmentID string) (Assessment, error)
	LockAssessment(ctx context.Context, assessmentID string) (Assessment, error)
	FindAssessment(ctx context.Context, userID, cycleID string) (Assessment, bool, error)
	ListAssessments(ctx context.Context, filter Filter) ([]Assessment, int, error)
	ListDetails(ctx context.Context, assessmentID string) ([]Detail, error)
	SetDetailLevel(ctx context.Context, assessmentID, competencyID, field string, level *int) error
	SaveProgress(ctx context.Context, assessmentID string, selfAvg, finalAvg *float64) (int, error)
	SetFeedback(ctx context.Context, assessmentID, feedback string) (int, error)
	SetStatus(ctx context.Context, assessmentID, status string) (int, error)
}
