package competency

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(tx StoreAPI) error) error
	ListGroups(ctx context.Context) ([]Group, error)
	GetGroup(ctx context.Context, groupID string) (Group, error)
	CreateGroup(ctx context.Context, group Group) (string, error)
	UpdateGroup(ctx context.Context, groupID string, group Group) error
	DeleteGroup(ctx context.Context, groupID string) error
	FindGroupByName(ctx context.Context, name string) (string, bool, error)
	ListCompetencies(ctx context.Context, groupID string) ([]Competency, error)
	GetCompetency(ctx context.Context, competencyID string) (Competency, error)
	FindCompetencyByName(ctx context.Context, groupID, name string) (string, bool, error)
	CreateCompetency(ctx context.Context, comp Competency) (string, error)
	UpdateCompetency(ctx context.Context, competencyID string, comp Competency) error
	ReplaceLevels(ctx context.Context, competencyID string, levels []Level) error
	CompetencyUsage(ctx context.Context, competencyID string) (int, error)
	DeleteCompetency(ctx context.Context, competencyID string) error
	BandExists(ctx context.Context, bandID string) (bool, error)
	ListRequirements(ctx context.Context, bandID string) ([]Requirement, error)
	UpsertRequirement(ctx context.Context, bandID, competencyID string, level int) error
	DeleteRequirement(ctx context.Context, bandID, competencyID string) error
}
