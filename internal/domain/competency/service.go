package competency

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.store.ListGroups(ctx)
}

func (s *Service) CreateGroup(ctx context.Context, group Group) (Group, error) {
	group.Name = strings.TrimSpace(group.Name)
	id, err := s.store.CreateGroup(ctx, group)
	if err != nil {
		return Group{}, err
	}
	return s.store.GetGroup(ctx, id)
}

func (s *Service) UpdateGroup(ctx context.Context, groupID string, group Group) (Group, error) {
	group.Name = strings.TrimSpace(group.Name)
	if err := s.store.UpdateGroup(ctx, groupID, group); err != nil {
		return Group{}, err
	}
	return s.store.GetGroup(ctx, groupID)
}

// DeleteGroup refuses to remove a group that still owns competencies.
func (s *Service) DeleteGroup(ctx context.Context, groupID string) (Group, error) {
	var group Group
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		var err error
		group, err = tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.CompetencyCount > 0 {
			return ErrGroupNotEmpty
		}
		return tx.DeleteGroup(ctx, groupID)
	})
	if err != nil {
		return Group{}, err
	}
	return group, nil
}

func (s *Service) ListCompetencies(ctx context.Context, groupID string) ([]Competency, error) {
	return s.store.ListCompetencies(ctx, groupID)
}

func (s *Service) GetCompetency(ctx context.Context, competencyID string) (Competency, error) {
	return s.store.GetCompetency(ctx, competencyID)
}

func (s *Service) CreateCompetency(ctx context.Context, comp Competency) (Competency, error) {
	levels, err := ValidateLevels(comp.Levels)
	if err != nil {
		return Competency{}, err
	}
	comp.Name = strings.TrimSpace(comp.Name)
	var id string
	err = s.store.InTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.GetGroup(ctx, comp.GroupID); err != nil {
			return err
		}
		id, err = tx.CreateCompetency(ctx, comp)
		if err != nil {
			return err
		}
		return tx.ReplaceLevels(ctx, id, levels)
	})
	if err != nil {
		return Competency{}, err
	}
	return s.store.GetCompetency(ctx, id)
}

// UpdateCompetency rewrites the competency and replaces its whole level ladder.
func (s *Service) UpdateCompetency(ctx context.Context, competencyID string, comp Competency) (Competency, error) {
	levels, err := ValidateLevels(comp.Levels)
	if err != nil {
		return Competency{}, err
	}
	comp.Name = strings.TrimSpace(comp.Name)
	err = s.store.InTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.GetGroup(ctx, comp.GroupID); err != nil {
			return err
		}
		if err := tx.UpdateCompetency(ctx, competencyID, comp); err != nil {
			return err
		}
		return tx.ReplaceLevels(ctx, competencyID, levels)
	})
	if err != nil {
		return Competency{}, err
	}
	return s.store.GetCompetency(ctx, competencyID)
}

func (s *Service) DeleteCompetency(ctx context.Context, competencyID string) (Competency, error) {
	var comp Competency
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		var err error
		comp, err = tx.GetCompetency(ctx, competencyID)
		if err != nil {
			return err
		}
		used, err := tx.CompetencyUsage(ctx, competencyID)
		if err != nil {
			return err
		}
		if used > 0 {
			return ErrCompetencyInUse
		}
		return tx.DeleteCompetency(ctx, competencyID)
	})
	if err != nil {
		return Competency{}, err
	}
	return comp, nil
}

func (s *Service) ListRequirements(ctx context.Context, bandID string) ([]Requirement, error) {
	return s.store.ListRequirements(ctx, bandID)
}

// LoadMatrix snapshots the whole requirements matrix.
func (s *Service) LoadMatrix(ctx context.Context) (*Matrix, error) {
	reqs, err := s.store.ListRequirements(ctx, "")
	if err != nil {
		return nil, err
	}
	return NewMatrix(reqs), nil
}

// SetRequirement stores a band's required level for a competency. A nil level
// removes the requirement.
func (s *Service) SetRequirement(ctx context.Context, bandID, competencyID string, level *int) error {
	return s.store.InTx(ctx, func(tx StoreAPI) error {
		reqs, err := tx.ListRequirements(ctx, bandID)
		if err != nil {
			return err
		}
		row := NewMatrix(reqs)
		if err := row.Set(bandID, competencyID, level); err != nil {
			return err
		}
		exists, err := tx.BandExists(ctx, bandID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("career band %s: %w", bandID, ErrNotFound)
		}
		if _, err := tx.GetCompetency(ctx, competencyID); err != nil {
			return err
		}
		required, ok := row.Get(bandID, competencyID)
		if !ok {
			return tx.DeleteRequirement(ctx, bandID, competencyID)
		}
		return tx.UpsertRequirement(ctx, bandID, competencyID, required)
	})
}

// ImportFramework upserts groups and competencies by name. Existing
// competencies get their description and levels replaced.
func (s *Service) ImportFramework(ctx context.Context, fw Framework) (ImportSummary, error) {
	if err := fw.Validate(); err != nil {
		return ImportSummary{}, err
	}
	var summary ImportSummary
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		for _, fg := range fw.Groups {
			name := strings.TrimSpace(fg.Name)
			groupID, found, err := tx.FindGroupByName(ctx, name)
			if err != nil {
				return err
			}
			if !found {
				groupID, err = tx.CreateGroup(ctx, Group{Name: name, Description: fg.Description})
				if err != nil {
					return fmt.Errorf("create group %q: %w", name, err)
				}
				summary.GroupsCreated++
			}
			for _, fc := range fg.Competencies {
				levels, err := ValidateLevels(fc.LevelList())
				if err != nil {
					return err
				}
				comp := Competency{GroupID: groupID, Name: strings.TrimSpace(fc.Name), Description: fc.Description}
				compID, exists, err := tx.FindCompetencyByName(ctx, groupID, comp.Name)
				if err != nil {
					return err
				}
				if exists {
					if err := tx.UpdateCompetency(ctx, compID, comp); err != nil {
						return err
					}
					summary.CompetenciesUpdated++
				} else {
					compID, err = tx.CreateCompetency(ctx, comp)
					if err != nil {
						return fmt.Errorf("create competency %q: %w", comp.Name, err)
					}
					summary.CompetenciesCreated++
				}
				if err := tx.ReplaceLevels(ctx, compID, levels); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}
	return summary, nil
}
