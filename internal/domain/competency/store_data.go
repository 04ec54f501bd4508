package competency

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.q.Query(ctx, `
    SELECT g.id, g.name, g.description,
      (SELECT COUNT(1) FROM competencies c WHERE c.group_id = g.id), g.created_at
    FROM competency_groups g
    ORDER BY g.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CompetencyCount, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (Group, error) {
	var g Group
	err := s.q.QueryRow(ctx, `
    SELECT g.id, g.name, g.description,
      (SELECT COUNT(1) FROM competencies c WHERE c.group_id = g.id), g.created_at
    FROM competency_groups g
    WHERE g.id = $1
  `, groupID).Scan(&g.ID, &g.Name, &g.Description, &g.CompetencyCount, &g.CreatedAt)
	return g, notFound(err)
}

func (s *Store) CreateGroup(ctx context.Context, group Group) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, `
    INSERT INTO competency_groups (name, description) VALUES ($1,$2) RETURNING id
  `, group.Name, group.Description).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicateName
	}
	return id, err
}

func (s *Store) UpdateGroup(ctx context.Context, groupID string, group Group) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE competency_groups SET name = $1, description = $2 WHERE id = $3
  `, group.Name, group.Description, groupID)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM competency_groups WHERE id = $1", groupID)
	if isForeignKeyViolation(err) {
		return ErrGroupNotEmpty
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) FindGroupByName(ctx context.Context, name string) (string, bool, error) {
	var id string
	err := s.q.QueryRow(ctx, "SELECT id FROM competency_groups WHERE lower(name) = lower($1)", name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	return id, err == nil, err
}

func (s *Store) ListCompetencies(ctx context.Context, groupID string) ([]Competency, error) {
	rows, err := s.q.Query(ctx, `
    SELECT c.id, c.group_id, g.name, c.name, c.description, c.created_at
    FROM competencies c
    JOIN competency_groups g ON g.id = c.group_id
    WHERE ($1 = '' OR c.group_id::text = $1)
    ORDER BY g.name, c.name
  `, groupID)
	if err != nil {
		return nil, err
	}
	out := []Competency{}
	index := map[string]int{}
	for rows.Next() {
		var c Competency
		if err := rows.Scan(&c.ID, &c.GroupID, &c.GroupName, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		c.Levels = []Level{}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for _, c := range out {
		ids = append(ids, c.ID)
	}
	levelRows, err := s.q.Query(ctx, `
    SELECT competency_id, level_number, behavioral_indicator
    FROM competency_levels
    WHERE competency_id::text = ANY($1)
    ORDER BY competency_id, level_number
  `, ids)
	if err != nil {
		return nil, err
	}
	defer levelRows.Close()
	for levelRows.Next() {
		var compID string
		var level Level
		if err := levelRows.Scan(&compID, &level.LevelNumber, &level.BehavioralIndicator); err != nil {
			return nil, err
		}
		if i, ok := index[compID]; ok {
			out[i].Levels = append(out[i].Levels, level)
		}
	}
	return out, levelRows.Err()
}

func (s *Store) GetCompetency(ctx context.Context, competencyID string) (Competency, error) {
	var c Competency
	err := s.q.QueryRow(ctx, `
    SELECT c.id, c.group_id, g.name, c.name, c.description, c.created_at
    FROM competencies c
    JOIN competency_groups g ON g.id = c.group_id
    WHERE c.id = $1
  `, competencyID).Scan(&c.ID, &c.GroupID, &c.GroupName, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return Competency{}, notFound(err)
	}

	rows, err := s.q.Query(ctx, `
    SELECT level_number, behavioral_indicator
    FROM competency_levels WHERE competency_id = $1
    ORDER BY level_number
  `, competencyID)
	if err != nil {
		return Competency{}, err
	}
	defer rows.Close()
	c.Levels = []Level{}
	for rows.Next() {
		var level Level
		if err := rows.Scan(&level.LevelNumber, &level.BehavioralIndicator); err != nil {
			return Competency{}, err
		}
		c.Levels = append(c.Levels, level)
	}
	return c, rows.Err()
}

func (s *Store) FindCompetencyByName(ctx context.Context, groupID, name string) (string, bool, error) {
	var id string
	err := s.q.QueryRow(ctx, `
    SELECT id FROM competencies WHERE group_id = $1 AND lower(name) = lower($2)
  `, groupID, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	return id, err == nil, err
}

func (s *Store) CreateCompetency(ctx context.Context, comp Competency) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, `
    INSERT INTO competencies (group_id, name, description) VALUES ($1,$2,$3) RETURNING id
  `, comp.GroupID, comp.Name, comp.Description).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicateName
	}
	return id, err
}

func (s *Store) UpdateCompetency(ctx context.Context, competencyID string, comp Competency) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE competencies SET group_id = $1, name = $2, description = $3 WHERE id = $4
  `, comp.GroupID, comp.Name, comp.Description, competencyID)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ReplaceLevels(ctx context.Context, competencyID string, levels []Level) error {
	if _, err := s.q.Exec(ctx, "DELETE FROM competency_levels WHERE competency_id = $1", competencyID); err != nil {
		return err
	}
	for _, level := range levels {
		if _, err := s.q.Exec(ctx, `
      INSERT INTO competency_levels (competency_id, level_number, behavioral_indicator)
      VALUES ($1,$2,$3)
    `, competencyID, level.LevelNumber, level.BehavioralIndicator); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CompetencyUsage(ctx context.Context, competencyID string) (int, error) {
	var count int
	err := s.q.QueryRow(ctx, "SELECT COUNT(1) FROM user_assessment_details WHERE competency_id = $1", competencyID).Scan(&count)
	return count, err
}

// DeleteCompetency relies on ON DELETE CASCADE for levels and requirements.
func (s *Store) DeleteCompetency(ctx context.Context, competencyID string) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM competencies WHERE id = $1", competencyID)
	if isForeignKeyViolation(err) {
		return ErrCompetencyInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListRequirements(ctx context.Context, bandID string) ([]Requirement, error) {
	rows, err := s.q.Query(ctx, `
    SELECT r.career_band_id, r.competency_id, c.name, c.group_id, r.required_level
    FROM competency_requirements r
    JOIN competencies c ON c.id = r.competency_id
    WHERE ($1 = '' OR r.career_band_id::text = $1)
    ORDER BY r.career_band_id, c.name
  `, bandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Requirement{}
	for rows.Next() {
		var r Requirement
		if err := rows.Scan(&r.CareerBandID, &r.CompetencyID, &r.CompetencyName, &r.GroupID, &r.RequiredLevel); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertRequirement(ctx context.Context, bandID, competencyID string, level int) error {
	_, err := s.q.Exec(ctx, `
    INSERT INTO competency_requirements (career_band_id, competency_id, required_level)
    VALUES ($1,$2,$3)
    ON CONFLICT (career_band_id, competency_id) DO UPDATE
      SET required_level = EXCLUDED.required_level, updated_at = now()
  `, bandID, competencyID, level)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

func (s *Store) BandExists(ctx context.Context, bandID string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM career_bands WHERE id::text = $1)", bandID).Scan(&exists)
	return exists, err
}

func (s *Store) DeleteRequirement(ctx context.Context, bandID, competencyID string) error {
	_, err := s.q.Exec(ctx, `
    DELETE FROM competency_requirements WHERE career_band_id = $1 AND competency_id = $2
  `, bandID, competencyID)
	return err
}
