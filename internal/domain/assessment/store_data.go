package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"talenthub/internal/domain/competency"
)

const cycleColumns = `
    c.id, c.name, c.start_date, c.end_date, c.status, c.activated_at, c.completed_at,
    COALESCE(c.created_by::text, ''),
    (SELECT COUNT(1) FROM user_assessments a WHERE a.cycle_id = c.id),
    c.created_at
`

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	err := row.Scan(&c.ID, &c.Name, &c.StartDate, &c.EndDate, &c.Status, &c.ActivatedAt, &c.CompletedAt,
		&c.CreatedBy, &c.AssessmentCount, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cycle{}, ErrCycleNotFound
	}
	return c, err
}

func (s *Store) CreateCycle(ctx context.Context, in CycleInput, createdBy string) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, `
    INSERT INTO assessment_cycles (name, start_date, end_date, status, created_by)
    VALUES ($1,$2,$3,$4,NULLIF($5,'')::uuid)
    RETURNING id
  `, in.Name, in.StartDate, in.EndDate, CycleStatusDraft, createdBy).Scan(&id)
	return id, err
}

func (s *Store) GetCycle(ctx context.Context, cycleID string) (Cycle, error) {
	return scanCycle(s.q.QueryRow(ctx, "SELECT "+cycleColumns+" FROM assessment_cycles c WHERE c.id = $1", cycleID))
}

func (s *Store) LockCycle(ctx context.Context, cycleID string) (Cycle, error) {
	return scanCycle(s.q.QueryRow(ctx, "SELECT "+cycleColumns+" FROM assessment_cycles c WHERE c.id = $1 FOR UPDATE", cycleID))
}

func (s *Store) ListCycles(ctx context.Context) ([]Cycle, error) {
	rows, err := s.q.Query(ctx, "SELECT "+cycleColumns+" FROM assessment_cycles c ORDER BY c.start_date DESC, c.created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCycle(ctx context.Context, cycleID string, in CycleInput) error {
	tag, err := s.q.Exec(ctx, `
    UPDATE assessment_cycles SET name = $1, start_date = $2, end_date = $3
    WHERE id = $4
  `, in.Name, in.StartDate, in.EndDate, cycleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleNotFound
	}
	return nil
}

func (s *Store) ActiveCycle(ctx context.Context) (Cycle, bool, error) {
	c, err := scanCycle(s.q.QueryRow(ctx, "SELECT "+cycleColumns+" FROM assessment_cycles c WHERE c.status = $1", CycleStatusActive))
	if errors.Is(err, ErrCycleNotFound) {
		return Cycle{}, false, nil
	}
	if err != nil {
		return Cycle{}, false, err
	}
	return c, true, nil
}

func (s *Store) SetCycleStatus(ctx context.Context, cycleID, status string) error {
	_, err := s.q.Exec(ctx, `
    UPDATE assessment_cycles
    SET status = $1,
      activated_at = CASE WHEN $1 = 'ACTIVE' THEN now() ELSE activated_at END,
      completed_at = CASE WHEN $1 = 'COMPLETED' THEN now() ELSE completed_at END
    WHERE id = $2
  `, status, cycleID)
	if name, ok := uniqueViolation(err); ok && name == "assessment_cycles_single_active" {
		return ErrActiveCycleExists
	}
	return err
}

func (s *Store) ListEligibleUsers(ctx context.Context) ([]EligibleUser, error) {
	rows, err := s.q.Query(ctx, `
    SELECT id, career_band_id FROM users
    WHERE status = 'ACTIVE' AND career_band_id IS NOT NULL
    ORDER BY id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []EligibleUser{}
	for rows.Next() {
		var u EligibleUser
		if err := rows.Scan(&u.UserID, &u.CareerBandID); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) EligibleUser(ctx context.Context, userID string) (EligibleUser, bool, error) {
	var u EligibleUser
	err := s.q.QueryRow(ctx, `
    SELECT id, COALESCE(career_band_id::text, '') FROM users
    WHERE id = $1 AND status = 'ACTIVE'
  `, userID).Scan(&u.UserID, &u.CareerBandID)
	if errors.Is(err, pgx.ErrNoRows) {
		return EligibleUser{}, false, nil
	}
	if err != nil {
		return EligibleUser{}, false, err
	}
	return u, true, nil
}

func (s *Store) ListRequirements(ctx context.Context) ([]competency.Requirement, error) {
	rows, err := s.q.Query(ctx, `
    SELECT career_band_id, competency_id, required_level FROM competency_requirements
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []competency.Requirement{}
	for rows.Next() {
		var r competency.Requirement
		if err := rows.Scan(&r.CareerBandID, &r.CompetencyID, &r.RequiredLevel); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CreateAssessment(ctx context.Context, cycleID string, seed Seed) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, `
    INSERT INTO user_assessments (user_id, cycle_id, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, seed.UserID, cycleID, StatusSelfAssessing).Scan(&id)
	if _, ok := uniqueViolation(err); ok {
		return "", ErrDuplicateAssessment
	}
	if err != nil {
		return "", err
	}
	for _, d := range seed.Details {
		if _, err := s.q.Exec(ctx, `
      INSERT INTO user_assessment_details (assessment_id, competency_id, required_level)
      VALUES ($1,$2,$3)
    `, id, d.CompetencyID, d.RequiredLevel); err != nil {
			return "", err
		}
	}
	return id, nil
}

const assessmentColumns = `
    a.id, a.user_id, u.full_name, a.cycle_id, c.name, c.status,
    COALESCE(t.leader_id::text, ''), a.status,
    a.self_score_avg::float8, a.final_score_avg::float8, a.feedback, a.version,
    a.created_at, a.updated_at
`

const assessmentFrom = `
    FROM user_assessments a
    JOIN users u ON u.id = a.user_id
    JOIN assessment_cycles c ON c.id = a.cycle_id
    LEFT JOIN teams t ON t.id = u.team_id
`

func scanAssessment(row pgx.Row) (Assessment, error) {
	var a Assessment
	err := row.Scan(&a.ID, &a.UserID, &a.UserName, &a.CycleID, &a.CycleName, &a.CycleStatus,
		&a.LeaderID, &a.Status, &a.SelfScoreAvg, &a.FinalScoreAvg, &a.Feedback, &a.Version,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	return a, err
}

func (s *Store) GetAssessment(ctx context.Context, assessmentID string) (Assessment, error) {
	return scanAssessment(s.q.QueryRow(ctx, "SELECT "+assessmentColumns+assessmentFrom+"WHERE a.id = $1", assessmentID))
}

func (s *Store) LockAssessment(ctx context.Context, assessmentID string) (Assessment, error) {
	return scanAssessment(s.q.QueryRow(ctx, "SELECT "+assessmentColumns+assessmentFrom+"WHERE a.id = $1 FOR UPDATE OF a", assessmentID))
}

func (s *Store) FindAssessment(ctx context.Context, userID, cycleID string) (Assessment, bool, error) {
	a, err := scanAssessment(s.q.QueryRow(ctx, "SELECT "+assessmentColumns+assessmentFrom+"WHERE a.user_id = $1 AND a.cycle_id = $2", userID, cycleID))
	if errors.Is(err, ErrNotFound) {
		return Assessment{}, false, nil
	}
	if err != nil {
		return Assessment{}, false, err
	}
	return a, true, nil
}

func buildAssessmentFilter(filter Filter) (string, []any) {
	clauses := []string{}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.CycleID != "" {
		add("a.cycle_id = $%d", filter.CycleID)
	}
	if filter.UserID != "" {
		add("a.user_id = $%d", filter.UserID)
	}
	if filter.LeaderID != "" {
		add("t.leader_id = $%d", filter.LeaderID)
	}
	if filter.Status != "" {
		add("a.status = $%d", filter.Status)
	}
	if filter.OwnerOrLeader != "" {
		add("(a.user_id = $%[1]d OR t.leader_id = $%[1]d)", filter.OwnerOrLeader)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) ListAssessments(ctx context.Context, filter Filter) ([]Assessment, int, error) {
	where, args := buildAssessmentFilter(filter)

	var total int
	if err := s.q.QueryRow(ctx, "SELECT COUNT(1)"+assessmentFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + assessmentColumns + assessmentFrom + where + " ORDER BY c.start_date DESC, u.full_name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (s *Store) ListDetails(ctx context.Context, assessmentID string) ([]Detail, error) {
	rows, err := s.q.Query(ctx, `
    SELECT d.competency_id, c.name, g.id, g.name,
      d.required_level, d.self_level, d.leader_level, d.final_level
    FROM user_assessment_details d
    JOIN competencies c ON c.id = d.competency_id
    JOIN competency_groups g ON g.id = c.group_id
    WHERE d.assessment_id = $1
    ORDER BY g.name, c.name
  `, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Detail{}
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.CompetencyID, &d.CompetencyName, &d.GroupID, &d.GroupName,
			&d.RequiredLevel, &d.SelfLevel, &d.LeaderLevel, &d.FinalLevel); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) SetDetailLevel(ctx context.Context, assessmentID, competencyID, field string, level *int) error {
	column, ok := detailColumns[field]
	if !ok {
		return fmt.Errorf("unknown detail field %q", field)
	}
	tag, err := s.q.Exec(ctx, `
    UPDATE user_assessment_details SET `+column+` = $1, updated_at = now()
    WHERE assessment_id = $2 AND competency_id = $3
  `, level, assessmentID, competencyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownCompetency
	}
	return nil
}

// bumpWith applies set to the assessment, increments its version and returns
// the new version. set refers to the assessment id as $1.
func (s *Store) bumpWith(ctx context.Context, assessmentID, set string, values ...any) (int, error) {
	var version int
	args := append([]any{assessmentID}, values...)
	err := s.q.QueryRow(ctx, `
    UPDATE user_assessments SET `+set+`, version = version + 1, updated_at = now()
    WHERE id = $1
    RETURNING version
  `, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return version, err
}

func (s *Store) SaveProgress(ctx context.Context, assessmentID string, selfAvg, finalAvg *float64) (int, error) {
	return s.bumpWith(ctx, assessmentID, "self_score_avg = $2, final_score_avg = $3", selfAvg, finalAvg)
}

func (s *Store) SetFeedback(ctx context.Context, assessmentID, feedback string) (int, error) {
	return s.bumpWith(ctx, assessmentID, "feedback = $2", feedback)
}

func (s *Store) SetStatus(ctx context.Context, assessmentID, status string) (int, error) {
	return s.bumpWith(ctx, assessmentID, "status = $2", status)
}
