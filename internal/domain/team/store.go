package team

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"talenthub/internal/platform/querier"
)

type Store struct {
	DB   *pgxpool.Pool
	q    querier.Querier
	inTx bool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db, q: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx StoreAPI) error) error {
	if s.inTx {
		return fn(s)
	}
	return querier.RunInTx(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(&Store{DB: s.DB, q: tx, inTx: true})
	})
}

const teamSelect = `
    SELECT t.id, t.name, t.description, COALESCE(t.leader_id::text, ''), COALESCE(l.full_name, ''),
      (SELECT COUNT(1) FROM users m WHERE m.team_id = t.id), t.created_at, t.updated_at
    FROM teams t
    LEFT JOIN users l ON l.id = t.leader_id
`

func scanTeam(row pgx.Row) (Team, error) {
	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.LeaderID, &t.LeaderName, &t.MemberCount, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Team{}, ErrNotFound
	}
	return t, err
}

func (s *Store) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.q.Query(ctx, teamSelect+" ORDER BY t.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTeam(ctx context.Context, teamID string) (Team, error) {
	return scanTeam(s.q.QueryRow(ctx, teamSelect+" WHERE t.id = $1", teamID))
}

func (s *Store) LockTeam(ctx context.Context, teamID string) (Team, error) {
	return scanTeam(s.q.QueryRow(ctx, teamSelect+" WHERE t.id = $1 FOR UPDATE OF t", teamID))
}

func (s *Store) CreateTeam(ctx context.Context, in Input) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, "INSERT INTO teams (name, description) VALUES ($1,$2) RETURNING id", in.Name, in.Description).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrNameTaken
	}
	return id, err
}

func (s *Store) UpdateTeam(ctx context.Context, teamID string, in Input) error {
	tag, err := s.q.Exec(ctx, "UPDATE teams SET name = $1, description = $2, updated_at = now() WHERE id = $3", in.Name, in.Description, teamID)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTeam(ctx context.Context, teamID string) error {
	_, err := s.q.Exec(ctx, "DELETE FROM teams WHERE id = $1", teamID)
	return err
}

func (s *Store) ListMembers(ctx context.Context, teamID string) ([]Member, error) {
	rows, err := s.q.Query(ctx, `
    SELECT u.id, u.full_name, u.email, u.job_title, r.name, (t.leader_id IS NOT NULL AND t.leader_id = u.id)
    FROM users u
    JOIN roles r ON r.id = u.role_id
    JOIN teams t ON t.id = u.team_id
    WHERE u.team_id = $1
    ORDER BY u.full_name
  `, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.FullName, &m.Email, &m.JobTitle, &m.Role, &m.IsLeader); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) UnassignMembers(ctx context.Context, teamID string) (int, error) {
	tag, err := s.q.Exec(ctx, "UPDATE users SET team_id = NULL, updated_at = now() WHERE team_id = $1", teamID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (UserRef, error) {
	var u UserRef
	err := s.q.QueryRow(ctx, `
    SELECT u.id, r.name, u.status, COALESCE(u.team_id::text, '')
    FROM users u JOIN roles r ON r.id = u.role_id
    WHERE u.id = $1
    FOR UPDATE OF u
  `, userID).Scan(&u.ID, &u.Role, &u.Status, &u.TeamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRef{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) SetUserTeam(ctx context.Context, userID, teamID string) error {
	_, err := s.q.Exec(ctx, "UPDATE users SET team_id = NULLIF($1,'')::uuid, updated_at = now() WHERE id = $2", teamID, userID)
	return err
}

func (s *Store) SetUserRole(ctx context.Context, userID, role string) error {
	_, err := s.q.Exec(ctx, `
    UPDATE users SET role_id = (SELECT id FROM roles WHERE name = $1), updated_at = now()
    WHERE id = $2
  `, role, userID)
	return err
}

func (s *Store) SetTeamLeader(ctx context.Context, teamID, leaderID string) error {
	_, err := s.q.Exec(ctx, "UPDATE teams SET leader_id = NULLIF($1,'')::uuid, updated_at = now() WHERE id = $2", leaderID, teamID)
	return err
}

func (s *Store) CountLedTeams(ctx context.Context, userID, excludeTeamID string) (int, error) {
	var count int
	err := s.q.QueryRow(ctx, `
    SELECT COUNT(1) FROM teams WHERE leader_id = $1 AND id::text <> $2
  `, userID, excludeTeamID).Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
