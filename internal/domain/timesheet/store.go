package timesheet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetPerson(ctx context.Context, userID string) (Person, error) {
	var p Person
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.full_name, COALESCE(u.team_id::text, ''), COALESCE(t.leader_id::text, '')
    FROM users u
    LEFT JOIN teams t ON t.id = u.team_id
    WHERE u.id = $1
  `, userID).Scan(&p.ID, &p.FullName, &p.TeamID, &p.LeaderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	return p, err
}

func (s *Store) GetTeam(ctx context.Context, teamID string) (TeamRef, error) {
	var t TeamRef
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(leader_id::text, '') FROM teams WHERE id = $1
  `, teamID).Scan(&t.ID, &t.Name, &t.LeaderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return TeamRef{}, ErrNotFound
	}
	if err != nil {
		return TeamRef{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, full_name FROM users
    WHERE team_id = $1 AND status = 'ACTIVE'
    ORDER BY full_name
  `, teamID)
	if err != nil {
		return TeamRef{}, err
	}
	defer rows.Close()
	t.Members = []Person{}
	for rows.Next() {
		p := Person{TeamID: t.ID, LeaderID: t.LeaderID}
		if err := rows.Scan(&p.ID, &p.FullName); err != nil {
			return TeamRef{}, err
		}
		t.Members = append(t.Members, p)
	}
	return t, rows.Err()
}
