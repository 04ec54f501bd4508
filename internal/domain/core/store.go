package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const userColumns = `
  u.id, u.email, u.full_name, u.phone, u.address, u.date_of_birth, u.job_title, u.summary, u.skills,
  r.name, u.career_band_id::text, COALESCE(b.name, ''), u.team_id::text, COALESCE(t.name, ''),
  u.status, u.last_login, u.created_at, u.updated_at`

const userJoins = `
  FROM users u
  JOIN roles r ON r.id = u.role_id
  LEFT JOIN career_bands b ON b.id = u.career_band_id
  LEFT JOIN teams t ON t.id = u.team_id`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Address, &u.DateOfBirth, &u.JobTitle, &u.Summary, &u.Skills,
		&u.Role, &u.CareerBandID, &u.CareerBandName, &u.TeamID, &u.TeamName,
		&u.Status, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		where += fmt.Sprintf(" AND (lower(u.full_name) LIKE $%d OR lower(u.email) LIKE $%d)", len(args), len(args))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		where += fmt.Sprintf(" AND r.name = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND u.status = $%d", len(args))
	}
	if filter.TeamID != "" {
		args = append(args, filter.TeamID)
		where += fmt.Sprintf(" AND u.team_id::text = $%d", len(args))
	}
	if filter.BandID != "" {
		args = append(args, filter.BandID)
		where += fmt.Sprintf(" AND u.career_band_id::text = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+userJoins+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT" + userColumns + userJoins + where +
		fmt.Sprintf(" ORDER BY u.full_name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, "SELECT"+userColumns+userJoins+" WHERE u.id = $1", userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE lower(email) = lower($1)", email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateUser(ctx context.Context, in CreateUserInput) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, full_name, job_title, role_id, career_band_id, team_id, status)
    VALUES ($1, $2, $3, (SELECT id FROM roles WHERE name = $4), $5, $6, 'PENDING')
    RETURNING id
  `, strings.ToLower(strings.TrimSpace(in.Email)), in.FullName, in.JobTitle, in.Role,
		nullIfEmpty(in.CareerBandID), nullIfEmpty(in.TeamID)).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrEmailTaken
	}
	return id, err
}

func (s *Store) UpdateUser(ctx context.Context, userID string, in UpdateUserInput) error {
	sets := []string{}
	args := []any{}
	add := func(expr string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}
	if in.FullName != nil {
		add("full_name = $%d", *in.FullName)
	}
	if in.JobTitle != nil {
		add("job_title = $%d", *in.JobTitle)
	}
	if in.Role != nil {
		add("role_id = (SELECT id FROM roles WHERE name = $%d)", *in.Role)
	}
	if in.CareerBandID != nil {
		add("career_band_id = $%d", nullIfEmpty(*in.CareerBandID))
	}
	if in.Status != nil {
		add("status = $%d", *in.Status)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, userID)
	query := "UPDATE users SET " + strings.Join(sets, ", ") + fmt.Sprintf(", updated_at = now() WHERE id = $%d", len(args))
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListBands(ctx context.Context) ([]CareerBand, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT b.id, b.code, b.name, b.description, b.sort_order,
      (SELECT COUNT(1) FROM users u WHERE u.career_band_id = b.id), b.created_at
    FROM career_bands b
    ORDER BY b.sort_order, b.code
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CareerBand{}
	for rows.Next() {
		var b CareerBand
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Description, &b.SortOrder, &b.UserCount, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBand(ctx context.Context, bandID string) (CareerBand, error) {
	var b CareerBand
	err := s.DB.QueryRow(ctx, `
    SELECT b.id, b.code, b.name, b.description, b.sort_order,
      (SELECT COUNT(1) FROM users u WHERE u.career_band_id = b.id), b.created_at
    FROM career_bands b WHERE b.id = $1
  `, bandID).Scan(&b.ID, &b.Code, &b.Name, &b.Description, &b.SortOrder, &b.UserCount, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CareerBand{}, ErrNotFound
	}
	return b, err
}

func (s *Store) CreateBand(ctx context.Context, band CareerBand) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO career_bands (code, name, description, sort_order)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, band.Code, band.Name, band.Description, band.SortOrder).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrBandCodeTaken
	}
	return id, err
}

func (s *Store) UpdateBand(ctx context.Context, bandID string, band CareerBand) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE career_bands SET code = $1, name = $2, description = $3, sort_order = $4
    WHERE id = $5
  `, band.Code, band.Name, band.Description, band.SortOrder, bandID)
	if isUniqueViolation(err) {
		return ErrBandCodeTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) BandReferences(ctx context.Context, bandID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT (SELECT COUNT(1) FROM users WHERE career_band_id = $1)
         + (SELECT COUNT(1) FROM competency_requirements WHERE career_band_id = $1)
  `, bandID).Scan(&count)
	return count, err
}

func (s *Store) DeleteBand(ctx context.Context, bandID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM career_bands WHERE id = $1", bandID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
