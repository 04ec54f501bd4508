package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

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

func (s *Store) GetProfile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := s.q.QueryRow(ctx, `
    SELECT full_name, phone, address, date_of_birth, job_title, summary, skills
    FROM users WHERE id = $1
  `, userID).Scan(&p.FullName, &p.Phone, &p.Address, &p.DateOfBirth, &p.JobTitle, &p.Summary, &p.Skills)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (s *Store) HasPending(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM profile_update_requests WHERE user_id = $1 AND status = 'PENDING')
  `, userID).Scan(&exists)
	return exists, err
}

func (s *Store) Create(ctx context.Context, userID string, changes, previous Changes) (string, error) {
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return "", err
	}
	previousJSON, err := json.Marshal(previous)
	if err != nil {
		return "", err
	}
	var id string
	err = s.q.QueryRow(ctx, `
    INSERT INTO profile_update_requests (user_id, changes, previous_data)
    VALUES ($1,$2,$3)
    RETURNING id
  `, userID, changesJSON, previousJSON).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", ErrPendingExists
	}
	return id, err
}

const requestSelect = `
    SELECT r.id, r.user_id, u.full_name, r.changes, r.previous_data, r.status,
      COALESCE(r.reviewer_id::text, ''), r.review_note, r.reviewed_at, r.created_at
    FROM profile_update_requests r
    JOIN users u ON u.id = r.user_id
`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	var changesJSON, previousJSON []byte
	err := row.Scan(&r.ID, &r.UserID, &r.UserName, &changesJSON, &previousJSON, &r.Status,
		&r.ReviewerID, &r.ReviewNote, &r.ReviewedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	if err := json.Unmarshal(changesJSON, &r.Changes); err != nil {
		return Request{}, err
	}
	if err := json.Unmarshal(previousJSON, &r.Previous); err != nil {
		return Request{}, err
	}
	return r, nil
}

func (s *Store) Get(ctx context.Context, requestID string) (Request, error) {
	return scanRequest(s.q.QueryRow(ctx, requestSelect+" WHERE r.id = $1", requestID))
}

func (s *Store) Lock(ctx context.Context, requestID string) (Request, error) {
	return scanRequest(s.q.QueryRow(ctx, requestSelect+" WHERE r.id = $1 FOR UPDATE OF r", requestID))
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Request, int, error) {
	where := `
    WHERE ($1 = '' OR r.user_id::text = $1)
      AND ($2 = '' OR r.status = $2)
  `
	var total int
	if err := s.q.QueryRow(ctx, "SELECT COUNT(1) FROM profile_update_requests r"+where, filter.UserID, filter.Status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.q.Query(ctx, requestSelect+where+" ORDER BY r.created_at DESC LIMIT $3 OFFSET $4",
		filter.UserID, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *Store) Apply(ctx context.Context, userID string, c Changes) error {
	var dob *time.Time
	clearDOB := false
	if c.DateOfBirth != nil {
		if *c.DateOfBirth == "" {
			clearDOB = true
		} else {
			parsed, err := time.Parse(dateLayout, *c.DateOfBirth)
			if err != nil {
				return ErrInvalidField
			}
			dob = &parsed
		}
	}
	var skills []string
	if c.Skills != nil {
		skills = *c.Skills
	}
	tag, err := s.q.Exec(ctx, `
    UPDATE users SET
      full_name = COALESCE($1, full_name),
      phone = COALESCE($2, phone),
      address = COALESCE($3, address),
      date_of_birth = CASE WHEN $4 THEN NULL ELSE COALESCE($5::date, date_of_birth) END,
      job_title = COALESCE($6, job_title),
      summary = COALESCE($7, summary),
      skills = CASE WHEN $8 THEN $9::text[] ELSE skills END,
      updated_at = now()
    WHERE id = $10
  `, c.FullName, c.Phone, c.Address, clearDOB, dob, c.JobTitle, c.Summary, c.Skills != nil, skills, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Review(ctx context.Context, requestID, status, reviewerID, note string) error {
	_, err := s.q.Exec(ctx, `
    UPDATE profile_update_requests
    SET status = $1, reviewer_id = $2, review_note = $3, reviewed_at = now()
    WHERE id = $4
  `, status, reviewerID, note, requestID)
	return err
}
