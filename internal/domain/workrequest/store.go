package workrequest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
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

const requestSelect = `
    SELECT r.id, r.user_id, u.full_name, r.type, r.start_date, r.end_date, r.is_half_day,
      r.days::float8, r.reason, r.status, COALESCE(r.approver_id::text, ''), COALESCE(a.full_name, ''),
      r.rejection_reason, r.decided_at, r.created_at
    FROM work_requests r
    JOIN users u ON u.id = r.user_id
    LEFT JOIN users a ON a.id = r.approver_id
    LEFT JOIN teams t ON t.id = u.team_id
`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.UserID, &r.UserName, &r.Type, &r.StartDate, &r.EndDate, &r.IsHalfDay,
		&r.Days, &r.Reason, &r.Status, &r.ApproverID, &r.ApproverName,
		&r.RejectionReason, &r.DecidedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func (s *Store) Create(ctx context.Context, userID string, in CreateInput, days float64) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, `
    INSERT INTO work_requests (user_id, type, start_date, end_date, is_half_day, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, userID, in.Type, in.StartDate, in.EndDate, in.IsHalfDay, days, in.Reason, StatusPending).Scan(&id)
	return id, err
}

func (s *Store) Get(ctx context.Context, requestID string) (Request, error) {
	return scanRequest(s.q.QueryRow(ctx, requestSelect+" WHERE r.id = $1", requestID))
}

func (s *Store) Lock(ctx context.Context, requestID string) (Request, error) {
	return scanRequest(s.q.QueryRow(ctx, requestSelect+" WHERE r.id = $1 FOR UPDATE OF r", requestID))
}

func buildFilter(filter Filter) (string, []any) {
	clauses := []string{}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, strings.ReplaceAll(clause, "$?", fmt.Sprintf("$%d", len(args))))
	}
	if filter.OwnerOrLeader != "" {
		add("(r.user_id = $? OR t.leader_id = $?)", filter.OwnerOrLeader)
	}
	if filter.UserID != "" {
		add("r.user_id = $?", filter.UserID)
	}
	if filter.LeaderID != "" {
		add("t.leader_id = $?", filter.LeaderID)
	}
	if len(filter.UserIDs) > 0 {
		add("r.user_id::text = ANY($?)", filter.UserIDs)
	}
	if filter.Status != "" {
		add("r.status = $?", filter.Status)
	}
	if filter.Type != "" {
		add("r.type = $?", filter.Type)
	}
	if !filter.From.IsZero() {
		add("r.end_date >= $?", filter.From)
	}
	if !filter.To.IsZero() {
		add("r.start_date <= $?", filter.To)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Request, int, error) {
	where, args := buildFilter(filter)

	var total int
	if err := s.q.QueryRow(ctx, `
    SELECT COUNT(1) FROM work_requests r
    JOIN users u ON u.id = r.user_id
    LEFT JOIN teams t ON t.id = u.team_id
  `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := requestSelect + where + " ORDER BY r.start_date DESC, r.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.q.Query(ctx, query, args...)
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

func (s *Store) Decide(ctx context.Context, requestID, status, approverID, rejectionReason string) error {
	_, err := s.q.Exec(ctx, `
    UPDATE work_requests
    SET status = $1, approver_id = $2, rejection_reason = $3, decided_at = now()
    WHERE id = $4
  `, status, approverID, rejectionReason, requestID)
	return err
}

func (s *Store) Delete(ctx context.Context, requestID string) error {
	_, err := s.q.Exec(ctx, "DELETE FROM work_requests WHERE id = $1", requestID)
	return err
}

func (s *Store) HasOverlap(ctx context.Context, userID, requestType string, start, end time.Time) (bool, error) {
	var count int
	err := s.q.QueryRow(ctx, `
    SELECT COUNT(1) FROM work_requests
    WHERE user_id = $1 AND type = $2 AND status IN ('PENDING','APPROVED')
      AND start_date <= $4 AND end_date >= $3
  `, userID, requestType, start, end).Scan(&count)
	return count > 0, err
}

func (s *Store) LeaderOf(ctx context.Context, userID string) (string, error) {
	var leaderID string
	err := s.q.QueryRow(ctx, `
    SELECT COALESCE(t.leader_id::text, '')
    FROM users u LEFT JOIN teams t ON t.id = u.team_id
    WHERE u.id = $1
  `, userID).Scan(&leaderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return leaderID, err
}
