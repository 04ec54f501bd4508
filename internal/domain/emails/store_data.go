package emails

import (
	"context"
	"errors"
	"time"

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

const templateSelect = `SELECT id, code, subject, body, description, updated_at FROM email_templates`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Code, &t.Subject, &t.Body, &t.Description, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, ErrTemplateNotFound
	}
	return t, err
}

func (s *Store) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := s.DB.Query(ctx, templateSelect+" ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTemplate(ctx context.Context, code string) (Template, error) {
	return scanTemplate(s.DB.QueryRow(ctx, templateSelect+" WHERE code = $1", code))
}

func (s *Store) CreateTemplate(ctx context.Context, in TemplateInput) (Template, error) {
	t, err := scanTemplate(s.DB.QueryRow(ctx, `
    INSERT INTO email_templates (code, subject, body, description)
    VALUES ($1,$2,$3,$4)
    RETURNING id, code, subject, body, description, updated_at
  `, in.Code, in.Subject, in.Body, in.Description))
	if isUniqueViolation(err) {
		return Template{}, ErrCodeTaken
	}
	return t, err
}

func (s *Store) UpdateTemplate(ctx context.Context, code string, in TemplateInput) (Template, error) {
	return scanTemplate(s.DB.QueryRow(ctx, `
    UPDATE email_templates
    SET subject = $1, body = $2, description = $3, updated_at = now()
    WHERE code = $4
    RETURNING id, code, subject, body, description, updated_at
  `, in.Subject, in.Body, in.Description, code))
}

func (s *Store) DeleteTemplate(ctx context.Context, code string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM email_templates WHERE code = $1", code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *Store) CreateLog(ctx context.Context, entry Log) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO email_logs (template_code, recipient, subject, body, status, error_message)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, entry.TemplateCode, entry.Recipient, entry.Subject, entry.Body, entry.Status, entry.ErrorMessage).Scan(&id)
	return id, err
}

func (s *Store) MarkLog(ctx context.Context, logID, status, errMsg string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE email_logs
    SET status = $1,
        error_message = $2,
        attempts = attempts + 1,
        sent_at = CASE WHEN $1 = 'SENT' THEN now() ELSE sent_at END
    WHERE id = $3
  `, status, errMsg, logID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}
	return nil
}

const logSelect = `
    SELECT id, template_code, recipient, subject, body, status, error_message, attempts, sent_at, created_at
    FROM email_logs
`

func scanLog(row pgx.Row) (Log, error) {
	var l Log
	err := row.Scan(&l.ID, &l.TemplateCode, &l.Recipient, &l.Subject, &l.Body, &l.Status, &l.ErrorMessage, &l.Attempts, &l.SentAt, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Log{}, ErrLogNotFound
	}
	return l, err
}

func (s *Store) GetLog(ctx context.Context, logID string) (Log, error) {
	return scanLog(s.DB.QueryRow(ctx, logSelect+" WHERE id = $1", logID))
}

func (s *Store) ListLogs(ctx context.Context, filter LogFilter) ([]Log, int, error) {
	where := `
    WHERE ($1 = '' OR status = $1)
      AND ($2 = '' OR lower(recipient) = lower($2))
  `
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM email_logs"+where, filter.Status, filter.Recipient).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, logSelect+where+" ORDER BY created_at DESC LIMIT $3 OFFSET $4",
		filter.Status, filter.Recipient, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Log{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (s *Store) StaleQueued(ctx context.Context, olderThan time.Time, limit int) ([]Log, error) {
	rows, err := s.DB.Query(ctx, logSelect+`
    WHERE status = 'QUEUED' AND created_at < $1
    ORDER BY created_at
    LIMIT $2
  `, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Log{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
