package emails

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Dispatcher runs work off the request path.
type Dispatcher interface {
	Enqueue(jobType string, run func(context.Context) (any, error))
}

type Service struct {
	store      StoreAPI
	mailer     Mailer
	From       string
	Dispatcher Dispatcher
	now        func() time.Time
}

func NewService(store StoreAPI, mailer Mailer, from string, dispatcher Dispatcher) *Service {
	return &Service{store: store, mailer: mailer, From: from, Dispatcher: dispatcher, now: time.Now}
}

// Send delivers a message and records the outcome. A failed delivery is
// logged as FAILED and returned as part of the log, never as an error.
func (s *Service) Send(ctx context.Context, to, subject, body string) Log {
	return s.sendNow(ctx, "", to, subject, body)
}

// SendTemplate renders the template named by code with data and sends it.
// A missing template is recorded as a FAILED log.
func (s *Service) SendTemplate(ctx context.Context, code, to string, data map[string]string) {
	tpl, err := s.store.GetTemplate(ctx, code)
	if err != nil {
		s.record(ctx, Log{TemplateCode: code, Recipient: to, Status: StatusFailed, ErrorMessage: err.Error()})
		return
	}
	s.sendNow(ctx, code, to, Render(tpl.Subject, data), Render(tpl.Body, data))
}

// Queue records a QUEUED log and hands delivery to the dispatcher.
func (s *Service) Queue(ctx context.Context, templateCode, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrNoRecipient
	}
	id, err := s.store.CreateLog(ctx, Log{TemplateCode: templateCode, Recipient: to, Subject: subject, Body: body, Status: StatusQueued})
	if err != nil {
		return fmt.Errorf("queue email: %w", err)
	}
	s.dispatch(id, to, subject, body)
	return nil
}

// Resend retries a FAILED log synchronously and returns its new state.
func (s *Service) Resend(ctx context.Context, logID string) (Log, error) {
	entry, err := s.store.GetLog(ctx, logID)
	if err != nil {
		return Log{}, err
	}
	if entry.Status != StatusFailed {
		return Log{}, ErrNotFailed
	}
	if entry.Subject == "" || entry.Recipient == "" {
		return Log{}, ErrNoContent
	}
	s.deliver(ctx, logID, entry.Recipient, entry.Subject, entry.Body)
	return s.store.GetLog(ctx, logID)
}

// RetryStale re-dispatches QUEUED logs older than age, e.g. after a restart
// dropped the in-memory queue.
func (s *Service) RetryStale(ctx context.Context, age time.Duration) (int, error) {
	stale, err := s.store.StaleQueued(ctx, s.now().Add(-age), 100)
	if err != nil {
		return 0, err
	}
	for _, l := range stale {
		s.dispatch(l.ID, l.Recipient, l.Subject, l.Body)
	}
	return len(stale), nil
}

func (s *Service) ListLogs(ctx context.Context, filter LogFilter) ([]Log, int, error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.store.ListLogs(ctx, filter)
}

func (s *Service) GetLog(ctx context.Context, logID string) (Log, error) {
	return s.store.GetLog(ctx, logID)
}

func (s *Service) ListTemplates(ctx context.Context) ([]Template, error) {
	return s.store.ListTemplates(ctx)
}

func (s *Service) GetTemplate(ctx context.Context, code string) (Template, error) {
	return s.store.GetTemplate(ctx, code)
}

func (s *Service) CreateTemplate(ctx context.Context, in TemplateInput) (Template, error) {
	in, err := normalizeTemplate(in)
	if err != nil {
		return Template{}, err
	}
	return s.store.CreateTemplate(ctx, in)
}

func (s *Service) UpdateTemplate(ctx context.Context, code string, in TemplateInput) (Template, error) {
	in.Code = code
	in, err := normalizeTemplate(in)
	if err != nil {
		return Template{}, err
	}
	return s.store.UpdateTemplate(ctx, in.Code, in)
}

func (s *Service) DeleteTemplate(ctx context.Context, code string) error {
	return s.store.DeleteTemplate(ctx, strings.TrimSpace(code))
}

// Preview renders a stored template without sending it.
func (s *Service) Preview(ctx context.Context, code string, data map[string]string) (string, string, error) {
	tpl, err := s.store.GetTemplate(ctx, code)
	if err != nil {
		return "", "", err
	}
	return Render(tpl.Subject, data), Render(tpl.Body, data), nil
}

func (s *Service) sendNow(ctx context.Context, code, to, subject, body string) Log {
	entry := Log{TemplateCode: code, Recipient: strings.TrimSpace(to), Subject: subject, Body: body, Status: StatusQueued}
	if entry.Recipient == "" {
		entry.Status, entry.ErrorMessage = StatusFailed, ErrNoRecipient.Error()
		return s.record(ctx, entry)
	}
	id, err := s.store.CreateLog(ctx, entry)
	if err != nil {
		slog.Warn("email log insert failed", "err", err)
	}
	entry.ID = id
	entry.Status, entry.ErrorMessage = s.deliver(ctx, id, entry.Recipient, subject, body)
	entry.Attempts = 1
	return entry
}

// deliver sends and stamps the outcome on the log row when there is one.
func (s *Service) deliver(ctx context.Context, logID, to, subject, body string) (string, string) {
	status, errMsg := StatusSent, ""
	if s.mailer == nil {
		status, errMsg = StatusFailed, "mailer not configured"
	} else if err := s.mailer.Send(ctx, s.From, to, subject, body); err != nil {
		status, errMsg = StatusFailed, err.Error()
		slog.Warn("email send failed", "to", to, "err", err)
	}
	if logID != "" {
		if err := s.store.MarkLog(ctx, logID, status, errMsg); err != nil {
			slog.Warn("email log update failed", "logId", logID, "err", err)
		}
	}
	return status, errMsg
}

func (s *Service) dispatch(logID, to, subject, body string) {
	run := func(ctx context.Context) (any, error) {
		status, errMsg := s.deliver(ctx, logID, to, subject, body)
		details := map[string]any{"logId": logID, "status": status}
		if status == StatusFailed {
			return details, fmt.Errorf("email %s: %s", logID, errMsg)
		}
		return details, nil
	}
	if s.Dispatcher == nil {
		if _, err := run(context.Background()); err != nil {
			slog.Warn("email dispatch failed", "err", err)
		}
		return
	}
	s.Dispatcher.Enqueue(JobDispatch, run)
}

func (s *Service) record(ctx context.Context, entry Log) Log {
	id, err := s.store.CreateLog(ctx, entry)
	if err != nil {
		slog.Warn("email log insert failed", "err", err)
	}
	entry.ID = id
	return entry
}

func normalizeTemplate(in TemplateInput) (TemplateInput, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Description = strings.TrimSpace(in.Description)
	if in.Code == "" || in.Subject == "" || strings.TrimSpace(in.Body) == "" {
		return in, ErrInvalidTemplate
	}
	return in, nil
}
