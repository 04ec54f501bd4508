package emails

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeStore struct {
	templates map[string]Template
	logs      map[string]*Log
	seq       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{templates: map[string]Template{}, logs: map[string]*Log{}}
}

func (f *fakeStore) ListTemplates(context.Context) ([]Template, error) {
	out := []Template{}
	for _, t := range f.templates {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) GetTemplate(_ context.Context, code string) (Template, error) {
	t, ok := f.templates[code]
	if !ok {
		return Template{}, ErrTemplateNotFound
	}
	return t, nil
}

func (f *fakeStore) CreateTemplate(_ context.Context, in TemplateInput) (Template, error) {
	if _, ok := f.templates[in.Code]; ok {
		return Template{}, ErrCodeTaken
	}
	t := Template{ID: in.Code, Code: in.Code, Subject: in.Subject, Body: in.Body, Description: in.Description}
	f.templates[in.Code] = t
	return t, nil
}

func (f *fakeStore) UpdateTemplate(_ context.Context, code string, in TemplateInput) (Template, error) {
	t, ok := f.templates[code]
	if !ok {
		return Template{}, ErrTemplateNotFound
	}
	t.Subject, t.Body, t.Description = in.Subject, in.Body, in.Description
	f.templates[code] = t
	return t, nil
}

func (f *fakeStore) DeleteTemplate(_ context.Context, code string) error {
	if _, ok := f.templates[code]; !ok {
		return ErrTemplateNotFound
	}
	delete(f.templates, code)
	return nil
}

func (f *fakeStore) CreateLog(_ context.Context, entry Log) (string, error) {
	f.seq++
	entry.ID = fmt.Sprintf("log-%d", f.seq)
	entry.CreatedAt = time.Now()
	f.logs[entry.ID] = &entry
	return entry.ID, nil
}

func (f *fakeStore) MarkLog(_ context.Context, id, status, errMsg string) error {
	l, ok := f.logs[id]
	if !ok {
		return ErrLogNotFound
	}
	l.Status, l.ErrorMessage = status, errMsg
	l.Attempts++
	return nil
}

func (f *fakeStore) GetLog(_ context.Context, id string) (Log, error) {
	l, ok := f.logs[id]
	if !ok {
		return Log{}, ErrLogNotFound
	}
	return *l, nil
}

func (f *fakeStore) ListLogs(_ context.Context, filter LogFilter) ([]Log, int, error) {
	out := []Log{}
	for _, l := range f.logs {
		if filter.Status == "" || l.Status == filter.Status {
			out = append(out, *l)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) StaleQueued(_ context.Context, olderThan time.Time, _ int) ([]Log, error) {
	out := []Log{}
	for _, l := range f.logs {
		if l.Status == StatusQueued && l.CreatedAt.Before(olderThan) {
			out = append(out, *l)
		}
	}
	return out, nil
}

type fakeMailer struct {
	fail bool
	sent []string
}

func (m *fakeMailer) Send(_ context.Context, _, to, subject, _ string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

type queuedJobs struct {
	runs []func(context.Context) (any, error)
}

func (q *queuedJobs) Enqueue(_ string, run func(context.Context) (any, error)) {
	q.runs = append(q.runs, run)
}

func (q *queuedJobs) drain(t *testing.T) {
	t.Helper()
	for _, run := range q.runs {
		_, _ = run(context.Background())
	}
	q.runs = nil
}

func TestSendTemplateRendersAndLogs(t *testing.T) {
	store := newFakeStore()
	store.templates["welcome"] = Template{Code: "welcome", Subject: "Welcome {fullName}", Body: "Open {link} {unknown}"}
	mailer := &fakeMailer{}
	svc := NewService(store, mailer, "hr@example.com", nil)

	svc.SendTemplate(context.Background(), "welcome", "ada@example.com", map[string]string{"fullName": "Ada", "link": "L"})

	if len(mailer.sent) != 1 || mailer.sent[0] != "ada@example.com|Welcome Ada" {
		t.Fatalf("unexpected sends: %v", mailer.sent)
	}
	l := store.logs["log-1"]
	if l.Status != StatusSent || l.Body != "Open L {unknown}" || l.TemplateCode != "welcome" {
		t.Fatalf("unexpected log: %+v", l)
	}
}

func TestFailuresAreLoggedNotReturned(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeMailer{fail: true}, "hr@example.com", nil)

	entry := svc.Send(context.Background(), "ada@example.com", "Hi", "Body")
	if entry.Status != StatusFailed || entry.ErrorMessage != "smtp unavailable" {
		t.Fatalf("expected failed log, got %+v", entry)
	}
	if store.logs[entry.ID].Status != StatusFailed {
		t.Fatalf("expected stored failure, got %+v", store.logs[entry.ID])
	}

	svc.SendTemplate(context.Background(), "missing", "ada@example.com", nil)
	missing := store.logs["log-2"]
	if missing.Status != StatusFailed || missing.ErrorMessage != ErrTemplateNotFound.Error() {
		t.Fatalf("expected missing template failure, got %+v", missing)
	}
}

func TestQueueDispatchesThroughWorker(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	jobs := &queuedJobs{}
	svc := NewService(store, mailer, "hr@example.com", jobs)

	if err := svc.Queue(context.Background(), "", " ", "s", "b"); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected missing recipient, got %v", err)
	}
	if err := svc.Queue(context.Background(), "notice", "ada@example.com", "Notice", "Body"); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if store.logs["log-1"].Status != StatusQueued || len(mailer.sent) != 0 {
		t.Fatal("expected the message to wait for the worker")
	}
	jobs.drain(t)
	if store.logs["log-1"].Status != StatusSent || len(mailer.sent) != 1 {
		t.Fatalf("expected worker delivery, got %+v", store.logs["log-1"])
	}
}

func TestResendOnlyFailed(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{fail: true}
	svc := NewService(store, mailer, "hr@example.com", nil)

	failed := svc.Send(context.Background(), "ada@example.com", "Hi", "Body")
	mailer.fail = false
	out, err := svc.Resend(context.Background(), failed.ID)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if out.Status != StatusSent || out.Attempts != 2 {
		t.Fatalf("unexpected resent log: %+v", out)
	}
	if _, err := svc.Resend(context.Background(), failed.ID); !errors.Is(err, ErrNotFailed) {
		t.Fatalf("expected not failed, got %v", err)
	}
}

func TestRetryStale(t *testing.T) {
	store := newFakeStore()
	jobs := &queuedJobs{}
	svc := NewService(store, &fakeMailer{}, "hr@example.com", jobs)
	id, _ := store.CreateLog(context.Background(), Log{Recipient: "a@example.com", Subject: "s", Body: "b", Status: StatusQueued})
	store.logs[id].CreatedAt = time.Now().Add(-time.Hour)

	n, err := svc.RetryStale(context.Background(), 10*time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("expected one stale log, got %d %v", n, err)
	}
	jobs.drain(t)
	if store.logs[id].Status != StatusSent {
		t.Fatalf("expected stale log delivered, got %+v", store.logs[id])
	}
}

func TestTemplateValidation(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeMailer{}, "", nil)
	ctx := context.Background()
	if _, err := svc.CreateTemplate(ctx, TemplateInput{Code: "x", Subject: " ", Body: "b"}); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected invalid template, got %v", err)
	}
	if _, err := svc.CreateTemplate(ctx, TemplateInput{Code: " x ", Subject: "S", Body: "B"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateTemplate(ctx, TemplateInput{Code: "x", Subject: "S", Body: "B"}); !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("expected code taken, got %v", err)
	}
	updated, err := svc.UpdateTemplate(ctx, "x", TemplateInput{Subject: "S2", Body: "B2"})
	if err != nil || updated.Subject != "S2" {
		t.Fatalf("update: %+v %v", updated, err)
	}
	subject, body, err := svc.Preview(ctx, "x", nil)
	if err != nil || subject != "S2" || body != "B2" {
		t.Fatalf("preview: %s %s %v", subject, body, err)
	}
}
