package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRuns struct {
	started  []string
	finished map[string]string
	details  map[string]string
}

func (f *fakeRuns) StartRun(_ context.Context, jobType string) (string, error) {
	f.started = append(f.started, jobType)
	return jobType + "-run", nil
}

func (f *fakeRuns) FinishRun(_ context.Context, runID, status string, details []byte) error {
	f.finished[runID] = status
	f.details[runID] = string(details)
	return nil
}

func TestRunNowRecordsOutcome(t *testing.T) {
	runs := &fakeRuns{finished: map[string]string{}, details: map[string]string{}}
	svc := New(runs, 1)

	out, err := svc.RunNow(context.Background(), "ok", func(context.Context) (any, error) {
		return map[string]int{"sent": 2}, nil
	})
	if err != nil || out == nil {
		t.Fatalf("run: %v %v", out, err)
	}
	if runs.finished["ok-run"] != StatusCompleted || runs.details["ok-run"] != `{"sent":2}` {
		t.Fatalf("unexpected run record: %v %v", runs.finished, runs.details)
	}

	boom := errors.New("boom")
	if _, err := svc.RunNow(context.Background(), "bad", func(context.Context) (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected job error, got %v", err)
	}
	if runs.finished["bad-run"] != StatusFailed {
		t.Fatalf("expected failed status, got %v", runs.finished)
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	svc := New(nil, 1)
	noop := func(context.Context) (any, error) { return nil, nil }
	svc.Enqueue("a", noop)
	svc.Enqueue("b", noop)
	if len(svc.queue) != 1 {
		t.Fatalf("expected one queued job, got %d", len(svc.queue))
	}
}

func TestWorkerRunsQueuedJobs(t *testing.T) {
	svc := New(nil, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	svc.Start(ctx)
	svc.Enqueue("x", func(context.Context) (any, error) {
		close(done)
		return nil, nil
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	cancel()
	svc.Wait()
}
