package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"talenthub/internal/app/server"
	"talenthub/internal/domain/auth"
	"talenthub/internal/platform/config"
)

const journeyPassword = "Journey123pass"

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type journey struct {
	t      *testing.T
	client *http.Client
	base   string
}

func newJourney(t *testing.T) (*journey, *server.App, config.Config) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "journey-secret",
		TokenTTL:           time.Hour,
		VerificationTTL:    time.Hour,
		Environment:        "test",
		SeedAdminEmail:     "admin@journey.local",
		SeedAdminPassword:  "ChangeMe123admin",
		EmailFrom:          "no-reply@journey.local",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 10000,
		EmailQueueSize:     16,
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app, err := server.New(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return &journey{t: t, client: ts.Client(), base: ts.URL + "/api/v1"}, app, cfg
}

func (j *journey) call(token, method, path string, body any, wantStatus int) json.RawMessage {
	j.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			j.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, j.base+path, reader)
	if err != nil {
		j.t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := j.client.Do(req)
	if err != nil {
		j.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		j.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, wantStatus, resp.StatusCode, raw)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			j.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return env.Data
}

func (j *journey) id(token, method, path string, body any, wantStatus int) string {
	j.t.Helper()
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(j.call(token, method, path, body, wantStatus), &out); err != nil || out.ID == "" {
		j.t.Fatalf("%s %s: missing id (%v)", method, path, err)
	}
	return out.ID
}

func (j *journey) login(email, password string) string {
	j.t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(j.call("", http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, http.StatusOK), &out); err != nil {
		j.t.Fatalf("login decode: %v", err)
	}
	return out.Token
}

func activate(t *testing.T, app *server.App, userID string) {
	t.Helper()
	hash, err := auth.HashPassword(journeyPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := app.DB.Exec(context.Background(), `UPDATE users SET password_hash = $1, status = 'ACTIVE' WHERE id = $2`, hash, userID); err != nil {
		t.Fatalf("activate user: %v", err)
	}
}

func TestAssessmentLifecycleJourney(t *testing.T) {
	j, app, cfg := newJourney(t)
	ctx := context.Background()
	if _, err := app.DB.Exec(ctx, `UPDATE assessment_cycles SET status = 'COMPLETED' WHERE status = 'ACTIVE'`); err != nil {
		t.Fatalf("close previous cycles: %v", err)
	}

	admin := j.login(cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	suffix := time.Now().UnixNano()

	bandID := j.id(admin, http.MethodPost, "/bands", map[string]any{"code": fmt.Sprintf("J%d", suffix), "name": "Journey band"}, http.StatusCreated)
	groupID := j.id(admin, http.MethodPost, "/competency/groups", map[string]any{"name": fmt.Sprintf("Delivery %d", suffix)}, http.StatusCreated)
	levels := []map[string]any{}
	for i := 1; i <= 5; i++ {
		levels = append(levels, map[string]any{"levelNumber": i, "behavioralIndicator": fmt.Sprintf("level %d behaviour", i)})
	}
	compID := j.id(admin, http.MethodPost, "/competency/competencies", map[string]any{"groupId": groupID, "name": "Estimation", "levels": levels}, http.StatusCreated)
	j.call(admin, http.MethodPut, "/competency/requirements", map[string]any{"careerBandId": bandID, "competencyId": compID, "requiredLevel": 3}, http.StatusOK)

	leaderEmail := fmt.Sprintf("leader-%d@journey.local", suffix)
	employeeEmail := fmt.Sprintf("employee-%d@journey.local", suffix)
	leaderID := j.id(admin, http.MethodPost, "/users", map[string]any{"email": leaderEmail, "fullName": "Lea Leader", "role": auth.RoleLeader}, http.StatusCreated)
	employeeID := j.id(admin, http.MethodPost, "/users", map[string]any{"email": employeeEmail, "fullName": "Eve Employee", "role": auth.RoleEmployee, "careerBandId": bandID}, http.StatusCreated)
	activate(t, app, leaderID)
	activate(t, app, employeeID)

	teamID := j.id(admin, http.MethodPost, "/teams", map[string]any{"name": fmt.Sprintf("Journey team %d", suffix)}, http.StatusCreated)
	j.call(admin, http.MethodPost, "/teams/"+teamID+"/members", map[string]string{"userId": leaderID}, http.StatusOK)
	j.call(admin, http.MethodPut, "/teams/"+teamID+"/leader", map[string]string{"userId": leaderID}, http.StatusOK)
	j.call(admin, http.MethodPost, "/teams/"+teamID+"/members", map[string]string{"userId": employeeID}, http.StatusOK)

	start := time.Now().UTC()
	cycleID := j.id(admin, http.MethodPost, "/cycles", map[string]any{
		"name":      fmt.Sprintf("Journey %d", suffix),
		"startDate": start.Format("2006-01-02"),
		"endDate":   start.AddDate(0, 3, 0).Format("2006-01-02"),
	}, http.StatusCreated)

	var activated struct {
		AssessmentsCreated int `json:"assessmentsCreated"`
	}
	if err := json.Unmarshal(j.call(admin, http.MethodPost, "/cycles/"+cycleID+"/activate", nil, http.StatusOK), &activated); err != nil || activated.AssessmentsCreated < 1 {
		t.Fatalf("expected assessments to be instantiated, got %+v (%v)", activated, err)
	}
	j.call(admin, http.MethodPost, "/cycles/"+cycleID+"/activate", nil, http.StatusConflict)

	employee := j.login(employeeEmail, journeyPassword)
	leader := j.login(leaderEmail, journeyPassword)

	var mine struct {
		Items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal(j.call(employee, http.MethodGet, "/assessments?mine=true&cycleId="+cycleID, nil, http.StatusOK), &mine); err != nil || len(mine.Items) != 1 {
		t.Fatalf("expected one assessment, got %+v (%v)", mine, err)
	}
	assessmentID := mine.Items[0].ID
	scores := func(level int) map[string]any {
		return map[string]any{"scores": map[string]int{compID: level}}
	}

	j.call(employee, http.MethodPost, "/assessments/"+assessmentID+"/advance", nil, http.StatusUnprocessableEntity)
	j.call(leader, http.MethodPut, "/assessments/"+assessmentID+"/scores", scores(2), http.StatusForbidden)
	j.call(employee, http.MethodPut, "/assessments/"+assessmentID+"/scores", scores(4), http.StatusOK)
	j.call(employee, http.MethodPost, "/assessments/"+assessmentID+"/advance", nil, http.StatusOK)

	j.call(employee, http.MethodPut, "/assessments/"+assessmentID+"/scores", scores(5), http.StatusForbidden)
	j.call(leader, http.MethodPut, "/assessments/"+assessmentID+"/scores", scores(2), http.StatusOK)
	j.call(leader, http.MethodPost, "/assessments/"+assessmentID+"/advance", nil, http.StatusOK)

	j.call(leader, http.MethodPut, "/assessments/"+assessmentID+"/scores", scores(3), http.StatusOK)
	j.call(leader, http.MethodPut, "/assessments/"+assessmentID+"/feedback", map[string]string{"feedback": "Solid estimates"}, http.StatusOK)
	j.call(leader, http.MethodPost, "/assessments/"+assessmentID+"/advance", nil, http.StatusOK)

	var done struct {
		Status  string `json:"status"`
		Summary struct {
			FinalScoreAvg *float64 `json:"finalScoreAvg"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(j.call(employee, http.MethodGet, "/assessments/"+assessmentID, nil, http.StatusOK), &done); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if done.Status != "DONE" || done.Summary.FinalScoreAvg == nil || *done.Summary.FinalScoreAvg != 3 {
		t.Fatalf("unexpected final state %+v", done)
	}
	j.call(leader, http.MethodPut, "/assessments/"+assessmentID+"/scores", scores(4), http.StatusForbidden)

	j.call(admin, http.MethodGet, "/cycles/"+cycleID+"/report", nil, http.StatusOK)
	j.call(admin, http.MethodPost, "/cycles/"+cycleID+"/complete", nil, http.StatusOK)
}

func TestWorkRequestJourney(t *testing.T) {
	j, app, cfg := newJourney(t)
	admin := j.login(cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	suffix := time.Now().UnixNano()

	email := fmt.Sprintf("wfh-%d@journey.local", suffix)
	userID := j.id(admin, http.MethodPost, "/users", map[string]any{"email": email, "fullName": "Walt Worker", "role": auth.RoleEmployee}, http.StatusCreated)
	activate(t, app, userID)
	worker := j.login(email, journeyPassword)

	// A Monday far enough ahead to never collide with earlier runs.
	day := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*int(suffix%200))
	body := map[string]any{"type": "WFH", "startDate": day.Format("2006-01-02"), "endDate": day.Format("2006-01-02"), "reason": "deliveries"}
	requestID := j.id(worker, http.MethodPost, "/requests", body, http.StatusCreated)
	j.call(worker, http.MethodPost, "/requests", body, http.StatusConflict)
	j.call(worker, http.MethodPost, "/requests/"+requestID+"/approve", nil, http.StatusForbidden)

	var approved struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(j.call(admin, http.MethodPost, "/requests/"+requestID+"/approve", nil, http.StatusOK), &approved); err != nil || approved.Status != "APPROVED" {
		t.Fatalf("unexpected approval %+v (%v)", approved, err)
	}
	j.call(admin, http.MethodPost, "/requests/"+requestID+"/reject", map[string]string{"reason": "late"}, http.StatusConflict)

	var sheet struct {
		Calendar struct {
			Totals struct {
				WFHDays float64 `json:"wfhDays"`
			} `json:"totals"`
		} `json:"calendar"`
	}
	path := fmt.Sprintf("/timesheets/me?from=%s&to=%s", day.Format("2006-01-02"), day.AddDate(0, 0, 6).Format("2006-01-02"))
	if err := json.Unmarshal(j.call(worker, http.MethodGet, path, nil, http.StatusOK), &sheet); err != nil || sheet.Calendar.Totals.WFHDays != 1 {
		t.Fatalf("unexpected timesheet %+v (%v)", sheet, err)
	}
}
