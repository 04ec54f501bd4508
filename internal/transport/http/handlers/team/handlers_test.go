package teamhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/team"
	"talenthub/internal/transport/http/middleware"
)

type fakeService struct {
	Service
	created team.Input
	err     error
	leader  string
}

func (f *fakeService) Create(_ context.Context, in team.Input) (team.Team, error) {
	f.created = in
	if f.err != nil {
		return team.Team{}, f.err
	}
	return team.Team{ID: "t1", Name: in.Name}, nil
}

func (f *fakeService) Delete(_ context.Context, teamID string) (team.DeleteResult, error) {
	if f.err != nil {
		return team.DeleteResult{}, f.err
	}
	return team.DeleteResult{Team: team.Team{ID: teamID}, MembersCleared: 3}, nil
}

func (f *fakeService) SetLeader(_ context.Context, teamID, userID string) (team.Team, error) {
	f.leader = userID
	if f.err != nil {
		return team.Team{}, f.err
	}
	return team.Team{ID: teamID, LeaderID: userID}, nil
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, string, string, string, string, any, any) error { return nil }

func do(t *testing.T, svc Service, role, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(svc, auth.StaticPermissions{}, nopAudit{}).RegisterRoutes(r)
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "hr1", RoleName: role}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateTeam(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		body   string
		err    error
		status int
	}{
		{name: "created", role: auth.RoleHR, body: `{"name":"  Platform "}`, status: http.StatusCreated},
		{name: "blank name", role: auth.RoleHR, body: `{"name":"  "}`, status: http.StatusBadRequest},
		{name: "taken", role: auth.RoleHR, body: `{"name":"Platform"}`, err: team.ErrNameTaken, status: http.StatusConflict},
		{name: "leader cannot create", role: auth.RoleLeader, body: `{"name":"Platform"}`, status: http.StatusForbidden},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{err: tc.err}
			rec := do(t, svc, tc.role, http.MethodPost, "/teams/", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.status == http.StatusCreated && svc.created.Name != "Platform" {
				t.Fatalf("expected trimmed name, got %q", svc.created.Name)
			}
		})
	}
}

func TestDeletePopulatedTeamReportsClearedMembers(t *testing.T) {
	rec := do(t, &fakeService{}, auth.RoleHR, http.MethodDelete, "/teams/t1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data team.DeleteResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.MembersCleared != 3 || env.Data.Team.ID != "t1" {
		t.Fatalf("unexpected result %+v", env.Data)
	}

	if rec := do(t, &fakeService{err: team.ErrNotFound}, auth.RoleHR, http.MethodDelete, "/teams/t9", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSetLeaderMapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "ok", status: http.StatusOK},
		{name: "unknown user", err: team.ErrUserNotFound, status: http.StatusNotFound},
		{name: "inactive user", err: team.ErrUserInactive, status: http.StatusConflict},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{err: tc.err}
			rec := do(t, svc, auth.RoleHR, http.MethodPut, "/teams/t1/leader", `{"userId":" u7 "}`)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if svc.leader != "u7" {
				t.Fatalf("expected trimmed leader id, got %q", svc.leader)
			}
		})
	}
}
