package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"talenthub/internal/domain/auth"
)

type fakeStore struct {
	users map[string]User
	refs  int
}

func (f *fakeStore) ListUsers(context.Context, UserFilter) ([]User, int, error) { return nil, 0, nil }

func (f *fakeStore) GetUser(_ context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateUser(_ context.Context, in CreateUserInput) (string, error) {
	id := "u" + string(rune('0'+len(f.users)+1))
	f.users[id] = User{ID: id, Email: in.Email, FullName: in.FullName, Role: in.Role, Status: auth.UserStatusPending}
	return id, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, id string, in UpdateUserInput) error {
	u := f.users[id]
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
	f.users[id] = u
	return nil
}

func (f *fakeStore) ListBands(context.Context) ([]CareerBand, error) { return nil, nil }
func (f *fakeStore) GetBand(context.Context, string) (CareerBand, error) { return CareerBand{}, nil }
func (f *fakeStore) CreateBand(context.Context, CareerBand) (string, error) { return "b1", nil }
func (f *fakeStore) UpdateBand(context.Context, string, CareerBand) error { return nil }
func (f *fakeStore) BandReferences(context.Context, string) (int, error) { return f.refs, nil }
func (f *fakeStore) DeleteBand(context.Context, string) error { return nil }

type fakeIssuer struct{}

func (fakeIssuer) IssueVerificationToken(context.Context, string) (string, error) { return "tok123", nil }

type fakeMailer struct {
	code string
	to   string
	data map[string]string
}

func (m *fakeMailer) SendTemplate(_ context.Context, code, to string, data map[string]string) {
	m.code, m.to, m.data = code, to, data
}

func TestCreateUserSendsVerification(t *testing.T) {
	store := &fakeStore{users: map[string]User{}}
	mailer := &fakeMailer{}
	svc := NewService(store, fakeIssuer{}, mailer, "https://hr.example.com")

	user, err := svc.CreateUser(context.Background(), CreateUserInput{Email: "new@example.com", FullName: "New Hire"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Role != auth.RoleEmployee || user.Status != auth.UserStatusPending {
		t.Fatalf("unexpected user %+v", user)
	}
	if mailer.code != TemplateAccountVerification || mailer.to != "new@example.com" {
		t.Fatalf("unexpected email %s -> %s", mailer.code, mailer.to)
	}
	if !strings.Contains(mailer.data["verificationLink"], "https://hr.example.com/verify?token=tok123") {
		t.Fatalf("unexpected link %q", mailer.data["verificationLink"])
	}

	if _, err := svc.CreateUser(context.Background(), CreateUserInput{Email: "NEW@example.com", FullName: "Dup"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if _, err := svc.CreateUser(context.Background(), CreateUserInput{Email: "x@example.com", Role: "OWNER"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
}

func TestDeleteBandInUse(t *testing.T) {
	svc := NewService(&fakeStore{users: map[string]User{}, refs: 2}, nil, nil, "")
	if err := svc.DeleteBand(context.Background(), "b1"); !errors.Is(err, ErrBandInUse) {
		t.Fatalf("expected band in use, got %v", err)
	}
}

func TestUpdateUserValidatesStatus(t *testing.T) {
	store := &fakeStore{users: map[string]User{"u1": {ID: "u1", Role: auth.RoleEmployee, Status: auth.UserStatusActive}}}
	svc := NewService(store, nil, nil, "")
	bad := "ARCHIVED"
	if _, _, err := svc.UpdateUser(context.Background(), "u1", UpdateUserInput{Status: &bad}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	inactive := auth.UserStatusInactive
	before, after, err := svc.UpdateUser(context.Background(), "u1", UpdateUserInput{Status: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if before.Status != auth.UserStatusActive || after.Status != auth.UserStatusInactive {
		t.Fatalf("unexpected before/after %s/%s", before.Status, after.Status)
	}
}

func TestBuildVerificationLinkFallback(t *testing.T) {
	got := BuildVerificationLink("not a url", "abc")
	if got != "http://localhost:8080/verify?token=abc" {
		t.Fatalf("unexpected link %q", got)
	}
	got = BuildVerificationLink("https://hr.example.com/app/", "abc")
	if got != "https://hr.example.com/app/verify?token=abc" {
		t.Fatalf("unexpected link %q", got)
	}
}
