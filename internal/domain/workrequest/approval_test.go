package workrequest

import (
	"errors"
	"testing"

	"talenthub/internal/domain/auth"
)

func TestCanDecide(t *testing.T) {
	cases := []struct {
		name  string
		actor auth.UserContext
		want  error
	}{
		{"owner", auth.UserContext{UserID: "u1", RoleName: auth.RoleHR}, ErrSelfApproval},
		{"leader", auth.UserContext{UserID: "lead", RoleName: auth.RoleLeader}, nil},
		{"hr", auth.UserContext{UserID: "hr", RoleName: auth.RoleHR}, nil},
		{"other leader", auth.UserContext{UserID: "x", RoleName: auth.RoleLeader}, ErrForbidden},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if err := CanDecide(tc.actor, "u1", "lead"); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestScope(t *testing.T) {
	employee := auth.UserContext{UserID: "u1", RoleName: auth.RoleEmployee}
	if f := Scope(employee, Filter{}); f.OwnerOrLeader != "u1" {
		t.Fatalf("expected own-or-led scope, got %+v", f)
	}
	if f := Scope(employee, Filter{UserID: "u2"}); f.LeaderID != "u1" {
		t.Fatalf("expected leader restriction, got %+v", f)
	}
	if f := Scope(auth.UserContext{UserID: "hr", RoleName: auth.RoleHR}, Filter{}); f.OwnerOrLeader != "" || f.LeaderID != "" {
		t.Fatalf("expected unrestricted filter, got %+v", f)
	}
}
