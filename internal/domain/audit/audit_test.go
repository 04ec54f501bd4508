package audit

import (
	"strings"
	"testing"
)

func TestBuildBaseQueryNumbersPlaceholders(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", Filter{Action: "team.delete", EntityID: "t1", ActorUser: "u1"})
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	for _, want := range []string{"action = $1", "entity_id = $2", "actor_user_id::text = $3"} {
		if !strings.Contains(query, want) {
			t.Fatalf("expected %q in query %q", want, query)
		}
	}
	if strings.Contains(query, "entity_type") {
		t.Fatalf("unexpected entity_type filter in %q", query)
	}
}

func TestMarshalOptional(t *testing.T) {
	raw, err := marshalOptional(nil)
	if err != nil || raw != nil {
		t.Fatalf("expected nil payload, got %q err=%v", raw, err)
	}
	raw, err = marshalOptional(map[string]int{"level": 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"level":3}` {
		t.Fatalf("unexpected payload %s", raw)
	}
}
