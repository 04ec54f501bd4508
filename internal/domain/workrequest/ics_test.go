package workrequest

import (
	"strings"
	"testing"
	"time"
)

func TestBuildICS(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := BuildICS("Team", []Request{{
		ID:        "r1",
		UserName:  "Ada",
		Type:      TypeLeave,
		StartDate: day(2026, 3, 9),
		EndDate:   day(2026, 3, 10),
		Reason:    "Family trip",
		CreatedAt: now,
	}}, now)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:r1@talenthub",
		"SUMMARY:Ada: LEAVE",
		"DTSTART;VALUE=DATE:20260309",
		"DTEND;VALUE=DATE:20260311",
		"DESCRIPTION:Family trip",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in calendar:\n%s", want, out)
		}
	}
}
