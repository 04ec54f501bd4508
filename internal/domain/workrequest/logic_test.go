package workrequest

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateDays(t *testing.T) {
	start := day(2025, 1, 10)

	days, err := CalculateDays(start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 day, got %v", days)
	}

	days, err = CalculateDays(start, day(2025, 1, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %v", days)
	}

	if _, err := CalculateDays(start, day(2025, 1, 9)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestCountDays(t *testing.T) {
	// 2026-03-06 is a Friday.
	cases := []struct {
		name    string
		typ     string
		start   time.Time
		end     time.Time
		half    bool
		want    float64
		wantErr error
	}{
		{"leave skips weekend", TypeLeave, day(2026, 3, 6), day(2026, 3, 9), false, 2, nil},
		{"overtime counts weekend", TypeOvertime, day(2026, 3, 6), day(2026, 3, 9), false, 4, nil},
		{"half day", TypeLeave, day(2026, 3, 6), day(2026, 3, 6), true, 0.5, nil},
		{"half day spanning two days", TypeLeave, day(2026, 3, 5), day(2026, 3, 6), true, 0, ErrHalfDaySpan},
		{"weekend only leave", TypeWFH, day(2026, 3, 7), day(2026, 3, 8), false, 0, ErrNoWorkingDays},
		{"half day on weekend", TypeLeave, day(2026, 3, 7), day(2026, 3, 7), true, 0, ErrNoWorkingDays},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := CountDays(tc.typ, tc.start, tc.end, tc.half)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if got != tc.want {
				t.Fatalf("expected %v days, got %v", tc.want, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	in, days, err := Validate(CreateInput{Type: " wfh ", StartDate: day(2026, 3, 9), EndDate: day(2026, 3, 9)})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.Type != TypeWFH || days != 1 {
		t.Fatalf("unexpected normalised input: %+v days=%v", in, days)
	}
	if _, _, err := Validate(CreateInput{Type: "HOLIDAY", StartDate: day(2026, 3, 9), EndDate: day(2026, 3, 9)}); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected invalid type, got %v", err)
	}
	if _, _, err := Validate(CreateInput{Type: TypeLeave, StartDate: day(2026, 3, 9), EndDate: day(2026, 3, 9)}); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}
	if _, _, err := Validate(CreateInput{Type: TypeLeave, Reason: "trip", IsHalfDay: true, StartDate: day(2026, 3, 9), EndDate: day(2026, 3, 10)}); !errors.Is(err, ErrHalfDaySpan) {
		t.Fatalf("expected half-day span error, got %v", err)
	}
}

func TestOverlaps(t *testing.T) {
	if !Overlaps(day(2026, 3, 1), day(2026, 3, 5), day(2026, 3, 5), day(2026, 3, 8)) {
		t.Fatal("ranges sharing a boundary day overlap")
	}
	if Overlaps(day(2026, 3, 1), day(2026, 3, 4), day(2026, 3, 5), day(2026, 3, 8)) {
		t.Fatal("adjacent ranges do not overlap")
	}
}
