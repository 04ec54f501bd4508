package workrequest

import (
	"strings"
	"time"
)

// CalculateDays returns inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// CountDays is the number of days a request consumes. LEAVE and WFH skip
// weekends; a half-day request counts 0.5.
func CountDays(requestType string, start, end time.Time, halfDay bool) (float64, error) {
	if _, err := CalculateDays(start, end); err != nil {
		return 0, err
	}
	if halfDay {
		if !sameDay(start, end) {
			return 0, ErrHalfDaySpan
		}
		if skipsWeekends(requestType) && IsWeekend(start) {
			return 0, ErrNoWorkingDays
		}
		return 0.5, nil
	}
	if !skipsWeekends(requestType) {
		return CalculateDays(start, end)
	}
	days := 0.0
	for d := dateOnly(start); !d.After(dateOnly(end)); d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) {
			days++
		}
	}
	if days == 0 {
		return 0, ErrNoWorkingDays
	}
	return days, nil
}

// Validate normalises a new request and returns its day count.
func Validate(in CreateInput) (CreateInput, float64, error) {
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	in.Reason = strings.TrimSpace(in.Reason)
	in.StartDate, in.EndDate = dateOnly(in.StartDate), dateOnly(in.EndDate)
	if !ValidType(in.Type) {
		return in, 0, ErrInvalidType
	}
	if in.Type == TypeLeave && in.Reason == "" {
		return in, 0, ErrReasonRequired
	}
	days, err := CountDays(in.Type, in.StartDate, in.EndDate, in.IsHalfDay)
	if err != nil {
		return in, 0, err
	}
	return in, days, nil
}

// Overlaps reports whether two inclusive date ranges share a day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !dateOnly(aEnd).Before(dateOnly(bStart)) && !dateOnly(bEnd).Before(dateOnly(aStart))
}

func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func skipsWeekends(requestType string) bool {
	return requestType == TypeLeave || requestType == TypeWFH
}

func sameDay(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
