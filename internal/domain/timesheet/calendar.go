package timesheet

import (
	"sort"
	"time"

	"talenthub/internal/domain/workrequest"
)

const (
	dateLayout = "2006-01-02"
	// MaxRangeDays bounds a single calendar request.
	MaxRangeDays = 366
)

// NewRange normalises from/to to UTC dates and checks the bounds.
func NewRange(from, to time.Time) (Range, error) {
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		return Range{}, ErrInvalidRange
	}
	if int(to.Sub(from).Hours()/24)+1 > MaxRangeDays {
		return Range{}, ErrInvalidRange
	}
	return Range{From: from, To: to}, nil
}

// MonthRange covers the calendar month containing t.
func MonthRange(t time.Time) Range {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Range{From: first, To: first.AddDate(0, 1, -1)}
}

// BuildCalendar lays requests out day by day over r. REJECTED requests are
// ignored; LEAVE and WFH do not occupy weekends.
func BuildCalendar(r Range, requests []workrequest.Request) Calendar {
	cal := Calendar{From: r.From.Format(dateLayout), To: r.To.Format(dateLayout), Days: []Day{}}
	index := map[string]int{}
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		index[key] = len(cal.Days)
		cal.Days = append(cal.Days, Day{
			Date:      key,
			Weekday:   d.Weekday().String(),
			IsWeekend: workrequest.IsWeekend(d),
			Entries:   []Entry{},
		})
	}

	sorted := append([]workrequest.Request(nil), requests...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartDate.Equal(sorted[j].StartDate) {
			return sorted[i].StartDate.Before(sorted[j].StartDate)
		}
		return sorted[i].UserName < sorted[j].UserName
	})

	for _, req := range sorted {
		if req.Status == workrequest.StatusRejected || !workrequest.Overlaps(req.StartDate, req.EndDate, r.From, r.To) {
			continue
		}
		start, end := dateOnly(req.StartDate), dateOnly(req.EndDate)
		if start.Before(r.From) {
			start = r.From
		}
		if end.After(r.To) {
			end = r.To
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if occupiesWorkdaysOnly(req.Type) && workrequest.IsWeekend(d) {
				continue
			}
			i := index[d.Format(dateLayout)]
			entry := Entry{
				RequestID: req.ID,
				UserID:    req.UserID,
				UserName:  req.UserName,
				Type:      req.Type,
				Status:    req.Status,
				IsHalfDay: req.IsHalfDay,
				Amount:    amount(req),
			}
			cal.Days[i].Entries = append(cal.Days[i].Entries, entry)
			cal.Totals.add(entry)
		}
	}
	return cal
}

// TotalsFor sums the calendar entries of a single user.
func TotalsFor(cal Calendar, userID string) Totals {
	var t Totals
	for _, d := range cal.Days {
		for _, e := range d.Entries {
			if e.UserID == userID {
				t.add(e)
			}
		}
	}
	return t
}

func (t *Totals) add(e Entry) {
	if e.Status != workrequest.StatusApproved {
		t.PendingEntries++
		return
	}
	switch e.Type {
	case workrequest.TypeLeave:
		t.LeaveDays += e.Amount
	case workrequest.TypeWFH:
		t.WFHDays += e.Amount
	case workrequest.TypeOvertime:
		t.OvertimeDays += e.Amount
	case workrequest.TypeLate:
		t.LateCount++
	case workrequest.TypeEarly:
		t.EarlyCount++
	}
}

func amount(req workrequest.Request) float64 {
	if req.IsHalfDay {
		return 0.5
	}
	return 1
}

func occupiesWorkdaysOnly(requestType string) bool {
	return requestType == workrequest.TypeLeave || requestType == workrequest.TypeWFH
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
