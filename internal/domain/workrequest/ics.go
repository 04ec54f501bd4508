package workrequest

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// BuildICS renders requests as an all-day iCalendar feed. DTEND is
// exclusive, so it lands on the day after the last requested day.
func BuildICS(name string, requests []Request, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//talenthub//work requests//EN")
	cal.SetName(name)

	for _, r := range requests {
		event := cal.AddEvent(r.ID + "@talenthub")
		event.SetDtStampTime(now)
		event.SetCreatedTime(r.CreatedAt)
		event.SetAllDayStartAt(r.StartDate)
		event.SetAllDayEndAt(dateOnly(r.EndDate).AddDate(0, 0, 1))
		event.SetSummary(summary(r))
		if r.Reason != "" {
			event.SetDescription(r.Reason)
		}
	}
	return cal.Serialize()
}

func summary(r Request) string {
	label := r.Type
	if r.IsHalfDay {
		label += " (half day)"
	}
	if r.UserName == "" {
		return label
	}
	return fmt.Sprintf("%s: %s", r.UserName, label)
}
