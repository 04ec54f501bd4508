package timesheet

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"talenthub/internal/domain/workrequest"
)

const sheetName = "Timesheet"

// Export renders a sheet as an .xlsx workbook: one row per day, the day's
// entries in one column, followed by a totals block.
func Export(sheet Sheet) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrExport, err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrExport, err)
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 60)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	weekendStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#EDEDED"}, Pattern: 1},
	})

	cal := sheet.Calendar
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s (%s to %s)", sheet.Title, cal.From, cal.To))
	f.MergeCell(sheetName, "A1", "C1")
	f.SetCellStyle(sheetName, "A1", "C1", headerStyle)

	row := 2
	f.SetCellValue(sheetName, cell("A", row), "Date")
	f.SetCellValue(sheetName, cell("B", row), "Weekday")
	f.SetCellValue(sheetName, cell("C", row), "Requests")
	f.SetCellStyle(sheetName, cell("A", row), cell("C", row), headerStyle)

	row = 3
	for _, d := range cal.Days {
		f.SetCellValue(sheetName, cell("A", row), d.Date)
		f.SetCellValue(sheetName, cell("B", row), d.Weekday)
		f.SetCellValue(sheetName, cell("C", row), describe(d.Entries, sheet.TeamID != ""))
		if d.IsWeekend {
			f.SetCellStyle(sheetName, cell("A", row), cell("C", row), weekendStyle)
		}
		row++
	}

	row++
	totals := []struct {
		label string
		value any
	}{
		{"Leave days", cal.Totals.LeaveDays},
		{"WFH days", cal.Totals.WFHDays},
		{"Overtime days", cal.Totals.OvertimeDays},
		{"Late arrivals", cal.Totals.LateCount},
		{"Early leaves", cal.Totals.EarlyCount},
		{"Pending entries", cal.Totals.PendingEntries},
	}
	for _, t := range totals {
		f.SetCellValue(sheetName, cell("A", row), t.label)
		f.SetCellValue(sheetName, cell("B", row), t.value)
		row++
	}

	if len(sheet.Members) > 0 {
		row++
		f.SetCellValue(sheetName, cell("A", row), "Member")
		f.SetCellValue(sheetName, cell("B", row), "Leave")
		f.SetCellValue(sheetName, cell("C", row), "WFH / overtime / late / early")
		f.SetCellStyle(sheetName, cell("A", row), cell("C", row), headerStyle)
		row++
		for _, m := range sheet.Members {
			f.SetCellValue(sheetName, cell("A", row), m.FullName)
			f.SetCellValue(sheetName, cell("B", row), m.Totals.LeaveDays)
			f.SetCellValue(sheetName, cell("C", row), fmt.Sprintf("%.1f / %.1f / %d / %d",
				m.Totals.WFHDays, m.Totals.OvertimeDays, m.Totals.LateCount, m.Totals.EarlyCount))
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		slog.Error("timesheet export write failed", "err", err)
		return nil, "", ErrExport
	}
	return buf, fmt.Sprintf("timesheet-%s-%s.xlsx", cal.From, cal.To), nil
}

func describe(entries []Entry, withNames bool) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		label := e.Type
		if e.IsHalfDay {
			label += " (half)"
		}
		if e.Status != workrequest.StatusApproved {
			label += " [" + strings.ToLower(e.Status) + "]"
		}
		if withNames && e.UserName != "" {
			label = e.UserName + ": " + label
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
