package assessment

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Cycle report"

// ExportReport writes a cycle report as an .xlsx workbook with one row per
// assessment and a status breakdown underneath.
func ExportReport(report CycleReport) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReportExport, err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReportExport, err)
	}

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetColWidth(reportSheet, "A", "A", 32)
	f.SetColWidth(reportSheet, "B", "F", 18)

	f.SetCellValue(reportSheet, "A1", report.Cycle.Name)
	f.SetCellStyle(reportSheet, "A1", "A1", bold)
	f.SetCellValue(reportSheet, "B1", report.Cycle.Status)

	headers := []string{"Employee", "Status", "Self avg", "Final avg", "Under-qualified", "Gap sum"}
	for i, h := range headers {
		name, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(reportSheet, name, h)
	}
	f.SetCellStyle(reportSheet, "A3", "F3", bold)

	row := 4
	for _, r := range report.Rows {
		values := []any{r.UserName, r.Status, optional(r.SelfScoreAvg), optional(r.FinalScoreAvg), r.Underqualified.Count, r.Underqualified.Sum}
		for i, v := range values {
			name, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(reportSheet, name, v)
		}
		row++
	}

	row++
	statuses := make([]string, 0, len(report.ByStatus))
	for status := range report.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		f.SetCellValue(reportSheet, fmt.Sprintf("A%d", row), status)
		f.SetCellValue(reportSheet, fmt.Sprintf("B%d", row), report.ByStatus[status])
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReportExport, err)
	}
	return buf, reportFileName(report.Cycle.Name), nil
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func reportFileName(cycleName string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(cycleName))
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "cycle"
	}
	return "assessment-report-" + slug + ".xlsx"
}
