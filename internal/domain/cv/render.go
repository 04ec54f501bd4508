package cv

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Render lays the document out as an A4 PDF.
func Render(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(doc.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Curriculum Vitae - "+doc.User.FullName), false)
	pdf.SetAuthor("talenthub", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(doc.User.FullName))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 12)
	if doc.User.JobTitle != "" {
		pdf.Cell(0, 7, tr(doc.User.JobTitle))
		pdf.Ln(7)
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range contactLines(doc) {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(5)
	}

	if doc.User.Summary != "" {
		section(pdf, "Summary")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(doc.User.Summary), "", "L", false)
	}

	if len(doc.User.Skills) > 0 {
		section(pdf, "Skills")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(strings.Join(doc.User.Skills, ", ")), "", "L", false)
	}

	section(pdf, "Competencies")
	pdf.SetFont("Helvetica", "", 10)
	if len(doc.Groups) == 0 {
		pdf.Cell(0, 6, "No completed assessment yet.")
		pdf.Ln(6)
	} else {
		heading := "Assessment: " + doc.CycleName
		if doc.FinalScoreAvg != nil {
			heading += fmt.Sprintf(" (average %.2f)", *doc.FinalScoreAvg)
		}
		pdf.Cell(0, 6, tr(heading))
		pdf.Ln(8)
		for _, g := range doc.Groups {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetFillColor(230, 236, 245)
			pdf.CellFormat(0, 7, tr(g.Name), "", 1, "L", true, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			for _, item := range g.Items {
				pdf.CellFormat(120, 6, tr(item.Name), "", 0, "L", false, 0, "")
				pdf.CellFormat(0, 6, levelLabel(item), "", 1, "R", false, 0, "")
			}
			pdf.Ln(2)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, "Generated "+doc.GeneratedAt.Format("2006-01-02"), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render cv: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
}

func contactLines(doc Document) []string {
	var lines []string
	if doc.User.Email != "" {
		lines = append(lines, "Email: "+doc.User.Email)
	}
	if doc.User.Phone != "" {
		lines = append(lines, "Phone: "+doc.User.Phone)
	}
	var org []string
	if doc.User.TeamName != "" {
		org = append(org, "Team: "+doc.User.TeamName)
	}
	if doc.User.CareerBandName != "" {
		org = append(org, "Band: "+doc.User.CareerBandName)
	}
	if len(org) > 0 {
		lines = append(lines, strings.Join(org, "   "))
	}
	return lines
}

func levelLabel(item Item) string {
	if item.Required == nil {
		return fmt.Sprintf("Level %d", item.Level)
	}
	return fmt.Sprintf("Level %d / %d", item.Level, *item.Required)
}
