package infra

// pdf.go — Monthly statement generation using go-pdf/fpdf.
// Produces an A4 statement with:
//   - Clinic name header and statement period
//   - Therapist identification
//   - Entry table (date, attendance type, time range, units, amount)
//   - Bold grand total

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateStatementPDF writes a monthly statement for a therapist covering the
// given approved billing entries. storagePath is created if needed.
// Returns the absolute path to the generated file.
func GenerateStatementPDF(therapistName string, statement *model.Statement, entries []model.BillingEntry, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("statement_%s_%s.pdf", statement.TherapistID, statement.Period)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Indigo Gestao", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Monthly Statement - %s", statement.Period), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, therapistName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Entries: %d", len(entries)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Entry table ──────────────────────────────────────────────────────────
	col1 := contentW * 0.16 // date
	col2 := contentW * 0.34 // attendance type
	col3 := contentW * 0.22 // time range
	col4 := contentW * 0.10 // units
	col5 := contentW * 0.18 // amount

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 6, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Attendance", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "Time", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col4, 6, "Units", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col5, 6, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, e := range entries {
		pdf.CellFormat(col1, 5, e.SessionDate.Format("02/01/2006"), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, e.AttendanceType, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, fmt.Sprintf("%s-%s", e.StartTime, e.EndTime), "", 0, "C", false, 0, "")
		pdf.CellFormat(col4, 5, fmt.Sprintf("%d", e.Units), "", 0, "C", false, 0, "")
		pdf.CellFormat(col5, 5, "R$ "+e.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3+col4, 7, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col5, 7, "R$ "+statement.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
