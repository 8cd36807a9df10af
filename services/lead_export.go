package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"leadboard/models"
)

const (
	leadsSheet   = "Leads"
	summarySheet = "Summary"
)

var leadExportHeaders = []string{
	"Score", "Priority", "Name", "Company", "Email", "Industry", "Company Size", "Budget",
}

// ExportLeadsWorkbook writes the lead snapshot and its stats to an XLSX file
func ExportLeadsWorkbook(leads []models.Lead, stats models.Stats, generatedAt time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leadsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for i, header := range leadExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(leadsSheet, cell, header)
	}

	for i, lead := range leads {
		row := i + 2
		var budget any = lead.Budget.Value
		if !lead.Budget.IsNumeric() {
			budget = lead.Budget.Text
		}
		values := []any{
			lead.Score, lead.Priority, lead.Name, lead.Company, lead.Email,
			lead.Industry, lead.CompanySize, budget,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(leadsSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write lead row %d: %w", row, err)
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(leadsSheet, "A1", "H1", headerStyle)
	f.SetColWidth(leadsSheet, "C", "E", 28)

	// --- Summary Sheet ---
	f.NewSheet(summarySheet)
	summary := [][]any{
		{"Generated At", generatedAt.UTC().Format(time.RFC3339)},
		{"Total Leads", stats.Total},
		{"High Priority", stats.High},
		{"Medium Priority", stats.Medium},
		{"Low Priority", stats.Low},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	f.SetCellStyle(summarySheet, "A1", "A5", headerStyle)
	f.SetColWidth(summarySheet, "A", "A", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}

	return buf, nil
}

// ExportFilename names the download after the export time
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("leads_%s.xlsx", t.Format("20060102_150405"))
}
