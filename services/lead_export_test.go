package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"leadboard/models"
)

func TestExportLeadsWorkbook(t *testing.T) {
	leads := []models.Lead{
		{Name: "Ada", Company: "AE", Email: "ada@example.com", Score: 85, Priority: models.PriorityHigh, Budget: models.NewAmount(120000)},
		{Name: "Bob", Company: "BB", Score: 30, Priority: models.PriorityLow, Budget: models.Amount{Text: "TBD"}},
	}
	stats := models.ComputeStats(leads)
	generatedAt := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

	buf, err := ExportLeadsWorkbook(leads, stats, generatedAt)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Leads", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Leads")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Score", rows[0][0])
	assert.Equal(t, "Budget", rows[0][7])
	assert.Equal(t, "Ada", rows[1][2])
	assert.Equal(t, "120000", rows[1][7])
	assert.Equal(t, "TBD", rows[2][7])

	total, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
	high, _ := f.GetCellValue("Summary", "B3")
	assert.Equal(t, "1", high)
}

func TestExportLeadsWorkbookEmpty(t *testing.T) {
	buf, err := ExportLeadsWorkbook(nil, models.Stats{}, time.Now())
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Leads")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestExportFilename(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "leads_20250304_050607.xlsx", ExportFilename(ts))
}
