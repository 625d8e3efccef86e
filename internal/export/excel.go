package export

import (
	"fmt"
	"io"

	"tasksync/internal/models"

	"github.com/xuri/excelize/v2"
)

const deadLetterSheet = "Dead Letters"

// WriteDeadLetterReport renders the dead-letter queue as an XLSX workbook
// and streams it to w. Entries are written in the order given.
func WriteDeadLetterReport(w io.Writer, entries []models.DeadLetterEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(deadLetterSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Entry ID", "Task ID", "Operation", "Title",
		"Error", "Retries", "Failed At",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(deadLetterSheet, cell, header)
		_ = f.SetCellStyle(deadLetterSheet, cell, cell, headerStyle)
	}

	for i, entry := range entries {
		row := i + 2
		_ = f.SetCellValue(deadLetterSheet, fmt.Sprintf("A%d", row), entry.ID)
		_ = f.SetCellValue(deadLetterSheet, fmt.Sprintf("B%d", row), entry.EntryID)
		_ = f.SetCellValue(deadLetterSheet, fmt.Sprintf("C%d", row), entry.TaskID)
		_ = f.SetCellValue(deadLetterSheet, fmt.Sprintf("D%d", row), entry.Operation)
		_ = f.SetCellValue(deadLetterSheet, fmt.Sprintf("E%d", row), entry.Snapshot.Title)
		_ = f.SetCellValue(deadLetterSheet, fmt.Sprintf("F%d", row), entry.Error)
		_ = f.SetCellValue(deadLetterSheet, fmt.Sprintf("G%d", row), entry.RetryCount)
		_ = f.SetCellValue(deadLetterSheet, fmt.Sprintf("H%d", row), entry.FailedAt.Format("02.01.2006 15:04:05"))
	}

	_ = f.SetColWidth(deadLetterSheet, "A", "C", 38)
	_ = f.SetColWidth(deadLetterSheet, "D", "D", 12)
	_ = f.SetColWidth(deadLetterSheet, "E", "F", 30)
	_ = f.SetColWidth(deadLetterSheet, "G", "G", 10)
	_ = f.SetColWidth(deadLetterSheet, "H", "H", 20)

	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %v", err)
	}
	return nil
}
