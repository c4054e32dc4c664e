package export

import (
	"fmt"

	"github.com/campus-exams/exam-scheduler-api/internal/dto"
)

var conflictReportHeaders = []string{
	"Conflict ID", "Exam ID", "Module", "Kind", "Description", "Severity", "Resolved", "Detected At",
}

func conflictReportDataset(rows []dto.ConflictReportRow) Dataset {
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Conflict ID": row.ConflictID,
			"Exam ID":     row.ExamID,
			"Module":      row.ModuleCode,
			"Kind":        row.Kind,
			"Description": row.Description,
			"Severity":    fmt.Sprintf("%d", row.Severity),
			"Resolved":    fmt.Sprintf("%t", row.Resolved),
			"Detected At": row.DetectedAt.Format("2006-01-02 15:04"),
		})
	}
	return Dataset{Headers: conflictReportHeaders, Rows: dataRows}
}

// ConflictsToCSV renders a conflict report as CSV bytes.
func ConflictsToCSV(rows []dto.ConflictReportRow) ([]byte, error) {
	return NewCSVExporter().Render(conflictReportDataset(rows))
}

// ConflictsToPDF renders a conflict report as a tabular PDF.
func ConflictsToPDF(rows []dto.ConflictReportRow) ([]byte, error) {
	return NewPDFExporter().Render(conflictReportDataset(rows), "Exam Schedule Conflict Report")
}
