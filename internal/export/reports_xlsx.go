package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"surveillance/internal/model"

	"github.com/xuri/excelize/v2"
)

const ReportsSheet = "ASHA Reports"

// ContentTypeXLSX is the MIME type of the generated workbook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var reportHeaders = []string{
	"Report ID", "Submitted At", "Reporter", "District", "Village",
	"Severity", "Patient", "Symptoms", "Status", "Verified By", "Verified At",
}

var reportColumnWidths = []float64{38, 20, 18, 18, 18, 10, 20, 40, 12, 18, 20}

// ReportsWorkbook renders reports into an xlsx document. Relations are read when loaded.
func ReportsWorkbook(reports []model.AshaReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ReportsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range reportHeaders {
		if err := setCell(f, i+1, 1, header); err != nil {
			return nil, err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(ReportsSheet, col, col, reportColumnWidths[i]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(reportHeaders), 1)
	if err := f.SetCellStyle(ReportsSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i := range reports {
		if err := writeReportRow(f, i+2, &reports[i]); err != nil {
			return nil, err
		}
	}

	if err := f.SetPanes(ReportsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeReportRow(f *excelize.File, row int, r *model.AshaReport) error {
	symptoms := r.SymptomsJSON.Data()
	values := []interface{}{
		r.ID.String(),
		r.CreatedAt.Format(time.RFC3339),
		r.User.Username,
		"",
		"",
		symptoms.Severity,
		symptoms.PatientName,
		strings.Join(symptoms.Symptoms, ", "),
		r.Status,
		"",
		"",
	}
	if r.District != nil {
		values[3] = r.District.DistrictName
	}
	if r.Village != nil {
		values[4] = r.Village.VillageName
	}
	if r.Verifier != nil {
		values[9] = r.Verifier.Username
	}
	if r.VerifiedAt != nil {
		values[10] = r.VerifiedAt.Format(time.RFC3339)
	}

	for col, v := range values {
		if v == "" {
			continue
		}
		if err := setCell(f, col+1, row, v); err != nil {
			return err
		}
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellValue(ReportsSheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
