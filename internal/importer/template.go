package importer

import (
	"bytes"
	"fmt"

	"hrty-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// GenerateTemplate returns a workbook with the history header row and, optionally,
// the given entries. Dates are written as text so they round-trip through Parse.
func GenerateTemplate(entries []models.DailyEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range HistoryHeader {
		if err := setCellValue(f, col+1, 1, header); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(historySheetName, "A1", "G1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(historySheetName, "A", "G", 14); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i, e := range entries {
		row := i + 2
		values := []interface{}{models.FormatDay(e.Day), nil, nil, nil, nil, nil, nil}
		if e.Weight != nil {
			unit := e.Weight.Unit
			if unit == "" {
				unit = models.WeightUnitPounds
			}
			values[1], values[2] = e.Weight.Value, string(unit)
		}
		if e.Systolic != nil && e.Diastolic != nil {
			values[3], values[4] = *e.Systolic, *e.Diastolic
		}
		if e.HeartRate != nil {
			values[5] = *e.HeartRate
		}
		if e.OxygenSaturation != nil {
			values[6] = *e.OxygenSaturation
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			if err := setCellValue(f, col+1, row, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCellValue(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellValue(historySheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
