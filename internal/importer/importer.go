// Package importer reads historical check-ins from an XLSX workbook.
package importer

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"hrty-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// Column headers of the history workbook, in template order.
const (
	HeaderDate       = "Date"
	HeaderWeight     = "Weight"
	HeaderUnit       = "Unit"
	HeaderSystolic   = "Systolic"
	HeaderDiastolic  = "Diastolic"
	HeaderHeartRate  = "Heart Rate"
	HeaderSpO2       = "SpO2"
	historySheetName = "History"
)

// HistoryHeader is the header row of the template.
var HistoryHeader = []string{
	HeaderDate, HeaderWeight, HeaderUnit, HeaderSystolic, HeaderDiastolic, HeaderHeartRate, HeaderSpO2,
}

var dateLayouts = []string{models.DayLayout, "1/2/2006", "1/2/06", "01-02-06", "2006/01/02"}

// RowError describes a skipped row. Row is 1-based as shown in spreadsheet software.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of parsing a workbook.
type Result struct {
	Entries []models.DailyEntry `json:"-"`
	Total   int                 `json:"total"`
	Skipped []RowError          `json:"skipped"`
}

// Parse reads the first sheet of the workbook in r. Blank cells are absent vitals.
// Rows that fail validation are reported and skipped; a later row for the same date
// is merged over an earlier one.
func Parse(r io.Reader, patientID string) (*Result, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("Excel file is empty")
	}

	headerMap := make(map[string]int)
	for i, h := range rows[0] {
		headerMap[strings.TrimSpace(h)] = i
	}
	if _, ok := headerMap[HeaderDate]; !ok {
		return nil, fmt.Errorf("missing %q column", HeaderDate)
	}

	res := &Result{}
	byDay := make(map[time.Time]*models.DailyEntry)
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		cell := func(header string) string {
			if i, ok := headerMap[header]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		if isBlank(row) {
			continue
		}
		res.Total++

		entry, err := parseRow(patientID, cell)
		if err == nil {
			err = entry.Validate()
		}
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Row: rowIdx + 1, Reason: err.Error()})
			continue
		}

		if prior, ok := byDay[entry.Day]; ok {
			prior.Merge(entry)
		} else {
			e := entry
			byDay[entry.Day] = &e
		}
	}

	for _, e := range byDay {
		res.Entries = append(res.Entries, *e)
	}
	sort.Slice(res.Entries, func(i, j int) bool { return res.Entries[i].Day.Before(res.Entries[j].Day) })
	return res, nil
}

func parseRow(patientID string, cell func(string) string) (models.DailyEntry, error) {
	day, err := parseDate(cell(HeaderDate))
	if err != nil {
		return models.DailyEntry{}, err
	}
	entry := models.DailyEntry{PatientID: patientID, Day: day}

	if v := cell(HeaderWeight); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.DailyEntry{}, fmt.Errorf("invalid weight %q", v)
		}
		unit := models.WeightUnit(strings.ToLower(cell(HeaderUnit)))
		switch unit {
		case "", "lbs":
			unit = models.WeightUnitPounds
		}
		entry.Weight = &models.Weight{Value: w, Unit: unit}
	}
	if entry.Systolic, err = parseInt(HeaderSystolic, cell(HeaderSystolic)); err != nil {
		return models.DailyEntry{}, err
	}
	if entry.Diastolic, err = parseInt(HeaderDiastolic, cell(HeaderDiastolic)); err != nil {
		return models.DailyEntry{}, err
	}
	if (entry.Systolic == nil) != (entry.Diastolic == nil) {
		return models.DailyEntry{}, fmt.Errorf("systolic and diastolic must be given together")
	}
	if entry.HeartRate, err = parseInt(HeaderHeartRate, cell(HeaderHeartRate)); err != nil {
		return models.DailyEntry{}, err
	}
	if v := cell(HeaderSpO2); v != "" {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			return models.DailyEntry{}, fmt.Errorf("invalid SpO2 %q", v)
		}
		entry.OxygenSaturation = &pct
	}
	return entry, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	// raw date cells arrive as Excel serial numbers
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", v, err)
		}
		return models.DayOf(t, time.UTC), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", v)
}

func parseInt(header, v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", strings.ToLower(header), v)
	}
	i := int(f + 0.5)
	return &i, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
