package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// timestampLayouts are the textual timestamp formats seen in GIOŚ sheets and in
// snapshots written by this service. Serial numbers are handled separately.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/06 15:04",
	"2006-01-02",
}

// Excel serials accepted as timestamps: 1970-01-01 through 9999-12-31. Smaller
// numbers are far more likely a year or a station number than a date.
const (
	minExcelSerial = 25569
	maxExcelSerial = 2958465
)

// Clean turns a raw measurement grid into a wide Table. The cells of headerRow
// become the station codes, grid rows listed in dropRows are discarded and the
// first column becomes the datetime column.
//
// Rows with a blank timestamp cell are skipped; any other timestamp that does not
// parse is an error naming the grid row. Blank or repeated station labels are errors.
func Clean(grid Grid, headerRow int, dropRows []int) (*Table, error) {
	if headerRow < 0 || headerRow >= len(grid) {
		return nil, fmt.Errorf("clean: header row %d out of range (%d rows)", headerRow, len(grid))
	}

	columns, err := headerColumns(grid[headerRow])
	if err != nil {
		return nil, fmt.Errorf("clean: header row %d: %w", headerRow, err)
	}

	drop := make(map[int]struct{}, len(dropRows))
	for _, r := range dropRows {
		drop[r] = struct{}{}
	}

	t := &Table{Columns: columns}
	for i := range grid {
		if _, skip := drop[i]; skip {
			continue
		}
		cell := strings.TrimSpace(grid.Cell(i, 0))
		if cell == "" {
			continue
		}
		ts, err := ParseTimestamp(cell)
		if err != nil {
			return nil, fmt.Errorf("clean: row %d: %w", i, err)
		}
		values := make([]string, len(columns))
		for j := range columns {
			values[j] = strings.TrimSpace(grid.Cell(i, j+1))
		}
		t.Times = append(t.Times, ts)
		t.Rows = append(t.Rows, values)
	}
	return t, nil
}

func headerColumns(header []string) ([]Column, error) {
	if len(header) < 2 {
		return nil, fmt.Errorf("no station columns")
	}
	columns := make([]Column, 0, len(header)-1)
	seen := make(map[string]int, len(header))
	for j := 1; j < len(header); j++ {
		code := strings.TrimSpace(header[j])
		if code == "" {
			return nil, fmt.Errorf("blank station label in column %d", j)
		}
		if prev, dup := seen[code]; dup {
			return nil, fmt.Errorf("station %q appears in columns %d and %d", code, prev, j)
		}
		seen[code] = j
		columns = append(columns, Column{Code: code})
	}
	return columns, nil
}

// ParseTimestamp parses a datetime cell. Excel serial day numbers (as returned by
// raw cell reads) are converted and rounded to the second; anything else must
// match one of the known textual layouts. Numbers outside the serial range of
// 1970 through 9999 are rejected.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(serial) || serial < minExcelSerial || serial >= maxExcelSerial+1 {
			return time.Time{}, fmt.Errorf("parse timestamp %q: number outside the Excel date range", s)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
		}
		return t.Round(time.Second).UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognized format", s)
}

// FormatTimestamp renders a timestamp the way snapshots store it.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
