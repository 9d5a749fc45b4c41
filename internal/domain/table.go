package domain

import (
	"errors"
	"time"
)

// DatetimeLabel is the canonical label of a table's timestamp column.
const DatetimeLabel = "datetime"

// UnknownCity labels stations that have no entry in the metadata.
const UnknownCity = "Unknown"

// ErrNoSharedStations is returned when merging years leaves no station columns.
var ErrNoSharedStations = errors.New("no station codes shared by all years")

// Grid is a raw spreadsheet sheet: row-major cell text. Rows may be ragged.
type Grid [][]string

// Cell returns the cell text at (row, col), or "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Column labels one station column of a wide table.
type Column struct {
	City string `json:"city"`
	Code string `json:"code"`
}

// Table is the wide form of a measurement sheet: Rows[i][j] is the raw cell text
// measured at Times[i] by the station in Columns[j].
type Table struct {
	Times   []time.Time
	Columns []Column
	Rows    [][]string
}

// Clone returns a deep copy so transforms never share state with their input.
func (t *Table) Clone() *Table {
	out := &Table{
		Times:   make([]time.Time, len(t.Times)),
		Columns: make([]Column, len(t.Columns)),
		Rows:    make([][]string, len(t.Rows)),
	}
	copy(out.Times, t.Times)
	copy(out.Columns, t.Columns)
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// Codes returns the station codes in column order.
func (t *Table) Codes() []string {
	codes := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		codes[i] = c.Code
	}
	return codes
}

// ColumnIndex returns the position of the station code, or -1.
func (t *Table) ColumnIndex(code string) int {
	for i, c := range t.Columns {
		if c.Code == code {
			return i
		}
	}
	return -1
}

// Len reports the number of rows.
func (t *Table) Len() int { return len(t.Times) }
