package domain

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Observation is one long-format reading. Missing is set when the cell held text
// that does not parse as a number; PM25 is then zero and must be ignored.
type Observation struct {
	Time    time.Time `json:"datetime"`
	City    string    `json:"city"`
	Station string    `json:"station"`
	PM25    float64   `json:"pm25"`
	Missing bool      `json:"missing,omitempty"`
}

// ParsePM25 converts a raw cell to a concentration. Surrounding space is trimmed
// and a decimal comma is accepted ("12,5" -> 12.5). The boolean is false when the
// cell is not a finite number.
func ParsePM25(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ToLong reshapes a wide table into observations, one per non-blank cell, ordered
// by row then column.
func ToLong(t *Table) []Observation {
	out := make([]Observation, 0, len(t.Times)*len(t.Columns))
	for i, ts := range t.Times {
		for j, col := range t.Columns {
			raw := t.Rows[i][j]
			if strings.TrimSpace(raw) == "" {
				continue
			}
			v, ok := ParsePM25(raw)
			out = append(out, Observation{
				Time:    ts,
				City:    col.City,
				Station: col.Code,
				PM25:    v,
				Missing: !ok,
			})
		}
	}
	return out
}

// FromLong pivots observations back into a wide table. Readings that share a
// timestamp and station are averaged; missing readings are ignored. Rows are
// sorted by time and columns by city then station code.
func FromLong(obs []Observation) *Table {
	type cellKey struct {
		t   time.Time
		col Column
	}
	sums := make(map[cellKey]*meanAcc)
	times := make(map[time.Time]struct{})
	cols := make(map[Column]struct{})

	for _, o := range obs {
		col := Column{City: o.City, Code: o.Station}
		times[o.Time] = struct{}{}
		cols[col] = struct{}{}
		if o.Missing {
			continue
		}
		k := cellKey{t: o.Time, col: col}
		acc, ok := sums[k]
		if !ok {
			acc = &meanAcc{}
			sums[k] = acc
		}
		acc.add(o.PM25)
	}

	out := &Table{}
	for ts := range times {
		out.Times = append(out.Times, ts)
	}
	sort.Slice(out.Times, func(a, b int) bool { return out.Times[a].Before(out.Times[b]) })
	for col := range cols {
		out.Columns = append(out.Columns, col)
	}
	sort.Slice(out.Columns, func(a, b int) bool {
		if out.Columns[a].City != out.Columns[b].City {
			return out.Columns[a].City < out.Columns[b].City
		}
		return out.Columns[a].Code < out.Columns[b].Code
	})

	out.Rows = make([][]string, len(out.Times))
	for i, ts := range out.Times {
		row := make([]string, len(out.Columns))
		for j, col := range out.Columns {
			if acc, ok := sums[cellKey{t: ts, col: col}]; ok {
				row[j] = strconv.FormatFloat(acc.mean(), 'f', -1, 64)
			}
		}
		out.Rows[i] = row
	}
	return out
}
