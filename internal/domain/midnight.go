package domain

import "time"

// IsMidnight reports whether t reads exactly 00:00:00.
func IsMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}

// CorrectMidnight returns a copy of t in which every midnight timestamp is moved
// back one second, so a reading that closes a day is attributed to that day.
// The second return value is the number of timestamps moved.
func CorrectMidnight(t *Table) (*Table, int) {
	out := t.Clone()
	moved := 0
	for i, ts := range out.Times {
		if IsMidnight(ts) {
			out.Times[i] = ts.Add(-time.Second)
			moved++
		}
	}
	return out, moved
}

// FilterYears returns a copy of t holding only the rows whose timestamp falls in
// one of the given years. Applied after [CorrectMidnight] it drops the rows that
// the correction pulled into the previous year.
func FilterYears(t *Table, years ...int) *Table {
	keep := make(map[int]struct{}, len(years))
	for _, y := range years {
		keep[y] = struct{}{}
	}
	out := &Table{Columns: append([]Column(nil), t.Columns...)}
	for i, ts := range t.Times {
		if _, ok := keep[ts.Year()]; !ok {
			continue
		}
		out.Times = append(out.Times, ts)
		out.Rows = append(out.Rows, append([]string(nil), t.Rows[i]...))
	}
	return out
}
