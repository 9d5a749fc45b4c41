package domain

// MergeYears stacks the yearly tables row-wise, keeping only the station columns
// present in every table. Column order follows the first table; rows keep the
// order of tables and of rows within them.
func MergeYears(tables []*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, ErrNoSharedStations
	}

	shared := make(map[string]int, len(tables[0].Columns))
	for _, t := range tables {
		for _, col := range t.Columns {
			shared[col.Code]++
		}
	}

	var columns []Column
	for _, col := range tables[0].Columns {
		if shared[col.Code] == len(tables) {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return nil, ErrNoSharedStations
	}

	out := &Table{Columns: columns}
	for _, t := range tables {
		index := make([]int, len(columns))
		for k, col := range columns {
			index[k] = t.ColumnIndex(col.Code)
		}
		for i, ts := range t.Times {
			row := make([]string, len(columns))
			for k, j := range index {
				row[k] = t.Rows[i][j]
			}
			out.Times = append(out.Times, ts)
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}
