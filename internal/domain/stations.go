package domain

// Rename records a station column rewritten from an old code to its current one.
// Merged is set when the current code was already present and the two columns
// were folded together.
type Rename struct {
	From   string
	To     string
	Merged bool
}

// StationCodeMapping builds the old-code -> current-code mapping from metadata.
// A later metadata row wins when two rows claim the same old code.
func StationCodeMapping(meta *Metadata) map[string]string {
	mapping := make(map[string]string)
	for _, st := range meta.Stations {
		for _, old := range st.OldCodes {
			if old == st.Code {
				continue
			}
			mapping[old] = st.Code
		}
	}
	return mapping
}

// HarmonizeStations returns a copy of t with station columns renamed through
// mapping. Codes absent from the mapping are kept. When several columns resolve to
// the same current code they are merged into the first one's position: each row
// keeps the first non-blank value in column order.
func HarmonizeStations(t *Table, mapping map[string]string) (*Table, []Rename) {
	out := &Table{
		Times: append(t.Times[:0:0], t.Times...),
		Rows:  make([][]string, len(t.Rows)),
	}
	for i := range out.Rows {
		out.Rows[i] = make([]string, 0, len(t.Columns))
	}

	var renames []Rename
	position := make(map[string]int, len(t.Columns))
	for j, col := range t.Columns {
		code := col.Code
		if current, ok := mapping[code]; ok {
			code = current
		}

		if k, seen := position[code]; seen {
			for i, row := range t.Rows {
				if out.Rows[i][k] == "" {
					out.Rows[i][k] = row[j]
				}
			}
			renames = append(renames, Rename{From: col.Code, To: code, Merged: true})
			continue
		}

		if code != col.Code {
			renames = append(renames, Rename{From: col.Code, To: code})
		}
		position[code] = len(out.Columns)
		out.Columns = append(out.Columns, Column{City: col.City, Code: code})
		for i, row := range t.Rows {
			out.Rows[i] = append(out.Rows[i], row[j])
		}
	}
	return out, renames
}
