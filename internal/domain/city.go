package domain

// CityIndex maps station codes to city names.
type CityIndex map[string]string

// NewCityIndex builds the station -> city lookup from metadata. The first row for
// a station code wins.
func NewCityIndex(meta *Metadata) CityIndex {
	idx := make(CityIndex, len(meta.Stations))
	for _, st := range meta.Stations {
		if _, dup := idx[st.Code]; dup {
			continue
		}
		idx[st.Code] = st.City
	}
	return idx
}

// Lookup returns the city for a station code and whether the code is known.
// A known station with a blank city cell is reported as unknown.
func (idx CityIndex) Lookup(code string) (string, bool) {
	city, ok := idx[code]
	if !ok || city == "" {
		return "", false
	}
	return city, true
}

// AnnotateCities returns a copy of t whose columns carry their station's city.
// Stations missing from the metadata are labeled [UnknownCity]; their codes are
// returned so the caller can report them.
func AnnotateCities(t *Table, meta *Metadata) (*Table, []string) {
	idx := NewCityIndex(meta)
	out := t.Clone()
	var unknown []string
	for j, col := range out.Columns {
		city, ok := idx.Lookup(col.Code)
		if !ok {
			city = UnknownCity
			unknown = append(unknown, col.Code)
		}
		out.Columns[j].City = city
	}
	return out, unknown
}
