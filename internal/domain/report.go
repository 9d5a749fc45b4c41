package domain

// Report bundles every aggregate derived from a merged table.
type Report struct {
	Threshold    float64
	Years        []int
	Observations []Observation
	Monthly      []MonthlyMean
	CityMonthly  []CityMonthlyMean
	Daily        []DailyMean
	Exceedances  []ExceedanceCount
	// TopBottom holds, per year, the stations with the most then the fewest
	// exceedance days.
	TopBottom    map[int][]ExceedanceCount
	Voivodeships []VoivodeshipExceedance
	Pivots       []MonthlyPivot
}

// Missing counts observations whose value did not parse.
func (r *Report) Missing() int {
	n := 0
	for i := range r.Observations {
		if r.Observations[i].Missing {
			n++
		}
	}
	return n
}
