package domain

import (
	"math"
	"sort"
	"time"
)

// MonthlyMean is the mean concentration of one station over one calendar month.
type MonthlyMean struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	City    string  `json:"city"`
	Station string  `json:"station"`
	Mean    float64 `json:"mean_pm25"`
}

// CityMonthlyMean is the mean of a city's station monthly means.
type CityMonthlyMean struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	City  string  `json:"city"`
	Mean  float64 `json:"mean_pm25"`
}

// DailyMean is the mean concentration of one station over one calendar day.
// Date is the day at 00:00 UTC.
type DailyMean struct {
	Year    int       `json:"year"`
	Date    time.Time `json:"date"`
	City    string    `json:"city"`
	Station string    `json:"station"`
	Mean    float64   `json:"daily_mean_pm25"`
}

// ExceedanceCount is the number of distinct days a station's daily mean was above
// the threshold in one year.
type ExceedanceCount struct {
	Year    int    `json:"year"`
	Station string `json:"station"`
	Days    int    `json:"days"`
}

type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) add(v float64) {
	a.sum += v
	a.n++
}

func (a *meanAcc) mean() float64 {
	if a.n == 0 {
		return math.NaN()
	}
	return a.sum / float64(a.n)
}

// civilDate truncates a timestamp to its calendar day.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthlyMeans averages non-missing observations per (year, month, city, station).
// Groups with no usable reading are omitted. Output is sorted by year, month,
// city and station.
func MonthlyMeans(obs []Observation) []MonthlyMean {
	type key struct {
		year, month   int
		city, station string
	}
	groups := make(map[key]*meanAcc)
	for _, o := range obs {
		if o.Missing {
			continue
		}
		k := key{year: o.Time.Year(), month: int(o.Time.Month()), city: o.City, station: o.Station}
		acc, ok := groups[k]
		if !ok {
			acc = &meanAcc{}
			groups[k] = acc
		}
		acc.add(o.PM25)
	}

	out := make([]MonthlyMean, 0, len(groups))
	for k, acc := range groups {
		out = append(out, MonthlyMean{Year: k.year, Month: k.month, City: k.city, Station: k.station, Mean: acc.mean()})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.City != b.City {
			return a.City < b.City
		}
		return a.Station < b.Station
	})
	return out
}

// CityMonthlyMeans averages station monthly means per (year, month, city), so every
// station weighs the same regardless of how many hours it reported.
func CityMonthlyMeans(monthly []MonthlyMean) []CityMonthlyMean {
	type key struct {
		year, month int
		city        string
	}
	groups := make(map[key]*meanAcc)
	for _, m := range monthly {
		if math.IsNaN(m.Mean) {
			continue
		}
		k := key{year: m.Year, month: m.Month, city: m.City}
		acc, ok := groups[k]
		if !ok {
			acc = &meanAcc{}
			groups[k] = acc
		}
		acc.add(m.Mean)
	}

	out := make([]CityMonthlyMean, 0, len(groups))
	for k, acc := range groups {
		out = append(out, CityMonthlyMean{Year: k.year, Month: k.month, City: k.city, Mean: acc.mean()})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.City < b.City
	})
	return out
}

// DailyMeans averages non-missing observations per (year, date, city, station).
func DailyMeans(obs []Observation) []DailyMean {
	type key struct {
		date          time.Time
		city, station string
	}
	groups := make(map[key]*meanAcc)
	for _, o := range obs {
		if o.Missing {
			continue
		}
		k := key{date: civilDate(o.Time), city: o.City, station: o.Station}
		acc, ok := groups[k]
		if !ok {
			acc = &meanAcc{}
			groups[k] = acc
		}
		acc.add(o.PM25)
	}

	out := make([]DailyMean, 0, len(groups))
	for k, acc := range groups {
		out = append(out, DailyMean{Year: k.date.Year(), Date: k.date, City: k.city, Station: k.station, Mean: acc.mean()})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.City != b.City {
			return a.City < b.City
		}
		return a.Station < b.Station
	})
	return out
}

// CountExceedances counts, per (year, station), the distinct days whose daily mean
// is strictly above threshold. Stations that never exceeded are left out. Output
// is sorted by year then station.
func CountExceedances(daily []DailyMean, threshold float64) []ExceedanceCount {
	type key struct {
		year    int
		station string
	}
	days := make(map[key]map[time.Time]struct{})
	for _, d := range daily {
		if d.Mean <= threshold || math.IsNaN(d.Mean) {
			continue
		}
		k := key{year: d.Year, station: d.Station}
		set, ok := days[k]
		if !ok {
			set = make(map[time.Time]struct{})
			days[k] = set
		}
		set[d.Date] = struct{}{}
	}

	out := make([]ExceedanceCount, 0, len(days))
	for k, set := range days {
		out = append(out, ExceedanceCount{Year: k.year, Station: k.station, Days: len(set)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Station < out[j].Station
	})
	return out
}

// TopBottomStations returns, for one year, the n stations with the most exceedance
// days followed by the n with the fewest. Only stations present in counts are
// ranked, so the bottom group holds the least frequent exceeders. Ties keep station-code order. With fewer
// than 2n stations the two groups overlap.
func TopBottomStations(counts []ExceedanceCount, year, n int) []ExceedanceCount {
	var inYear []ExceedanceCount
	for _, c := range counts {
		if c.Year == year {
			inYear = append(inYear, c)
		}
	}
	sort.SliceStable(inYear, func(i, j int) bool { return inYear[i].Station < inYear[j].Station })

	top := append([]ExceedanceCount(nil), inYear...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Days > top[j].Days })
	bottom := append([]ExceedanceCount(nil), inYear...)
	sort.SliceStable(bottom, func(i, j int) bool { return bottom[i].Days < bottom[j].Days })

	if n > len(inYear) {
		n = len(inYear)
	}
	if n < 0 {
		n = 0
	}
	out := make([]ExceedanceCount, 0, 2*n)
	out = append(out, top[:n]...)
	return append(out, bottom[:n]...)
}

// MonthlyPivot is a year x month matrix of city means, the input of trend lines
// and heatmaps. Months without data hold NaN.
type MonthlyPivot struct {
	City   string
	Years  []int
	Values [][12]float64
}

// PivotCityMonthly arranges city monthly means into one matrix per city, for the
// requested years in the given order. Cities are sorted by name.
func PivotCityMonthly(means []CityMonthlyMean, years []int) []MonthlyPivot {
	row := make(map[int]int, len(years))
	for i, y := range years {
		row[y] = i
	}

	pivots := make(map[string]*MonthlyPivot)
	for _, m := range means {
		i, ok := row[m.Year]
		if !ok || m.Month < 1 || m.Month > 12 {
			continue
		}
		p, ok := pivots[m.City]
		if !ok {
			p = &MonthlyPivot{City: m.City, Years: append([]int(nil), years...), Values: make([][12]float64, len(years))}
			for r := range p.Values {
				for c := range p.Values[r] {
					p.Values[r][c] = math.NaN()
				}
			}
			pivots[m.City] = p
		}
		p.Values[i][m.Month-1] = m.Mean
	}

	out := make([]MonthlyPivot, 0, len(pivots))
	for _, p := range pivots {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}
