package pipeline

import (
	"fmt"

	"github.com/couchcryptid/pm25-etl/internal/domain"
)

// AnalysisOptions parameterizes Analyze.
type AnalysisOptions struct {
	Threshold float64
	TopN      int
	// Regions maps station-code prefixes to voivodeships; nil selects
	// domain.DefaultVoivodeships.
	Regions map[string]string
}

// Analyze reshapes a merged wide table to long form and derives every report
// aggregate. years orders the per-year rankings and pivot rows.
func Analyze(t *domain.Table, years []int, opts AnalysisOptions) (*domain.Report, error) {
	regions := opts.Regions
	if regions == nil {
		regions = domain.DefaultVoivodeships
	}

	obs := domain.ToLong(t)
	monthly := domain.MonthlyMeans(obs)
	cityMonthly := domain.CityMonthlyMeans(monthly)
	daily := domain.DailyMeans(obs)
	counts := domain.CountExceedances(daily, opts.Threshold)

	voivodeships, err := domain.VoivodeshipExceedances(obs, regions, opts.Threshold)
	if err != nil {
		return nil, fmt.Errorf("voivodeship exceedances: %w", err)
	}

	topBottom := make(map[int][]domain.ExceedanceCount, len(years))
	for _, y := range years {
		if ranked := domain.TopBottomStations(counts, y, opts.TopN); len(ranked) > 0 {
			topBottom[y] = ranked
		}
	}

	return &domain.Report{
		Threshold:    opts.Threshold,
		Years:        append([]int(nil), years...),
		Observations: obs,
		Monthly:      monthly,
		CityMonthly:  cityMonthly,
		Daily:        daily,
		Exceedances:  counts,
		TopBottom:    topBottom,
		Voivodeships: voivodeships,
		Pivots:       domain.PivotCityMonthly(cityMonthly, years),
	}, nil
}
