package snapshot

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/couchcryptid/pm25-etl/internal/domain"
)

// Report file names under the report directory.
const (
	MonthlyMeansFile     = "monthly_means.csv"
	CityMonthlyMeansFile = "city_monthly_means.csv"
	DailyMeansFile       = "daily_means.csv"
	ExceedancesFile      = "exceedances.csv"
	VoivodeshipsFile     = "voivodeships.csv"
	CityPivotFile        = "city_monthly_pivot.csv"
)

// TopBottomFile names the top/bottom station ranking for a year.
func TopBottomFile(year int) string {
	return fmt.Sprintf("top_bottom_%d.csv", year)
}

// ReportWriter exports analysis results as CSV files in one directory.
// It implements pipeline.ReportWriter.
type ReportWriter struct {
	dir    string
	logger *slog.Logger
}

// NewReportWriter creates a report writer rooted at dir.
func NewReportWriter(dir string, logger *slog.Logger) *ReportWriter {
	return &ReportWriter{dir: dir, logger: logger}
}

// WriteReport writes every report table. Existing files are replaced.
func (w *ReportWriter) WriteReport(_ context.Context, r *domain.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	files := []struct {
		name    string
		header  []string
		records [][]string
	}{
		{MonthlyMeansFile, []string{"year", "month", "city", "station", "mean_pm25"}, monthlyRecords(r.Monthly)},
		{CityMonthlyMeansFile, []string{"year", "month", "city", "mean_pm25"}, cityMonthlyRecords(r.CityMonthly)},
		{DailyMeansFile, []string{"date", "city", "station", "daily_mean_pm25"}, dailyRecords(r.Daily)},
		{ExceedancesFile, []string{"year", "station", "days_above_threshold"}, exceedanceRecords(r.Exceedances)},
		{VoivodeshipsFile, []string{"voivodeship", "days_above_threshold"}, voivodeshipRecords(r.Voivodeships)},
		{CityPivotFile, pivotHeader(), pivotRecords(r.Pivots)},
	}

	years := make([]int, 0, len(r.TopBottom))
	for y := range r.TopBottom {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		files = append(files, struct {
			name    string
			header  []string
			records [][]string
		}{TopBottomFile(y), []string{"year", "station", "days_above_threshold"}, exceedanceRecords(r.TopBottom[y])})
	}

	for _, f := range files {
		if err := writeCSV(filepath.Join(w.dir, f.name), f.header, f.records); err != nil {
			return err
		}
	}
	w.logger.Info("report written", "dir", w.dir, "files", len(files))
	return nil
}

func writeCSV(path string, header []string, records [][]string) (err error) {
	name := filepath.Base(path)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", name, cerr)
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func monthlyRecords(means []domain.MonthlyMean) [][]string {
	out := make([][]string, len(means))
	for i, m := range means {
		out[i] = []string{strconv.Itoa(m.Year), strconv.Itoa(m.Month), m.City, m.Station, formatFloat(m.Mean)}
	}
	return out
}

func cityMonthlyRecords(means []domain.CityMonthlyMean) [][]string {
	out := make([][]string, len(means))
	for i, m := range means {
		out[i] = []string{strconv.Itoa(m.Year), strconv.Itoa(m.Month), m.City, formatFloat(m.Mean)}
	}
	return out
}

func dailyRecords(means []domain.DailyMean) [][]string {
	out := make([][]string, len(means))
	for i, m := range means {
		out[i] = []string{m.Date.Format("2006-01-02"), m.City, m.Station, formatFloat(m.Mean)}
	}
	return out
}

func exceedanceRecords(counts []domain.ExceedanceCount) [][]string {
	out := make([][]string, len(counts))
	for i, c := range counts {
		out[i] = []string{strconv.Itoa(c.Year), c.Station, strconv.Itoa(c.Days)}
	}
	return out
}

func voivodeshipRecords(counts []domain.VoivodeshipExceedance) [][]string {
	out := make([][]string, len(counts))
	for i, c := range counts {
		out[i] = []string{c.Voivodeship, strconv.Itoa(c.Days)}
	}
	return out
}

func pivotHeader() []string {
	h := []string{"city", "year"}
	for m := 1; m <= 12; m++ {
		h = append(h, strconv.Itoa(m))
	}
	return h
}

// pivotRecords flattens pivots to one row per (city, year); empty months are blank.
func pivotRecords(pivots []domain.MonthlyPivot) [][]string {
	var out [][]string
	for _, p := range pivots {
		for i, y := range p.Years {
			rec := make([]string, 0, 14)
			rec = append(rec, p.City, strconv.Itoa(y))
			for _, v := range p.Values[i] {
				rec = append(rec, formatFloat(v))
			}
			out = append(out, rec)
		}
	}
	return out
}
