package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/pm25-etl/internal/config"
	"github.com/couchcryptid/pm25-etl/internal/domain"
	"github.com/couchcryptid/pm25-etl/internal/observability"
)

// ArchiveFetcher downloads one year's measurement sheet as a raw grid.
type ArchiveFetcher interface {
	FetchArchive(ctx context.Context, archiveID, filename, sheet string) (domain.Grid, error)
}

// MetadataFetcher downloads the station metadata sheet as a raw grid.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, id string) (domain.Grid, error)
}

// SnapshotWriter persists the merged wide table.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, t *domain.Table) error
}

// YearStats summarizes how one year's sheet was processed.
type YearStats struct {
	Year              int
	Rows              int
	MidnightCorrected int
	OutOfYear         int
	Renames           []domain.Rename
}

// Result is the outcome of a successful run.
type Result struct {
	Table         *domain.Table
	Metadata      *domain.Metadata
	Years         []YearStats
	UnknownCities []string
	Duration      time.Duration
}

// Status summarizes the last successful run for the ops endpoint.
type Status struct {
	Completed       bool      `json:"completed"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Years           []int     `json:"years"`
	Rows            int       `json:"rows"`
	Stations        int       `json:"stations"`
	UnknownCities   []string  `json:"unknown_cities"`
}

// Pipeline runs fetch, clean, harmonize, merge, annotate and persist over the
// configured years.
type Pipeline struct {
	archives ArchiveFetcher
	metadata MetadataFetcher
	snapshot SnapshotWriter
	catalog  *config.Catalog
	years    []int
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	ready    atomic.Bool
	last     atomic.Pointer[Status]
}

// New creates a Pipeline with the given stages and observability.
func New(a ArchiveFetcher, m MetadataFetcher, s SnapshotWriter, catalog *config.Catalog, years []int, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		archives: a,
		metadata: m,
		snapshot: s,
		catalog:  catalog,
		years:    years,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
	}
}

// SetClock swaps the time source used for run timing. Pass nil for real time.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	p.clock = c
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Status returns the summary of the last successful run. Completed is false
// until one has finished.
func (p *Pipeline) Status() Status {
	if st := p.last.Load(); st != nil {
		return *st
	}
	return Status{Years: p.years}
}

// Run executes one full pass and halts on the first error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := p.clock.Now()
	p.logger.Info("pipeline started", "years", p.years)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	meta, err := p.loadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	mapping := domain.StationCodeMapping(meta)

	res := &Result{Metadata: meta}
	tables := make([]*domain.Table, 0, len(p.years))
	for _, year := range p.years {
		t, stats, err := p.processYear(ctx, year, mapping)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
		res.Years = append(res.Years, stats)
	}

	merged, err := domain.MergeYears(tables)
	if err != nil {
		return nil, fmt.Errorf("merge years: %w", err)
	}
	p.metrics.StationsMerged.Set(float64(len(merged.Columns)))
	p.logger.Info("years merged", "rows", merged.Len(), "stations", len(merged.Columns))

	annotated, unknown := domain.AnnotateCities(merged, meta)
	p.metrics.StationsUnknownCity.Set(float64(len(unknown)))
	if len(unknown) > 0 {
		p.logger.Warn("stations without a metadata city", "count", len(unknown), "codes", unknown)
	}
	res.Table = annotated
	res.UnknownCities = unknown

	if err := p.snapshot.WriteSnapshot(ctx, annotated); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	res.Duration = p.clock.Since(start)
	p.metrics.PipelineDuration.Observe(res.Duration.Seconds())
	p.last.Store(&Status{
		Completed:       true,
		FinishedAt:      p.clock.Now(),
		DurationSeconds: res.Duration.Seconds(),
		Years:           p.years,
		Rows:            annotated.Len(),
		Stations:        len(annotated.Columns),
		UnknownCities:   unknown,
	})
	p.ready.Store(true)
	p.logger.Info("pipeline finished", "duration", res.Duration, "rows", annotated.Len(), "stations", len(annotated.Columns))
	return res, nil
}

func (p *Pipeline) loadMetadata(ctx context.Context) (*domain.Metadata, error) {
	grid, err := p.metadata.FetchMetadata(ctx, p.catalog.MetadataID)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	meta, err := domain.ParseMetadata(grid)
	if err != nil {
		return nil, err
	}
	p.logger.Info("metadata loaded", "stations", len(meta.Stations))
	return meta, nil
}

// processYear fetches and cleans one year's sheet, moves midnight readings back
// into the previous day, keeps only rows that belong to the year and renames old
// station codes.
func (p *Pipeline) processYear(ctx context.Context, year int, mapping map[string]string) (*domain.Table, YearStats, error) {
	stats := YearStats{Year: year}
	label := strconv.Itoa(year)

	a, ok := p.catalog.Years[year]
	if !ok {
		return nil, stats, fmt.Errorf("year %d: not in catalog", year)
	}

	grid, err := p.archives.FetchArchive(ctx, a.ArchiveID, a.File, a.Sheet)
	if err != nil {
		return nil, stats, fmt.Errorf("year %d: fetch: %w", year, err)
	}

	cleaned, err := domain.Clean(grid, a.HeaderRow, a.DropRows)
	if err != nil {
		return nil, stats, fmt.Errorf("year %d: %w", year, err)
	}

	corrected, moved := domain.CorrectMidnight(cleaned)
	inYear := domain.FilterYears(corrected, year)
	harmonized, renames := domain.HarmonizeStations(inYear, mapping)

	stats.Rows = harmonized.Len()
	stats.MidnightCorrected = moved
	stats.OutOfYear = corrected.Len() - inYear.Len()
	stats.Renames = renames

	p.metrics.RowsCleaned.WithLabelValues(label).Add(float64(stats.Rows))
	p.metrics.MidnightCorrected.WithLabelValues(label).Add(float64(moved))
	p.metrics.RowsOutOfYear.WithLabelValues(label).Add(float64(stats.OutOfYear))
	p.metrics.StationsRenamed.WithLabelValues(label).Add(float64(len(renames)))

	p.logger.Info("year processed",
		"year", year,
		"rows", stats.Rows,
		"stations", len(harmonized.Columns),
		"midnight_corrected", moved,
		"out_of_year", stats.OutOfYear,
		"renamed", len(renames),
	)
	for _, r := range renames {
		p.logger.Debug("station renamed", "year", year, "from", r.From, "to", r.To, "merged", r.Merged)
	}
	return harmonized, stats, nil
}
