package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/pm25-etl/internal/config"
	"github.com/couchcryptid/pm25-etl/internal/domain"
	"github.com/couchcryptid/pm25-etl/internal/observability"
	"github.com/couchcryptid/pm25-etl/internal/pipeline"
)

// --- mocks ---

type mockArchives struct {
	grids map[string]domain.Grid
	errs  map[string]error
	clock *clockwork.FakeClock
	calls []string
}

func (m *mockArchives) FetchArchive(_ context.Context, archiveID, filename, _ string) (domain.Grid, error) {
	m.calls = append(m.calls, archiveID+"/"+filename)
	if m.clock != nil {
		m.clock.Advance(2 * time.Second)
	}
	if err := m.errs[archiveID]; err != nil {
		return nil, err
	}
	return m.grids[archiveID], nil
}

type mockMetadata struct {
	grid domain.Grid
	err  error
	id   string
}

func (m *mockMetadata) FetchMetadata(_ context.Context, id string) (domain.Grid, error) {
	m.id = id
	return m.grid, m.err
}

type mockSnapshot struct {
	table *domain.Table
	err   error
}

func (m *mockSnapshot) WriteSnapshot(_ context.Context, t *domain.Table) error {
	m.table = t
	return m.err
}

// --- fixtures ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ts(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
}

var testCatalog = &config.Catalog{
	MetadataID: "meta",
	Years: map[int]config.Archive{
		2019: {ArchiveID: "a19", File: "2019_PM25_1g.xlsx", HeaderRow: 0, DropRows: []int{0, 1}},
		2020: {ArchiveID: "a20", File: "2020_PM25_1g.xlsx", HeaderRow: 0, DropRows: []int{0}},
	},
}

var metadataGrid = domain.Grid{
	{"Nr", "Kod stacji", "Stary Kod stacji", "Miejscowość"},
	{"1", "DsWrocAlWisn", "DsWrocWisA", "Wrocław"},
	{"2", "SlKatoKossut", "", "Katowice"},
}

var grid2019 = domain.Grid{
	{"Kod stacji", "DsWrocWisA", "MpKrakAlKras", "SlKatoKossut"},
	{"Wskaźnik", "PM2.5", "PM2.5", "PM2.5"},
	{"2019-01-01 01:00:00", "10", "20", "30"},
	{"2019-01-02 00:00:00", "12", "22", "32"},
	{"2020-01-01 00:00:00", "14", "24", "34"},
}

var grid2020 = domain.Grid{
	{"Kod stacji", "MpKrakAlKras", "DsWrocAlWisn"},
	{"2020-01-01 00:00:00", "2", "1"},
	{"2020-01-01 01:00:00", "4", "3"},
}

type fixture struct {
	archives *mockArchives
	metadata *mockMetadata
	snapshot *mockSnapshot
	metrics  *observability.Metrics
	clock    *clockwork.FakeClock
	pipeline *pipeline.Pipeline
}

func newFixture(years ...int) *fixture {
	clock := clockwork.NewFakeClockAt(ts(2025, time.March, 1, 12, 0, 0))
	f := &fixture{
		archives: &mockArchives{
			grids: map[string]domain.Grid{"a19": grid2019, "a20": grid2020},
			errs:  map[string]error{},
			clock: clock,
		},
		metadata: &mockMetadata{grid: metadataGrid},
		snapshot: &mockSnapshot{},
		metrics:  observability.NewMetricsForTesting(),
		clock:    clock,
	}
	f.pipeline = pipeline.New(f.archives, f.metadata, f.snapshot, testCatalog, years, discardLogger(), f.metrics)
	f.pipeline.SetClock(clock)
	return f
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	f := newFixture(2019, 2020)

	res, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	want := &domain.Table{
		Times: []time.Time{
			ts(2019, time.January, 1, 1, 0, 0),
			ts(2019, time.January, 1, 23, 59, 59),
			ts(2019, time.December, 31, 23, 59, 59),
			ts(2020, time.January, 1, 1, 0, 0),
		},
		Columns: []domain.Column{
			{City: "Wrocław", Code: "DsWrocAlWisn"},
			{City: domain.UnknownCity, Code: "MpKrakAlKras"},
		},
		Rows: [][]string{{"10", "20"}, {"12", "22"}, {"14", "24"}, {"3", "4"}},
	}
	if diff := cmp.Diff(want, res.Table); diff != "" {
		t.Errorf("merged table mismatch (-want +got):\n%s", diff)
	}
	assert.Same(t, res.Table, f.snapshot.table)
	assert.Equal(t, []string{"MpKrakAlKras"}, res.UnknownCities)
	assert.Equal(t, "meta", f.metadata.id)
	assert.Equal(t, []string{"a19/2019_PM25_1g.xlsx", "a20/2020_PM25_1g.xlsx"}, f.archives.calls)

	require.Len(t, res.Years, 2)
	assert.Equal(t, pipeline.YearStats{
		Year:              2019,
		Rows:              3,
		MidnightCorrected: 2,
		Renames:           []domain.Rename{{From: "DsWrocWisA", To: "DsWrocAlWisn"}},
	}, res.Years[0])
	assert.Equal(t, pipeline.YearStats{Year: 2020, Rows: 1, MidnightCorrected: 1, OutOfYear: 1}, res.Years[1])

	assert.Equal(t, 4*time.Second, res.Duration)
	assert.NoError(t, f.pipeline.CheckReadiness(context.Background()))

	assert.Equal(t, pipeline.Status{
		Completed:       true,
		FinishedAt:      ts(2025, time.March, 1, 12, 0, 4),
		DurationSeconds: 4,
		Years:           []int{2019, 2020},
		Rows:            4,
		Stations:        2,
		UnknownCities:   []string{"MpKrakAlKras"},
	}, f.pipeline.Status())
}

func TestPipeline_Run_Metrics(t *testing.T) {
	f := newFixture(2019, 2020)
	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	m := f.metrics
	assert.InDelta(t, 3, testutil.ToFloat64(m.RowsCleaned.WithLabelValues("2019")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RowsCleaned.WithLabelValues("2020")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.MidnightCorrected.WithLabelValues("2019")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RowsOutOfYear.WithLabelValues("2020")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StationsRenamed.WithLabelValues("2019")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.StationsMerged), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StationsUnknownCity), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.PipelineRunning), 0)
}

func TestPipeline_Run_SingleYearKeepsAllStations(t *testing.T) {
	f := newFixture(2019)
	res, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DsWrocAlWisn", "MpKrakAlKras", "SlKatoKossut"}, res.Table.Codes())
	assert.Equal(t, "Katowice", res.Table.Columns[2].City)
}

func TestPipeline_Run_Errors(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name     string
		years    []int
		setup    func(f *fixture)
		is       error
		contains string
	}{
		{
			name:     "metadata fetch",
			years:    []int{2019},
			setup:    func(f *fixture) { f.metadata.err = errBoom },
			is:       errBoom,
			contains: "fetch metadata",
		},
		{
			name:     "metadata parse",
			years:    []int{2019},
			setup:    func(f *fixture) { f.metadata.grid = domain.Grid{{"Nr"}} },
			contains: "parse metadata",
		},
		{
			name:     "archive fetch",
			years:    []int{2019, 2020},
			setup:    func(f *fixture) { f.archives.errs["a20"] = errBoom },
			is:       errBoom,
			contains: "year 2020: fetch",
		},
		{
			name:  "bad timestamp",
			years: []int{2019},
			setup: func(f *fixture) {
				f.archives.grids["a19"] = domain.Grid{{"Kod stacji", "A"}, {"x"}, {"soon", "1"}}
			},
			contains: "year 2019: clean: row 2",
		},
		{
			name:     "year missing from catalog",
			years:    []int{2031},
			contains: "year 2031: not in catalog",
		},
		{
			name:  "no shared stations",
			years: []int{2019, 2020},
			setup: func(f *fixture) {
				f.archives.grids["a20"] = domain.Grid{{"Kod stacji", "PmGdaLeczkow"}, {"2020-02-01 01:00:00", "5"}}
			},
			is:       domain.ErrNoSharedStations,
			contains: "merge years",
		},
		{
			name:     "snapshot",
			years:    []int{2019},
			setup:    func(f *fixture) { f.snapshot.err = errBoom },
			is:       errBoom,
			contains: "write snapshot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.years...)
			if tt.setup != nil {
				tt.setup(f)
			}

			res, err := f.pipeline.Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, res)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			assert.Contains(t, err.Error(), tt.contains)
			assert.Error(t, f.pipeline.CheckReadiness(context.Background()))
			assert.False(t, f.pipeline.Status().Completed)
		})
	}
}

func TestPipeline_CheckReadiness_BeforeRun(t *testing.T) {
	f := newFixture(2019)
	err := f.pipeline.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not completed")
	assert.Equal(t, pipeline.Status{Years: []int{2019}}, f.pipeline.Status())
}
