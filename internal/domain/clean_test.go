package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sheet2019 mimics the 2019 layout: station codes on row 0, five preamble rows.
func sheet2019() Grid {
	return Grid{
		{"Kod stacji", "DsWrocAlWisn", "MzWarAlNiepo"},
		{"Wskaźnik", "PM2.5", "PM2.5"},
		{"Czas uśredniania", "1g", "1g"},
		{"Jednostka", "ug/m3", "ug/m3"},
		{"Kod stanowiska", "DsWrocAlWisn-PM2.5-1g", "MzWarAlNiepo-PM2.5-1g"},
		{"2019-01-01 01:00:00", "12,5", "30"},
		{"2019-01-01 02:00:00", "", "28.25"},
		{"2019-01-02 00:00:00", "9", "brak"},
	}
}

func TestClean(t *testing.T) {
	table, err := Clean(sheet2019(), 0, []int{0, 1, 2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, []string{"DsWrocAlWisn", "MzWarAlNiepo"}, table.Codes())
	require.Equal(t, 3, table.Len())
	assert.Equal(t, time.Date(2019, 1, 1, 1, 0, 0, 0, time.UTC), table.Times[0])
	assert.Equal(t, time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC), table.Times[2])
	assert.Equal(t, []string{"12,5", "30"}, table.Rows[0])
	assert.Equal(t, []string{"", "28.25"}, table.Rows[1])
	assert.Equal(t, []string{"9", "brak"}, table.Rows[2])
}

func TestClean_HeaderOnSecondRow(t *testing.T) {
	grid := Grid{
		{"Nr", "1", "2"},
		{"Kod stacji", "A", "B"},
		{"Jednostka", "ug/m3", "ug/m3"},
		{"45292.041666666664", "1", "2"},
	}
	table, err := Clean(grid, 1, []int{0, 1, 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, table.Codes())
	require.Equal(t, 1, table.Len())
	assert.Equal(t, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), table.Times[0])
}

func TestClean_RaggedRowsArePadded(t *testing.T) {
	grid := Grid{
		{"Kod stacji", "A", "B", "C"},
		{"2019-03-01 10:00", "5"},
	}
	table, err := Clean(grid, 0, []int{0})
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "", ""}, table.Rows[0])
}

func TestClean_SkipsBlankTimestamps(t *testing.T) {
	grid := Grid{
		{"Kod stacji", "A"},
		{"2019-03-01 10:00", "5"},
		{"", ""},
		{"  ", "7"},
	}
	table, err := Clean(grid, 0, []int{0})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestClean_Errors(t *testing.T) {
	tests := []struct {
		name      string
		grid      Grid
		headerRow int
		dropRows  []int
		contains  string
	}{
		{
			name:      "header row out of range",
			grid:      Grid{{"Kod stacji", "A"}},
			headerRow: 3,
			contains:  "out of range",
		},
		{
			name:      "duplicate station",
			grid:      Grid{{"Kod stacji", "A", "A"}},
			headerRow: 0,
			dropRows:  []int{0},
			contains:  `station "A" appears in columns 1 and 2`,
		},
		{
			name:      "blank station label",
			grid:      Grid{{"Kod stacji", "A", "", "B"}},
			headerRow: 0,
			dropRows:  []int{0},
			contains:  "blank station label",
		},
		{
			name:      "no station columns",
			grid:      Grid{{"Kod stacji"}},
			headerRow: 0,
			contains:  "no station columns",
		},
		{
			name:      "header row not dropped",
			grid:      Grid{{"Kod stacji", "A"}, {"2019-01-01 01:00", "1"}},
			headerRow: 0,
			contains:  "row 0",
		},
		{
			name:      "unparseable timestamp",
			grid:      Grid{{"Kod stacji", "A"}, {"yesterday", "1"}},
			headerRow: 0,
			dropRows:  []int{0},
			contains:  `"yesterday"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Clean(tt.grid, tt.headerRow, tt.dropRows)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected time.Time
	}{
		{"iso with seconds", "2019-05-04 13:00:00", time.Date(2019, 5, 4, 13, 0, 0, 0, time.UTC)},
		{"iso without seconds", "2019-05-04 13:00", time.Date(2019, 5, 4, 13, 0, 0, 0, time.UTC)},
		{"polish dotted", "04.05.2019 13:00", time.Date(2019, 5, 4, 13, 0, 0, 0, time.UTC)},
		{"excel serial midnight", "43831", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"excel serial rounded", "43831.041666666664", time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC)},
		{"surrounding space", "  2019-05-04 13:00:00 ", time.Date(2019, 5, 4, 13, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := ParseTimestamp("n/a")
	require.Error(t, err)
}

func TestParseTimestamp_RejectsImplausibleSerials(t *testing.T) {
	for _, in := range []string{"2019", "0", "-1", "1e9", "NaN"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTimestamp(in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Excel date range")
		})
	}

	got, err := ParseTimestamp("25569")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2019-12-31 23:59:59", FormatTimestamp(time.Date(2019, 12, 31, 23, 59, 59, 0, time.UTC)))
}
