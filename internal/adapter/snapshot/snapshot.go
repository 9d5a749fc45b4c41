package snapshot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/pm25-etl/internal/domain"
)

// FileWriter persists merged tables as snapshot CSV files.
// It implements pipeline.SnapshotWriter.
type FileWriter struct {
	path   string
	logger *slog.Logger
}

// NewFileWriter creates a snapshot writer targeting path.
func NewFileWriter(path string, logger *slog.Logger) *FileWriter {
	return &FileWriter{path: path, logger: logger}
}

// WriteSnapshot writes t to the configured path, creating parent directories.
func (w *FileWriter) WriteSnapshot(_ context.Context, t *domain.Table) error {
	if err := WriteFile(w.path, t); err != nil {
		return err
	}
	w.logger.Info("snapshot written", "path", w.path, "rows", t.Len(), "stations", len(t.Columns))
	return nil
}

// Path returns the snapshot location.
func (w *FileWriter) Path() string { return w.path }

// WriteFile writes t as a snapshot CSV at path.
func WriteFile(path string, t *domain.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes t with two header rows: "datetime" followed by the cities, then
// an empty cell followed by the station codes. Each data row starts with the
// timestamp in "YYYY-MM-DD HH:MM:SS" form. There is no index column.
func Write(w io.Writer, t *domain.Table) error {
	cw := csv.NewWriter(w)

	cities := make([]string, 0, len(t.Columns)+1)
	codes := make([]string, 0, len(t.Columns)+1)
	cities = append(cities, domain.DatetimeLabel)
	codes = append(codes, "")
	for _, c := range t.Columns {
		cities = append(cities, c.City)
		codes = append(codes, c.Code)
	}
	if err := cw.Write(cities); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	if err := cw.Write(codes); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	record := make([]string, len(t.Columns)+1)
	for i, ts := range t.Times {
		record[0] = domain.FormatTimestamp(ts)
		copy(record[1:], t.Rows[i])
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write snapshot row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadFile loads a snapshot CSV from path.
func ReadFile(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a snapshot produced by Write.
func Read(r io.Reader) (*domain.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	cities, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	codes, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	if len(cities) == 0 || cities[0] != domain.DatetimeLabel {
		return nil, fmt.Errorf("read snapshot: first header cell must be %q", domain.DatetimeLabel)
	}
	if len(codes) != len(cities) {
		return nil, fmt.Errorf("read snapshot: header rows differ in width (%d vs %d)", len(cities), len(codes))
	}

	t := &domain.Table{Columns: make([]domain.Column, 0, len(cities)-1)}
	for j := 1; j < len(cities); j++ {
		t.Columns = append(t.Columns, domain.Column{City: cities[j], Code: codes[j]})
	}

	for line := 3; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot line %d: %w", line, err)
		}
		ts, err := domain.ParseTimestamp(record[0])
		if err != nil {
			return nil, fmt.Errorf("read snapshot line %d: %w", line, err)
		}
		if len(record)-1 > len(t.Columns) {
			return nil, fmt.Errorf("read snapshot line %d: %d values for %d stations", line, len(record)-1, len(t.Columns))
		}
		row := make([]string, len(t.Columns))
		copy(row, record[1:])
		t.Times = append(t.Times, ts)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
