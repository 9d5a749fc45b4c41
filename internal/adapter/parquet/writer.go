package parquet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	pq "github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/pm25-etl/internal/domain"
)

// Row is the Parquet schema of one long-format observation. PM25 is null when the
// source cell did not parse as a number.
type Row struct {
	DatetimeMs int64    `parquet:"datetime_ms"`
	City       string   `parquet:"city"`
	Station    string   `parquet:"station"`
	PM25       *float64 `parquet:"pm25,optional"`
}

// Writer exports long-format observations to a Parquet file.
// It implements pipeline.ObservationWriter.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a Parquet writer targeting path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// WriteObservations replaces the file at the configured path with obs.
func (w *Writer) WriteObservations(_ context.Context, obs []domain.Observation) error {
	if err := WriteFile(w.path, obs); err != nil {
		return err
	}
	w.logger.Info("parquet written", "path", w.path, "rows", len(obs))
	return nil
}

// ToRows maps observations to Parquet rows.
func ToRows(obs []domain.Observation) []Row {
	rows := make([]Row, len(obs))
	for i, o := range obs {
		rows[i] = Row{
			DatetimeMs: o.Time.UnixMilli(),
			City:       o.City,
			Station:    o.Station,
		}
		if !o.Missing {
			v := o.PM25
			rows[i].PM25 = &v
		}
	}
	return rows
}

// WriteFile writes obs to path through a temporary file that is renamed on success.
func WriteFile(path string, obs []domain.Observation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parquet directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create parquet: %w", err)
	}

	w := pq.NewGenericWriter[Row](f)
	if _, err := w.Write(ToRows(obs)); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close parquet file: %w", err)
	}
	return os.Rename(tmp, path)
}
