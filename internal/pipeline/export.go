package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/pm25-etl/internal/domain"
	"github.com/couchcryptid/pm25-etl/internal/observability"
)

// ReportWriter persists the aggregate tables of a report.
type ReportWriter interface {
	WriteReport(ctx context.Context, r *domain.Report) error
}

// ObservationWriter persists the long-format observations.
type ObservationWriter interface {
	WriteObservations(ctx context.Context, obs []domain.Observation) error
}

// ExceedancePublisher sends exceedance counts downstream.
type ExceedancePublisher interface {
	PublishExceedances(ctx context.Context, counts []domain.ExceedanceCount) error
}

// Sinks receive a report. Nil sinks are skipped.
type Sinks struct {
	Report       ReportWriter
	Observations ObservationWriter
	Exceedances  ExceedancePublisher
}

// Export hands r to every configured sink in order and stops at the first error.
func Export(ctx context.Context, r *domain.Report, sinks Sinks, logger *slog.Logger, metrics *observability.Metrics) error {
	metrics.Observations.Set(float64(len(r.Observations)))
	metrics.MissingObservations.Set(float64(r.Missing()))

	if sinks.Report != nil {
		if err := sinks.Report.WriteReport(ctx, r); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if sinks.Observations != nil {
		if err := sinks.Observations.WriteObservations(ctx, r.Observations); err != nil {
			return fmt.Errorf("write observations: %w", err)
		}
	}
	if sinks.Exceedances != nil {
		if err := sinks.Exceedances.PublishExceedances(ctx, r.Exceedances); err != nil {
			return fmt.Errorf("publish exceedances: %w", err)
		}
		metrics.ExceedancesPublished.Add(float64(len(r.Exceedances)))
	}

	logger.Info("report exported",
		"observations", len(r.Observations),
		"missing", r.Missing(),
		"exceedance_rows", len(r.Exceedances),
		"voivodeships", len(r.Voivodeships),
	)
	return nil
}
