// Command report recomputes the PM2.5 statistics from an existing snapshot CSV
// without downloading anything.
//
// Usage:
//
//	go run ./cmd/report \
//	  -snapshot data/pm25.csv \
//	  -out data/report \
//	  -threshold 15 -top 3
//
// Flag defaults come from the same environment variables as the ETL
// (OUTPUT_PATH, REPORT_DIR, PARQUET_PATH, PM25_THRESHOLD, TOP_N, PM25_YEARS).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/couchcryptid/pm25-etl/internal/adapter/parquet"
	"github.com/couchcryptid/pm25-etl/internal/adapter/snapshot"
	"github.com/couchcryptid/pm25-etl/internal/config"
	"github.com/couchcryptid/pm25-etl/internal/domain"
	"github.com/couchcryptid/pm25-etl/internal/observability"
	"github.com/couchcryptid/pm25-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	snapshotPath := flag.String("snapshot", cfg.OutputPath, "snapshot CSV written by the ETL")
	outDir := flag.String("out", cfg.ReportDir, "directory for report CSV files (empty to skip)")
	parquetPath := flag.String("parquet", cfg.ParquetPath, "optional long-format Parquet output")
	threshold := flag.Float64("threshold", cfg.Threshold, "daily mean PM2.5 threshold in µg/m³")
	topN := flag.Int("top", cfg.TopN, "stations listed at each end of the ranking")
	flag.Parse()

	if *topN <= 0 {
		fmt.Fprintln(os.Stderr, "-top must be positive")
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg)

	t, err := snapshot.ReadFile(*snapshotPath)
	if err != nil {
		logger.Error("read snapshot failed", "path", *snapshotPath, "error", err)
		os.Exit(1)
	}

	report, err := pipeline.Analyze(t, yearsOf(t), pipeline.AnalysisOptions{Threshold: *threshold, TopN: *topN})
	if err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	var sinks pipeline.Sinks
	if *outDir != "" {
		sinks.Report = snapshot.NewReportWriter(*outDir, logger)
	}
	if *parquetPath != "" {
		sinks.Observations = parquet.NewWriter(*parquetPath, logger)
	}
	if err := pipeline.Export(context.Background(), report, sinks, logger, observability.NewMetrics()); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	printSummary(os.Stdout, report)
}

// yearsOf lists the distinct years present in the snapshot, ascending.
func yearsOf(t *domain.Table) []int {
	seen := make(map[int]struct{})
	var years []int
	for _, ts := range t.Times {
		y := ts.Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func printSummary(w io.Writer, r *domain.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Days with daily mean above %g µg/m³\n", r.Threshold)
	for _, y := range r.Years {
		ranked, ok := r.TopBottom[y]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "\n%d\tstation\tdays\n", y)
		half := len(ranked) / 2
		for i, c := range ranked {
			label := "top"
			if i >= half {
				label = "bottom"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\n", label, c.Station, c.Days)
		}
	}
	if len(r.Voivodeships) > 0 {
		fmt.Fprintf(tw, "\nvoivodeship\tdays\t\n")
		for _, v := range r.Voivodeships {
			fmt.Fprintf(tw, "%s\t%d\t\n", v.Voivodeship, v.Days)
		}
	}
	tw.Flush()
}
