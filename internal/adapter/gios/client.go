package gios

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/pm25-etl/internal/domain"
	"github.com/couchcryptid/pm25-etl/internal/observability"
)

// ErrFileNotFound is returned when the requested sheet file is not inside the archive.
var ErrFileNotFound = errors.New("file not found in archive")

const (
	kindArchive  = "archive"
	kindMetadata = "metadata"
)

// Client downloads GIOŚ archive files and decodes their spreadsheets into grids.
// It implements pipeline.ArchiveFetcher and pipeline.MetadataFetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a GIOŚ archive client. The file id is appended to baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchArchive downloads the ZIP archive archiveID, locates filename inside it and
// returns the raw cell grid of sheet (the first sheet when empty).
func (c *Client) FetchArchive(ctx context.Context, archiveID, filename, sheet string) (domain.Grid, error) {
	timer := prometheus.NewTimer(c.metrics.FetchDuration.WithLabelValues(kindArchive))
	defer timer.ObserveDuration()

	grid, err := c.fetchArchive(ctx, archiveID, filename, sheet)
	c.record(kindArchive, err)
	return grid, err
}

func (c *Client) fetchArchive(ctx context.Context, archiveID, filename, sheet string) (domain.Grid, error) {
	body, err := c.download(ctx, archiveID)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", archiveID, err)
	}

	f, err := findFile(zr, filename)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %q: %w", archiveID, filename, err)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in archive %s: %w", f.Name, archiveID, err)
	}
	defer rc.Close()

	grid, err := decodeSheet(rc, sheet)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Name, err)
	}

	c.logger.Debug("archive decoded",
		"archive_id", archiveID,
		"file", f.Name,
		"rows", len(grid),
	)
	return grid, nil
}

// FetchMetadata downloads the station metadata workbook and returns its first sheet.
func (c *Client) FetchMetadata(ctx context.Context, id string) (domain.Grid, error) {
	timer := prometheus.NewTimer(c.metrics.FetchDuration.WithLabelValues(kindMetadata))
	defer timer.ObserveDuration()

	grid, err := c.fetchMetadata(ctx, id)
	c.record(kindMetadata, err)
	return grid, err
}

func (c *Client) fetchMetadata(ctx context.Context, id string) (domain.Grid, error) {
	body, err := c.download(ctx, id)
	if err != nil {
		return nil, err
	}
	grid, err := decodeSheet(bytes.NewReader(body), "")
	if err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", id, err)
	}
	return grid, nil
}

func (c *Client) download(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download %s: status %d", id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	c.metrics.BytesDownloaded.Add(float64(len(body)))
	c.logger.Debug("downloaded", "id", id, "bytes", len(body))
	return body, nil
}

func (c *Client) record(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.ArchivesFetched.WithLabelValues(kind, outcome).Inc()
}

// findFile matches name against the archive entries: full path, then base name,
// then base name ignoring case. Directory entries are skipped.
func findFile(zr *zip.Reader, name string) (*zip.File, error) {
	var folded *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		if f.Name == name || base == name {
			return f, nil
		}
		if folded == nil && strings.EqualFold(base, name) {
			folded = f
		}
	}
	if folded != nil {
		return folded, nil
	}
	return nil, ErrFileNotFound
}

// decodeSheet reads a workbook and returns the raw values of one sheet, so that
// date cells arrive as Excel serial numbers.
func decodeSheet(r io.Reader, sheet string) (domain.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return domain.Grid(rows), nil
}
