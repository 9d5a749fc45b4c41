package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultBaseURL is the GIOŚ archive download endpoint; the archive id is appended.
const DefaultBaseURL = "https://powietrze.gios.gov.pl/pjp/archives/downloadFile/"

// Config holds all run settings, populated from environment variables.
type Config struct {
	GIOSBaseURL string
	Catalog     *Catalog
	Years       []int

	OutputPath  string
	ReportDir   string
	ParquetPath string

	Threshold float64
	TopN      int

	HTTPTimeout     time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka publication of exceedance counts; disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
}

// KafkaEnabled reports whether exceedance counts should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("HTTP_TIMEOUT", "60s"))
	if err != nil || httpTimeout <= 0 {
		return nil, errors.New("invalid HTTP_TIMEOUT")
	}

	threshold, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("PM25_THRESHOLD", "15"), 64)
	if err != nil || threshold < 0 {
		return nil, errors.New("invalid PM25_THRESHOLD")
	}

	topN, err := strconv.Atoi(sharedcfg.EnvOrDefault("TOP_N", "3"))
	if err != nil || topN <= 0 {
		return nil, errors.New("invalid TOP_N")
	}

	catalog, err := LoadCatalog(os.Getenv("GIOS_CATALOG"))
	if err != nil {
		return nil, err
	}

	years, err := parseYears(sharedcfg.EnvOrDefault("PM25_YEARS", "2014,2019,2024"))
	if err != nil {
		return nil, err
	}
	for _, y := range years {
		if _, ok := catalog.Years[y]; !ok {
			return nil, fmt.Errorf("PM25_YEARS: year %d is not in the catalog", y)
		}
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		GIOSBaseURL:     sharedcfg.EnvOrDefault("GIOS_BASE_URL", DefaultBaseURL),
		Catalog:         catalog,
		Years:           years,
		OutputPath:      sharedcfg.EnvOrDefault("OUTPUT_PATH", "data/pm25.csv"),
		ReportDir:       sharedcfg.EnvOrDefault("REPORT_DIR", "data/report"),
		ParquetPath:     os.Getenv("PARQUET_PATH"),
		Threshold:       threshold,
		TopN:            topN,
		HTTPTimeout:     httpTimeout,
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    brokers,
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "pm25-exceedances"),
	}

	if !strings.HasPrefix(cfg.GIOSBaseURL, "http://") && !strings.HasPrefix(cfg.GIOSBaseURL, "https://") {
		return nil, errors.New("GIOS_BASE_URL must be an http(s) URL")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	switch cfg.LogFormat {
	case "json", "text", "tint":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// parseYears parses a comma-separated year list, keeping order and dropping repeats.
func parseYears(s string) ([]int, error) {
	var years []int
	seen := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid PM25_YEARS entry %q", part)
		}
		if _, dup := seen[y]; dup {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, errors.New("PM25_YEARS is required")
	}
	return years, nil
}
