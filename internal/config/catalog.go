package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Archive describes where one year's PM2.5 sheet lives and how to clean it.
type Archive struct {
	ArchiveID string `yaml:"archive_id"`
	File      string `yaml:"file"`
	Sheet     string `yaml:"sheet"` // empty selects the first sheet
	HeaderRow int    `yaml:"header_row"`
	DropRows  []int  `yaml:"drop_rows"`
}

// Catalog maps years to their GIOŚ archives, plus the station metadata file.
type Catalog struct {
	MetadataID string          `yaml:"metadata_id"`
	Years      map[int]Archive `yaml:"years"`
}

// LoadCatalog reads a catalog from path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read GIOS_CATALOG: %w", err)
		}
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if c.MetadataID == "" {
		return nil, fmt.Errorf("catalog: metadata_id is required")
	}
	if len(c.Years) == 0 {
		return nil, fmt.Errorf("catalog: no years defined")
	}
	for year, a := range c.Years {
		if a.ArchiveID == "" {
			return nil, fmt.Errorf("catalog: year %d: archive_id is required", year)
		}
		if a.File == "" {
			return nil, fmt.Errorf("catalog: year %d: file is required", year)
		}
		if a.HeaderRow < 0 {
			return nil, fmt.Errorf("catalog: year %d: header_row must not be negative", year)
		}
	}
	return &c, nil
}

// SortedYears lists the catalog years in ascending order.
func (c *Catalog) SortedYears() []int {
	years := make([]int, 0, len(c.Years))
	for y := range c.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
