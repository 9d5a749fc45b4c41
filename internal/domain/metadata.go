package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Metadata sheet labels, in normalized form (see normalizeLabel).
const (
	labelStationCode = "kod stacji"
	labelOldCode     = "stary kod stacji"
	labelCity        = "miejscowość"
	labelVoivodeship = "województwo"
)

// Station is one row of the GIOŚ station metadata sheet.
type Station struct {
	Code        string   `json:"code"`
	OldCodes    []string `json:"old_codes,omitempty"`
	City        string   `json:"city"`
	Voivodeship string   `json:"voivodeship,omitempty"`
}

// Metadata is the parsed station metadata sheet.
type Metadata struct {
	Stations []Station
}

// ParseMetadata reads the station metadata sheet. The first row holds the labels;
// the station code and city columns are required, the old-code and voivodeship
// columns are optional. Rows without a station code are skipped.
func ParseMetadata(grid Grid) (*Metadata, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("parse metadata: empty sheet")
	}

	codeCol, oldCol, cityCol, voivCol := -1, -1, -1, -1
	for j, raw := range grid[0] {
		label := normalizeLabel(raw)
		switch {
		case label == labelStationCode:
			codeCol = j
		case strings.HasPrefix(label, labelOldCode):
			oldCol = j
		case label == labelCity:
			cityCol = j
		case label == labelVoivodeship:
			voivCol = j
		}
	}
	if codeCol < 0 {
		return nil, fmt.Errorf("parse metadata: missing %q column", labelStationCode)
	}
	if cityCol < 0 {
		return nil, fmt.Errorf("parse metadata: missing %q column", labelCity)
	}

	meta := &Metadata{}
	for i := 1; i < len(grid); i++ {
		code := strings.TrimSpace(grid.Cell(i, codeCol))
		if code == "" {
			continue
		}
		st := Station{
			Code: code,
			City: strings.TrimSpace(grid.Cell(i, cityCol)),
		}
		if oldCol >= 0 {
			st.OldCodes = SplitOldCodes(grid.Cell(i, oldCol))
		}
		if voivCol >= 0 {
			st.Voivodeship = strings.TrimSpace(grid.Cell(i, voivCol))
		}
		meta.Stations = append(meta.Stations, st)
	}
	return meta, nil
}

// SplitOldCodes splits a comma-separated old-code cell, trimming entries and
// dropping blanks: "A123, B456" -> [A123 B456].
func SplitOldCodes(cell string) []string {
	var codes []string
	for _, part := range strings.Split(cell, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// normalizeLabel makes sheet labels comparable: NFC-normalized, whitespace
// (including embedded newlines) collapsed to single spaces, lower-cased.
func normalizeLabel(s string) string {
	s = norm.NFC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
