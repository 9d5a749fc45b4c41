// Package domain models GIOŚ PM2.5 measurement archives and the transforms that
// turn them into an analysis-ready time series.
//
// # Data Source
//
// GIOŚ (Główny Inspektorat Ochrony Środowiska) publishes one ZIP archive per year at
// https://powietrze.gios.gov.pl/pjp/archives. Each archive holds one spreadsheet per
// pollutant and averaging period; the hourly PM2.5 sheet is named like
// "2019_PM25_1g.xlsx". A separate spreadsheet lists every monitoring station.
//
// # Archive Layout
//
// Measurement sheets are wide: one column per station, one row per hour.
//
//	row 0:   "Kod stacji" | DsJelGorOgin | DsWrocAlWisn | ...
//	row 1-5: indicator, averaging time, unit, position code (varies by year)
//	row 6+:  timestamp   | 12.4         | 9,8          | ...
//
// The number of preamble rows and the row that carries station codes change between
// years, so callers pass both explicitly to [Clean]. Values may use a decimal comma.
//
// # Timestamps
//
// A reading labeled with midnight closes the previous day: "2020-01-01 00:00" is the
// 24th hour of 2019-12-31. [CorrectMidnight] moves such timestamps back one second so
// day, month and year grouping attribute them correctly. Timestamps carry no zone
// and are kept as wall-clock values in UTC.
//
// # Station Codes
//
// Station codes look like "MzWarAlNiepo": the first two letters identify the
// voivodeship (see [DefaultVoivodeships]). Codes change when stations move or are
// renamed; the metadata sheet lists the previous code(s), comma-separated, in its
// "Stary Kod stacji" column. [HarmonizeStations] rewrites old codes to current ones
// so the same station lines up across years.
//
// # Output Shapes
//
// The wide [Table] keeps raw cell text. [ToLong] produces one [Observation] per
// non-blank cell and parses values; everything downstream aggregates observations.
package domain
