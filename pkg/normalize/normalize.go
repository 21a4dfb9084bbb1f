// Package normalize maps raw API records into canonical rows keyed by
// (country_iso3, year). Malformed records are dropped, never fatal.
package normalize

import (
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Teekay7000/data-engineering-pipeline/pkg/logging"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/worldbank"
)

// Rejection reasons returned by Normalize.
var (
	// ErrMissingCountry means no ISO3 code could be resolved.
	ErrMissingCountry = errors.New("record has no country code")

	// ErrMissingYear means the record carries no date field.
	ErrMissingYear = errors.New("record has no year")

	// ErrBadYear means the date field is not an integer year.
	ErrBadYear = errors.New("record year is not an integer")
)

// Row is one normalized data point. Rows are immutable once created; a
// re-fetch supersedes a row with the same (CountryISO3, Year) key via the
// store's upsert, it never duplicates it.
type Row struct {
	CountryISO3   string
	CountryName   string
	Year          int
	Value         *float64 // nil means "no data reported for that year"
	IndicatorID   string
	IndicatorName string
	FetchedAt     time.Time
}

// Normalizer converts raw records into rows.
type Normalizer struct {
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a normalizer using the wall clock.
func New() *Normalizer {
	return NewWithClock(time.Now)
}

// NewWithClock creates a normalizer with an injected clock, for tests that
// need a deterministic fetch timestamp.
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{
		logger: logging.NewLogger("normalizer"),
		now:    now,
	}
}

// Normalize converts one raw record into a row stamped with fetchedAt.
//
// The country code prefers the record's direct ISO3 field and falls back to
// the nested country id. The value passes through as-is, including nil: a
// null value is a first-class "no data reported" condition, not an error.
func (n *Normalizer) Normalize(rec worldbank.RawRecord, fetchedAt time.Time) (Row, error) {
	iso3 := rec.CountryISO3Code
	if iso3 == "" && rec.Country != nil {
		iso3 = rec.Country.ID
	}
	if iso3 == "" {
		return Row{}, ErrMissingCountry
	}

	if rec.Date == "" {
		return Row{}, ErrMissingYear
	}
	year, err := strconv.Atoi(rec.Date)
	if err != nil {
		return Row{}, ErrBadYear
	}

	row := Row{
		CountryISO3: iso3,
		Year:        year,
		Value:       rec.Value,
		FetchedAt:   fetchedAt,
	}
	if rec.Country != nil {
		row.CountryName = rec.Country.Value
	}
	if rec.Indicator != nil {
		row.IndicatorID = rec.Indicator.ID
		row.IndicatorName = rec.Indicator.Value
	}
	return row, nil
}

// Batch normalizes a slice of raw records, stamping every row with one UTC
// fetch timestamp. Rejected records are skipped and logged; a record with an
// unparseable year gets a warning naming the bad value. Returns the valid
// rows and the number of records skipped.
func (n *Normalizer) Batch(records []worldbank.RawRecord) ([]Row, int) {
	fetchedAt := n.now().UTC()

	rows := make([]Row, 0, len(records))
	skipped := 0

	for _, rec := range records {
		row, err := n.Normalize(rec, fetchedAt)
		if err != nil {
			skipped++
			if errors.Is(err, ErrBadYear) {
				n.logger.Warn().
					Str("date", rec.Date).
					Msg("Skipping record with invalid year")
			} else {
				n.logger.Debug().
					Err(err).
					Msg("Skipping record")
			}
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped
}
