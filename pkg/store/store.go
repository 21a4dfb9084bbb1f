// Package store persists normalized indicator rows into PostgreSQL with
// last-write-wins upserts keyed by (country_iso3, year) per table.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Teekay7000/data-engineering-pipeline/pkg/logging"
	"github.com/Teekay7000/data-engineering-pipeline/pkg/normalize"
)

// ErrUnknownIndicator is returned when an indicator name has no staging
// table. It indicates a configuration mistake and is never retried.
var ErrUnknownIndicator = errors.New("unknown indicator")

// upsertBatchSize bounds the number of rows per INSERT statement.
const upsertBatchSize = 500

// Prometheus metrics for persistence.
var (
	wbRowsUpsertedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_rows_upserted_total",
		Help: "Total rows upserted by table",
	}, []string{"table"})

	wbUpsertFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_upsert_failures_total",
		Help: "Total failed (rolled back) upsert batches by table",
	}, []string{"table"})
)

// Store writes and reads the staging tables.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New creates a store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		logger: logging.NewLogger("store"),
	}
}

// tableFor resolves the staging table for an indicator name.
func tableFor(indicator string) (string, error) {
	table, ok := tableNames[indicator]
	if !ok {
		known := make([]string, 0, len(tableNames))
		for name := range tableNames {
			known = append(known, name)
		}
		sort.Strings(known)
		return "", fmt.Errorf("%w: %q (choose from: %s)",
			ErrUnknownIndicator, indicator, strings.Join(known, ", "))
	}
	return table, nil
}

// InitSchema creates the staging tables if they do not already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create staging tables: %w", err)
	}
	s.logger.Info().
		Str("tables", TableGDPGrowth+", "+TableUnemployment).
		Msg("Tables ready")
	return nil
}

// Upsert writes rows into the indicator's staging table and returns the
// number of rows written. A (country_iso3, year) collision replaces the
// stored country name, value, indicator id/name and fetch timestamp, so
// re-running the pipeline is idempotent.
//
// The whole call runs in one transaction, committed or rolled back on every
// exit path: a batch is never left half-written. Rows are chunked into
// statements of at most 500 rows.
func (s *Store) Upsert(ctx context.Context, indicator string, rows []normalize.Row) (int, error) {
	table, err := tableFor(indicator)
	if err != nil {
		return 0, err
	}

	if len(rows) == 0 {
		return 0, nil
	}

	// Keep only the last occurrence of each natural key so one statement
	// never updates the same row twice.
	rows = dedupeLastWins(rows)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for start := 0; start < len(rows); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := upsertChunk(ctx, tx, table, rows[start:end]); err != nil {
			wbUpsertFailuresTotal.WithLabelValues(table).Inc()
			return 0, fmt.Errorf("upsert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		wbUpsertFailuresTotal.WithLabelValues(table).Inc()
		return 0, fmt.Errorf("commit upsert into %s: %w", table, err)
	}
	committed = true

	wbRowsUpsertedTotal.WithLabelValues(table).Add(float64(len(rows)))
	s.logger.Info().
		Str("table", table).
		Int("rows", len(rows)).
		Msg("Upserted rows")
	return len(rows), nil
}

// upsertChunk executes one multi-row INSERT ... ON CONFLICT statement.
func upsertChunk(ctx context.Context, tx *sql.Tx, table string, rows []normalize.Row) error {
	const columns = 7

	var sb strings.Builder
	fmt.Fprintf(&sb, `INSERT INTO %s
		(country_iso3, country_name, year, value, indicator_id, indicator_name, fetched_at)
		VALUES `, table)

	args := make([]any, 0, len(rows)*columns)
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * columns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)

		args = append(args,
			row.CountryISO3, row.CountryName, row.Year, nullFloat(row.Value),
			row.IndicatorID, row.IndicatorName, row.FetchedAt)
	}

	sb.WriteString(`
		ON CONFLICT (country_iso3, year)
		DO UPDATE SET
			country_name   = EXCLUDED.country_name,
			value          = EXCLUDED.value,
			indicator_id   = EXCLUDED.indicator_id,
			indicator_name = EXCLUDED.indicator_name,
			fetched_at     = EXCLUDED.fetched_at`)

	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// dedupeLastWins removes earlier duplicates of a (country_iso3, year) key,
// preserving the order of the surviving rows.
func dedupeLastWins(rows []normalize.Row) []normalize.Row {
	type key struct {
		iso3 string
		year int
	}

	last := make(map[key]int, len(rows))
	for i, row := range rows {
		last[key{row.CountryISO3, row.Year}] = i
	}
	if len(last) == len(rows) {
		return rows
	}

	out := make([]normalize.Row, 0, len(last))
	for i, row := range rows {
		if last[key{row.CountryISO3, row.Year}] == i {
			out = append(out, row)
		}
	}
	return out
}

// nullFloat converts a nullable value for the driver.
func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// LoadAll reads every row of the indicator's table ordered by
// (country_iso3, year). Companion read path for verification; not used by
// the write pipeline.
func (s *Store) LoadAll(ctx context.Context, indicator string) ([]normalize.Row, error) {
	table, err := tableFor(indicator)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT country_iso3, country_name, year, value,
		indicator_id, indicator_name, fetched_at
		FROM %s ORDER BY country_iso3, year`, table)

	dbRows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load from %s: %w", table, err)
	}
	defer dbRows.Close()

	var rows []normalize.Row
	for dbRows.Next() {
		var (
			row   normalize.Row
			value sql.NullFloat64
		)
		if err := dbRows.Scan(&row.CountryISO3, &row.CountryName, &row.Year,
			&value, &row.IndicatorID, &row.IndicatorName, &row.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan row from %s: %w", table, err)
		}
		if value.Valid {
			v := value.Float64
			row.Value = &v
		}
		rows = append(rows, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows from %s: %w", table, err)
	}

	s.logger.Info().
		Str("table", table).
		Int("rows", len(rows)).
		Msg("Loaded rows")
	return rows, nil
}

// CountRows returns the number of rows in the indicator's table.
func (s *Store) CountRows(ctx context.Context, indicator string) (int, error) {
	table, err := tableFor(indicator)
	if err != nil {
		return 0, err
	}

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}

// Indicators returns the indicator names the store can route, sorted.
func Indicators() []string {
	names := make([]string, 0, len(tableNames))
	for name := range tableNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
