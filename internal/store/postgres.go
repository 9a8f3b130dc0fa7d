package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seenimoa/valuemetrics/pkg/models"
)

// copyBatch is the number of rows sent per COPY.
const copyBatch = 5000

// Postgres reads period records from one table and writes derived metrics to
// another, both in a PostgreSQL database.
type Postgres struct {
	pool   *pgxpool.Pool
	source pgx.Identifier
	target pgx.Identifier
}

// OpenPostgres connects to dsn. sourceTable and targetTable may be
// schema-qualified ("analytics.derived_metrics").
func OpenPostgres(ctx context.Context, dsn, sourceTable, targetTable string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn not set")
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	p := &Postgres{
		pool:   pool,
		source: tableIdentifier(sourceTable),
		target: tableIdentifier(targetTable),
	}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// EnsureSchema creates the source and target tables when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL(p.source, p.target) {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func tableIdentifier(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}

// Companies implements Source.
func (p *Postgres) Companies(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, companiesSQL(p.source))
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan companies: %w", err)
	}
	return ids, nil
}

// FetchPeriods implements Source.
func (p *Postgres) FetchPeriods(ctx context.Context, companyID string) ([]models.PeriodRecord, error) {
	rows, err := p.pool.Query(ctx, selectPeriodsSQL(p.source), companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods for %s: %w", companyID, err)
	}
	defer rows.Close()

	var out []models.PeriodRecord
	for rows.Next() {
		var r models.PeriodRecord
		var label string
		if err := rows.Scan(periodScanTargets(&r, &label)...); err != nil {
			return nil, fmt.Errorf("failed to scan period for %s: %w", companyID, err)
		}
		if r.Period, err = models.ParsePeriod(label); err != nil {
			return nil, fmt.Errorf("company %s, %s: %w", companyID, r.Date.Format("2006-01-02"), err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read periods for %s: %w", companyID, err)
	}
	return out, nil
}

// PutPeriods implements Loader by COPYing records into the source table.
func (p *Postgres) PutPeriods(ctx context.Context, records []models.PeriodRecord) error {
	for start := 0; start < len(records); start += copyBatch {
		batch := records[start:min(start+copyBatch, len(records))]
		_, err := p.pool.CopyFrom(ctx, p.source, periodColumns, pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			return periodValues(&batch[i]), nil
		}))
		if err != nil {
			return fmt.Errorf("failed to copy period records: %w", err)
		}
	}
	return nil
}

// Truncate implements Sink.
func (p *Postgres) Truncate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "TRUNCATE TABLE "+p.target.Sanitize()); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", p.target.Sanitize(), err)
	}
	return nil
}

// Replace implements Sink. The delete and the COPY run in one transaction.
func (p *Postgres) Replace(ctx context.Context, companyID string, rows []models.DerivedMetrics) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, deleteDerivedSQL(p.target), companyID); err != nil {
		return fmt.Errorf("failed to delete derived metrics for %s: %w", companyID, err)
	}
	for start := 0; start < len(rows); start += copyBatch {
		batch := rows[start:min(start+copyBatch, len(rows))]
		_, err := tx.CopyFrom(ctx, p.target, derivedColumns, pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			return derivedValues(&batch[i]), nil
		}))
		if err != nil {
			return fmt.Errorf("failed to copy derived metrics for %s: %w", companyID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit derived metrics for %s: %w", companyID, err)
	}
	return nil
}

// Close implements Store.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
