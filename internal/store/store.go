// Package store reads period records and persists derived metrics.
//
// Derived metrics are never merged: a company's output set is replaced as a
// whole, and a full run truncates the target before writing.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/seenimoa/valuemetrics/pkg/models"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown store driver")

// Source supplies period records per company.
type Source interface {
	// Companies lists every company identifier with at least one record,
	// in ascending order.
	Companies(ctx context.Context) ([]string, error)
	// FetchPeriods returns all records of a company, ascending by date.
	FetchPeriods(ctx context.Context, companyID string) ([]models.PeriodRecord, error)
}

// Sink stores derived metrics.
type Sink interface {
	// Truncate removes every stored output row.
	Truncate(ctx context.Context) error
	// Replace swaps the company's output set for rows.
	Replace(ctx context.Context, companyID string, rows []models.DerivedMetrics) error
}

// Loader imports period records.
type Loader interface {
	PutPeriods(ctx context.Context, records []models.PeriodRecord) error
}

// Store is a backend that can act as source, sink and loader.
type Store interface {
	Source
	Sink
	Loader
	Close() error
}

// periodKey identifies a period record: at most one record exists per
// company, period-end date and label.
func periodKey(r *models.PeriodRecord) string {
	return fmt.Sprintf("%s|%s|%s", r.CompanyID, r.Date.Format("2006-01-02"), r.Period)
}
