package store

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverMemory   = "memory"
)

// Options select and configure a backend.
type Options struct {
	Driver      string
	DSN         string // postgres
	SourceTable string // postgres
	TargetTable string // postgres
	BadgerPath  string // badger; empty means in-memory
	InputFile   string // optional JSON seed for the memory driver
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN, opts.SourceTable, opts.TargetTable)
	case DriverBadger:
		return OpenBadger(opts.BadgerPath)
	case DriverMemory:
		mem := NewMemory()
		if opts.InputFile != "" {
			recs, err := ReadPeriodsFile(opts.InputFile)
			if err != nil {
				return nil, err
			}
			if err := mem.PutPeriods(ctx, recs); err != nil {
				return nil, err
			}
		}
		return mem, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
