package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/seenimoa/valuemetrics/internal/metrics"
	"github.com/seenimoa/valuemetrics/pkg/models"
)

// badgerBatch caps the period records written, or the companies deleted,
// per transaction to stay clear of badger.ErrTxnTooBig.
const badgerBatch = 1000

// companyEntry lists a known company so Companies does not decode every
// period set.
type companyEntry struct {
	ID string
}

// companyPeriods holds all period records of one company under its id, so a
// fetch is a single key lookup.
type companyPeriods struct {
	ID      string
	Records []models.PeriodRecord
}

// companyDerived holds the derived metrics of one company under its id.
// Replacing a company's output is a single upsert.
type companyDerived struct {
	ID   string
	Rows []models.DerivedMetrics
}

// Badger is an embedded local store built on badgerhold.
type Badger struct {
	store *badgerhold.Store
}

// OpenBadger opens (or creates) a Badger database at path. An empty path
// opens an in-memory database.
func OpenBadger(path string) (*Badger, error) {
	return openBadger(path, nil)
}

func openBadger(path string, tune func(*badgerhold.Options)) (*Badger, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil
	// gob drops pointers to zero values; a reported zero must stay distinct
	// from a missing figure.
	options.Encoder = json.Marshal
	options.Decoder = json.Unmarshal
	if path == "" {
		options.InMemory = true
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		options.Dir = path
		options.ValueDir = path
	}
	if tune != nil {
		tune(&options)
	}

	s, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Badger{store: s}, nil
}

// Companies implements Source.
func (b *Badger) Companies(_ context.Context) ([]string, error) {
	var entries []companyEntry
	if err := b.store.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// FetchPeriods implements Source.
func (b *Badger) FetchPeriods(_ context.Context, companyID string) ([]models.PeriodRecord, error) {
	var set companyPeriods
	err := b.store.Get(companyID, &set)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch periods for %s: %w", companyID, err)
	}
	metrics.SortRecords(set.Records)
	return set.Records, nil
}

// PutPeriods implements Loader. Records with the same company, date and
// period label overwrite each other.
func (b *Badger) PutPeriods(_ context.Context, records []models.PeriodRecord) error {
	companies := metrics.GroupByCompany(records)
	for start := 0; start < len(companies); {
		end, n := start, 0
		for end < len(companies) && (end == start || n+len(companies[end].Records) <= badgerBatch) {
			n += len(companies[end].Records)
			end++
		}
		err := b.store.Badger().Update(func(tx *badger.Txn) error {
			for _, c := range companies[start:end] {
				if err := b.mergePeriods(tx, c); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to store period records: %w", err)
		}
		start = end
	}
	return nil
}

func (b *Badger) mergePeriods(tx *badger.Txn, c metrics.Company) error {
	var set companyPeriods
	if err := b.store.TxGet(tx, c.ID, &set); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return err
	}

	byKey := make(map[string]int, len(set.Records))
	for i := range set.Records {
		byKey[periodKey(&set.Records[i])] = i
	}
	for _, r := range c.Records {
		if i, ok := byKey[periodKey(&r)]; ok {
			set.Records[i] = r
			continue
		}
		byKey[periodKey(&r)] = len(set.Records)
		set.Records = append(set.Records, r)
	}
	set.ID = c.ID
	metrics.SortRecords(set.Records)

	if err := b.store.TxUpsert(tx, c.ID, &set); err != nil {
		return err
	}
	return b.store.TxUpsert(tx, c.ID, &companyEntry{ID: c.ID})
}

// Truncate implements Sink. Companies are deleted in batches so the number
// of stored companies is not bounded by one transaction.
func (b *Badger) Truncate(_ context.Context) error {
	var ids []string
	err := b.store.ForEach(badgerhold.Where("ID").Ne(""), func(d *companyDerived) error {
		ids = append(ids, d.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list derived metrics: %w", err)
	}

	for start := 0; start < len(ids); start += badgerBatch {
		batch := ids[start:min(start+badgerBatch, len(ids))]
		err := b.store.Badger().Update(func(tx *badger.Txn) error {
			for _, id := range batch {
				if err := b.store.TxDelete(tx, id, &companyDerived{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to truncate derived metrics: %w", err)
		}
	}
	return nil
}

// Replace implements Sink.
func (b *Badger) Replace(_ context.Context, companyID string, rows []models.DerivedMetrics) error {
	if err := b.store.Upsert(companyID, &companyDerived{ID: companyID, Rows: rows}); err != nil {
		return fmt.Errorf("failed to replace derived metrics for %s: %w", companyID, err)
	}
	return nil
}

// Derived returns the stored output rows of a company, ascending by date.
func (b *Badger) Derived(_ context.Context, companyID string) ([]models.DerivedMetrics, error) {
	var set companyDerived
	err := b.store.Get(companyID, &set)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read derived metrics for %s: %w", companyID, err)
	}
	rows := set.Rows
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Period.Rank() < rows[j].Period.Rank()
	})
	return rows, nil
}

// Close implements Store.
func (b *Badger) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
