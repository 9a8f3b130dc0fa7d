package store

import (
	"context"
	"sort"
	"sync"

	"github.com/seenimoa/valuemetrics/internal/metrics"
	"github.com/seenimoa/valuemetrics/pkg/models"
)

// Memory is an in-process store. It backs dry runs, JSON file input and
// tests.
type Memory struct {
	mu      sync.RWMutex
	periods map[string]map[string]models.PeriodRecord // company -> periodKey -> record
	derived map[string][]models.DerivedMetrics
}

// NewMemory creates a memory store seeded with records.
func NewMemory(records ...models.PeriodRecord) *Memory {
	m := &Memory{
		periods: make(map[string]map[string]models.PeriodRecord),
		derived: make(map[string][]models.DerivedMetrics),
	}
	_ = m.PutPeriods(context.Background(), records)
	return m
}

// Companies implements Source.
func (m *Memory) Companies(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.periods))
	for id := range m.periods {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// FetchPeriods implements Source.
func (m *Memory) FetchPeriods(_ context.Context, companyID string) ([]models.PeriodRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.periods[companyID]
	out := make([]models.PeriodRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, r)
	}
	metrics.SortRecords(out)
	return out, nil
}

// PutPeriods implements Loader. Records with the same company, date and
// period label overwrite each other.
func (m *Memory) PutPeriods(_ context.Context, records []models.PeriodRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		set, ok := m.periods[r.CompanyID]
		if !ok {
			set = make(map[string]models.PeriodRecord)
			m.periods[r.CompanyID] = set
		}
		set[periodKey(&r)] = r
	}
	return nil
}

// Truncate implements Sink.
func (m *Memory) Truncate(_ context.Context) error {
	m.mu.Lock()
	m.derived = make(map[string][]models.DerivedMetrics)
	m.mu.Unlock()
	return nil
}

// Replace implements Sink.
func (m *Memory) Replace(_ context.Context, companyID string, rows []models.DerivedMetrics) error {
	cp := make([]models.DerivedMetrics, len(rows))
	copy(cp, rows)
	m.mu.Lock()
	m.derived[companyID] = cp
	m.mu.Unlock()
	return nil
}

// Derived returns the stored output rows of a company.
func (m *Memory) Derived(companyID string) []models.DerivedMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.derived[companyID]
}

// DerivedCount returns the number of stored output rows across companies.
func (m *Memory) DerivedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rows := range m.derived {
		n += len(rows)
	}
	return n
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
