package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/seenimoa/valuemetrics/pkg/models"
)

// periodFileRecord is the on-disk shape of a period record: dates are plain
// "YYYY-MM-DD" strings as exported by the fundamentals loaders.
type periodFileRecord struct {
	models.PeriodRecord
	Date   string `json:"date"`
	Period string `json:"period"`
}

// ReadPeriodsFile reads a JSON array of period records.
func ReadPeriodsFile(path string) ([]models.PeriodRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return DecodePeriods(data)
}

// DecodePeriods decodes a JSON array of period records.
func DecodePeriods(data []byte) ([]models.PeriodRecord, error) {
	var raw []periodFileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode period records: %w", err)
	}

	out := make([]models.PeriodRecord, 0, len(raw))
	for i, fr := range raw {
		r := fr.PeriodRecord
		if r.CompanyID == "" {
			return nil, fmt.Errorf("record %d: missing company_id", i)
		}
		d, err := time.Parse("2006-01-02", fr.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): invalid date %q", i, r.CompanyID, fr.Date)
		}
		r.Date = d
		if r.Period, err = models.ParsePeriod(fr.Period); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, r.CompanyID, err)
		}
		out = append(out, r)
	}
	return out, nil
}
