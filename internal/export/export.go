// Package export renders derived metrics and run statistics for the CLI.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/tidwall/pretty"

	"github.com/seenimoa/valuemetrics/internal/metrics"
	"github.com/seenimoa/valuemetrics/pkg/models"
	"github.com/seenimoa/valuemetrics/pkg/utils"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

var tableHeader = []string{
	"COMPANY", "TICKER", "DATE", "PERIOD",
	"EV", "P/E", "TTM P/E", "EV/EBIT", "TTM EV/EBIT",
	"P/E 10Y", "REV CAGR 5Y", "PROFIT MGN", "OP MGN", "EQUITY",
}

// Write renders rows in the given format.
func Write(w io.Writer, format string, rows []models.DerivedMetrics) error {
	switch format {
	case FormatTable:
		return WriteTable(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteTable renders a compact, aligned overview of rows.
func WriteTable(w io.Writer, rows []models.DerivedMetrics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	writeRow(tw, tableHeader...)
	for i := range rows {
		m := &rows[i]
		writeRow(tw,
			m.CompanyID,
			m.Ticker,
			m.Date.Format("2006-01-02"),
			string(m.Period),
			utils.FormatCompact(m.EV),
			utils.FormatOptional(m.PE, 2),
			utils.FormatOptional(m.TTMPE, 2),
			utils.FormatOptional(m.EVEBIT, 2),
			utils.FormatOptional(m.TTMEVEBIT, 2),
			utils.FormatAverage(m.PEAvg10Y.Value, m.PEAvg10Y.Count),
			utils.FormatPct(m.RevenueCAGR5Y),
			utils.FormatPct(m.ProfitMargin),
			utils.FormatPct(m.OperatingMargin),
			utils.FormatPct(m.EquityRatio),
		)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cols ...string) {
	for _, c := range cols {
		fmt.Fprint(w, c, "\t")
	}
	fmt.Fprintln(w)
}

// WriteJSON renders rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []models.DerivedMetrics) error {
	if rows == nil {
		rows = []models.DerivedMetrics{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode derived metrics: %w", err)
	}
	_, err = w.Write(pretty.Pretty(data))
	return err
}

// WriteStats prints how many records received each headline metric.
func WriteStats(w io.Writer, s metrics.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range s.Rows() {
		fmt.Fprintf(tw, "%s:\t%d\n", row.Label, row.Count)
	}
	return tw.Flush()
}
