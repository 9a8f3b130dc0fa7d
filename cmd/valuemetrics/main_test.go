package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const periodsJSON = `[
	{"company_id": "DE0007164600", "ticker": "SAP.DE", "date": "2022-12-31", "period": "FY", "revenue": 1000, "net_income": 100, "market_cap": 2000},
	{"company_id": "DE0007164600", "ticker": "SAP.DE", "date": "2023-12-31", "period": "FY", "revenue": 1200, "net_income": 150, "market_cap": 3000}
]`

func writePeriods(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "periods.json")
	if err := os.WriteFile(path, []byte(periodsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, buf.String())
	}
	return buf.String()
}

func TestDeriveFromInputFileJSON(t *testing.T) {
	out := execute(t, "derive", "--input", writePeriods(t), "--format", "json")

	end := strings.Index(out, "]")
	if end < 0 {
		t.Fatalf("no JSON array in output: %s", out)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out[:end+1]), &rows); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1]["pe"] != float64(20) {
		t.Errorf("expected FY2023 P/E 20, got %v", rows[1]["pe"])
	}
	if !strings.Contains(out, "Derived 2 records for 1 companies") {
		t.Errorf("missing summary: %s", out)
	}
}

func TestDeriveFromInputFileTable(t *testing.T) {
	out := execute(t, "derive", "--input", writePeriods(t), "--format", "table")
	if !strings.Contains(out, "SAP.DE") || !strings.Contains(out, "20.00") {
		t.Errorf("unexpected table: %s", out)
	}
	if !strings.Contains(out, "Profit margin:") {
		t.Errorf("missing stats: %s", out)
	}
}

func TestImportIntoMemoryStore(t *testing.T) {
	t.Setenv("VALUEMETRICS_STORE_DRIVER", "memory")
	out := execute(t, "import", writePeriods(t))
	if !strings.Contains(out, "Imported 2 period records for 1 companies") {
		t.Errorf("unexpected output: %s", out)
	}
}
