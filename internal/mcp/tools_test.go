package mcp

import "testing"

func TestRecordMarkToolParameters(t *testing.T) {
	tool := recordMarkTool()
	for _, name := range []string{"portfolio_value", "date", "ticker", "trade_type", "contracts", "notes"} {
		if _, ok := tool.InputSchema.Properties[name]; !ok {
			t.Errorf("record_mark is missing parameter %q", name)
		}
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "portfolio_value" {
		t.Errorf("required = %v, want portfolio_value only", tool.InputSchema.Required)
	}
}

func TestRecordCapitalToolParameters(t *testing.T) {
	tool := recordCapitalTool()
	for _, name := range []string{"person", "amount", "action", "date"} {
		if _, ok := tool.InputSchema.Properties[name]; !ok {
			t.Errorf("record_capital is missing parameter %q", name)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2025-06-03")
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if d.Year() != 2025 || d.Month() != 6 || d.Day() != 3 {
		t.Errorf("parsed %v, want 2025-06-03", d)
	}

	if _, err := parseDate("June 3rd"); err == nil {
		t.Error("expected error for non-ISO date")
	}

	if d, err := parseDate(""); err != nil || !d.IsZero() {
		t.Errorf("empty date = %v, %v, want zero time and no error", d, err)
	}
}
