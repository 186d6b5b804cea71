package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rickgao/stockdb/internal/model"
)

func quarterlyRows() []model.QuarterlyRecord {
	return []model.QuarterlyRecord{
		{
			Ticker:  "2330",
			Quarter: model.Quarter{Year: 2024, Q: 2},
			Revenue: decimal.NewNullDecimal(decimal.NewFromInt(673510)),
		},
		{
			Ticker:  "2330",
			Quarter: model.Quarter{Year: 2023, Q: 4},
		},
	}
}

func TestGetPrint_QuarterlyJSON(t *testing.T) {
	var buf bytes.Buffer
	c := &getCmd{json: true}
	if err := c.print(&buf, quarterlyRows(), writeQuarterly); err != nil {
		t.Fatalf("print() error = %v", err)
	}

	dec := json.NewDecoder(&buf)
	var got []string
	for dec.More() {
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got = append(got, row["date"].(string))
	}

	want := []string{"2024-06-01", "2023-12-01"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("dates = %v, want %v", got, want)
	}
}

func TestGetPrint_QuarterlyTable(t *testing.T) {
	var buf bytes.Buffer
	c := &getCmd{}
	if err := c.print(&buf, quarterlyRows(), writeQuarterly); err != nil {
		t.Fatalf("print() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "DATE") {
		t.Errorf("header %q has no DATE column", lines[0])
	}
	for i, want := range []string{"2024-06-01", "2023-12-01"} {
		if !strings.Contains(lines[i+1], want) {
			t.Errorf("row %d = %q, want date %s", i, lines[i+1], want)
		}
	}
	if !strings.Contains(lines[1], "673510") {
		t.Errorf("row 0 = %q, want revenue", lines[1])
	}
}
