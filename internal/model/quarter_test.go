package model

import (
	"testing"
	"time"
)

func TestParseQuarter(t *testing.T) {
	tests := []struct {
		in      string
		want    Quarter
		wantErr bool
	}{
		{"2024 Q3", Quarter{2024, 3}, false},
		{"2023 Q4", Quarter{2023, 4}, false},
		{" 2022  q1 ", Quarter{2022, 1}, false},
		{"2024Q3", Quarter{}, true},
		{"2024 Q5", Quarter{}, true},
		{"YYYY Q1", Quarter{}, true},
		{"0 Q1", Quarter{}, true},
		{"", Quarter{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuarter(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuarter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseQuarter(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuarter_Code(t *testing.T) {
	tests := []struct {
		q    Quarter
		want int
	}{
		{Quarter{2024, 1}, 20241},
		{Quarter{2024, 4}, 20244},
		{Quarter{1999, 2}, 19992},
	}

	for _, tt := range tests {
		if got := tt.q.Code(); got != tt.want {
			t.Errorf("%v.Code() = %d, want %d", tt.q, got, tt.want)
		}
	}
}

func TestQuarter_Ordering(t *testing.T) {
	// Q4 of the previous year precedes Q1 of the next.
	if !(Quarter{2023, 4}).Before(Quarter{2024, 1}) {
		t.Error("2023 Q4 should be before 2024 Q1")
	}
	if (Quarter{2024, 2}).Before(Quarter{2024, 2}) {
		t.Error("a quarter is not before itself")
	}
	if (Quarter{2024, 3}).Before(Quarter{2024, 2}) {
		t.Error("2024 Q3 should not be before 2024 Q2")
	}
}

func TestQuarter_String(t *testing.T) {
	q := Quarter{Year: 2024, Q: 2}
	if q.String() != "2024 Q2" {
		t.Errorf("String() = %q, want %q", q.String(), "2024 Q2")
	}
	if q.Name() != "Q2" {
		t.Errorf("Name() = %q, want %q", q.Name(), "Q2")
	}
}

func TestQuarter_PeriodStart(t *testing.T) {
	tests := []struct {
		q    Quarter
		want time.Time
	}{
		{Quarter{2024, 1}, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Quarter{2024, 2}, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Quarter{2024, 3}, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)},
		{Quarter{2024, 4}, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		if got := tt.q.PeriodStart(); !got.Equal(tt.want) {
			t.Errorf("%v.PeriodStart() = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestQuarter_Valid(t *testing.T) {
	if !(Quarter{2024, 1}).Valid() {
		t.Error("2024 Q1 should be valid")
	}
	if (Quarter{2024, 0}).Valid() {
		t.Error("Q0 should be invalid")
	}
	if (Quarter{}).Valid() {
		t.Error("zero quarter should be invalid")
	}
}
