package updater

import (
	"testing"
	"time"

	"github.com/rickgao/stockdb/internal/model"
)

func TestAvailableQuarter(t *testing.T) {
	tests := []struct {
		date string
		want model.Quarter
	}{
		{"2024-01-10", model.Quarter{Year: 2023, Q: 3}},
		{"2024-03-30", model.Quarter{Year: 2023, Q: 3}},
		{"2024-03-31", model.Quarter{Year: 2023, Q: 4}},
		{"2024-05-14", model.Quarter{Year: 2023, Q: 4}},
		{"2024-05-15", model.Quarter{Year: 2024, Q: 1}},
		{"2024-08-13", model.Quarter{Year: 2024, Q: 1}},
		{"2024-08-14", model.Quarter{Year: 2024, Q: 2}},
		{"2024-11-13", model.Quarter{Year: 2024, Q: 2}},
		{"2024-11-14", model.Quarter{Year: 2024, Q: 3}},
		{"2024-12-31", model.Quarter{Year: 2024, Q: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, _ := time.Parse(model.DateLayout, tt.date)
			// Time of day must not matter.
			d = d.Add(23 * time.Hour)
			if got := AvailableQuarter(d); got != tt.want {
				t.Errorf("AvailableQuarter(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}
