package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quarter identifies a fiscal quarter.
type Quarter struct {
	Year int
	Q    int // 1-4
}

// ParseQuarter parses labels like "2024 Q3".
func ParseQuarter(s string) (Quarter, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Quarter{}, fmt.Errorf("invalid quarter label: %q", s)
	}

	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return Quarter{}, fmt.Errorf("invalid quarter year %q: %w", fields[0], err)
	}

	q, err := ParseQuarterName(fields[1])
	if err != nil {
		return Quarter{}, err
	}

	out := Quarter{Year: year, Q: q}
	if !out.Valid() {
		return Quarter{}, fmt.Errorf("invalid quarter label: %q", s)
	}
	return out, nil
}

// ParseQuarterName parses "Q1".."Q4".
func ParseQuarterName(s string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Q1":
		return 1, nil
	case "Q2":
		return 2, nil
	case "Q3":
		return 3, nil
	case "Q4":
		return 4, nil
	}
	return 0, fmt.Errorf("invalid quarter name: %q", s)
}

// Code encodes the quarter as year*10 + quarter so quarters order as integers.
func (q Quarter) Code() int {
	return q.Year*10 + q.Q
}

// Name returns "Q1".."Q4".
func (q Quarter) Name() string {
	return "Q" + strconv.Itoa(q.Q)
}

// String returns "YYYY Qn".
func (q Quarter) String() string {
	return strconv.Itoa(q.Year) + " " + q.Name()
}

// Valid reports whether the quarter number is in range.
func (q Quarter) Valid() bool {
	return q.Year > 0 && q.Q >= 1 && q.Q <= 4
}

// Before reports whether q precedes other.
func (q Quarter) Before(other Quarter) bool {
	return q.Code() < other.Code()
}

// PeriodStart returns the derived date used when reading quarterly rows:
// the first day of the quarter's last month.
func (q Quarter) PeriodStart() time.Time {
	return time.Date(q.Year, time.Month(q.Q*3), 1, 0, 0, 0, 0, time.UTC)
}
