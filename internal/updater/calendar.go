package updater

import (
	"time"

	"github.com/rickgao/stockdb/internal/model"
)

// Statutory deadlines for quarterly filings.
var (
	annualRelease = releaseDay{time.March, 31}
	q1Release     = releaseDay{time.May, 15}
	q2Release     = releaseDay{time.August, 14}
	q3Release     = releaseDay{time.November, 14}
)

type releaseDay struct {
	month time.Month
	day   int
}

func (r releaseDay) in(year int) time.Time {
	return time.Date(year, r.month, r.day, 0, 0, 0, 0, time.UTC)
}

// AvailableQuarter returns the newest quarter whose report must have been
// published by now.
func AvailableQuarter(now time.Time) model.Quarter {
	today := model.Day(now)
	year := today.Year()

	switch {
	case !today.Before(q3Release.in(year)):
		return model.Quarter{Year: year, Q: 3}
	case !today.Before(q2Release.in(year)):
		return model.Quarter{Year: year, Q: 2}
	case !today.Before(q1Release.in(year)):
		return model.Quarter{Year: year, Q: 1}
	case !today.Before(annualRelease.in(year)):
		return model.Quarter{Year: year - 1, Q: 4}
	default:
		// Before the annual report deadline the prior year's Q3 is the latest.
		return model.Quarter{Year: year - 1, Q: 3}
	}
}
