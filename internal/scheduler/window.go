package scheduler

import (
	"time"

	"github.com/rs/zerolog/log"
)

// LoadLocation resolves an IANA timezone identifier, substituting UTC when
// the identifier is empty or unrecognized. Never fails the process.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Str("timezone", name).Msg("Unknown timezone, falling back to UTC")
		return time.UTC
	}

	return loc
}

// TargetDates computes the sliding window of calendar dates to refetch:
// back+ahead+1 consecutive ISO dates centered on "today" in loc, oldest
// first. With back=ahead=1 that is yesterday, today and tomorrow.
func TargetDates(now time.Time, loc *time.Location, back, ahead int) []string {
	if back < 0 {
		back = 0
	}
	if ahead < 0 {
		ahead = 0
	}

	today := now.In(loc)
	dates := make([]string, 0, back+ahead+1)
	for offset := -back; offset <= ahead; offset++ {
		dates = append(dates, today.AddDate(0, 0, offset).Format("2006-01-02"))
	}

	return dates
}

// ClampIntervalHours bounds the sync interval to whole hours within [1,24]
func ClampIntervalHours(h int) int {
	if h < 1 {
		return 1
	}
	if h > 24 {
		return 24
	}
	return h
}

// NextIntervalFire returns the next fire instant for the interval trigger:
// the next multiple of the interval past the current hour, aligned to the
// top of the hour in loc, rolling to next-day midnight when that multiple
// would not fall within today.
func NextIntervalFire(now time.Time, intervalHours int, loc *time.Location) time.Time {
	h := ClampIntervalHours(intervalHours)
	local := now.In(loc)

	nextHour := ((local.Hour() / h) + 1) * h
	if nextHour >= 24 {
		next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		return next.AddDate(0, 0, 1)
	}

	return time.Date(local.Year(), local.Month(), local.Day(), nextHour, 0, 0, 0, loc)
}
