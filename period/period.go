package period

import (
	"errors"
	"time"
)

var ErrNegativeCount = errors.New("period.errors.negative_count")

// Period is a computed [start, end) calendar window. It is a value
// type: construct one wherever a window is needed and persist only the
// resulting instants.
type Period struct {
	Start    time.Time
	Interval Interval
	Count    int
}

// New builds a Period starting at start and spanning count units of
// interval. A count of zero yields a window whose end equals its start.
func New(interval Interval, count int, start time.Time) (Period, error) {
	if !interval.Valid() {
		return Period{}, ErrInvalidInterval
	}
	if count < 0 {
		return Period{}, ErrNegativeCount
	}
	return Period{Start: start, Interval: interval, Count: count}, nil
}

// End returns the period start advanced by Count units of Interval.
func (p Period) End() time.Time {
	return Add(p.Start, p.Interval, p.Count)
}

// Add advances t by count units of interval using calendar-correct
// addition. Month and year steps preserve the day of month, clamped to
// the last valid day of the target month when the source day does not
// exist there.
func Add(t time.Time, interval Interval, count int) time.Time {
	switch interval {
	case Day:
		return t.AddDate(0, 0, count)
	case Month:
		return addMonths(t, count)
	case Year:
		return addMonths(t, count*12)
	default:
		return t
	}
}

func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	// Normalize the target month before reattaching the day so that
	// AddDate's day overflow never kicks in.
	m := int(month) - 1 + months
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	targetMonth := time.Month(m + 1)

	if last := daysIn(year, targetMonth); day > last {
		day = last
	}

	hour, minute, sec := t.Clock()
	return time.Date(year, targetMonth, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
