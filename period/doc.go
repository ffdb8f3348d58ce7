// Package period provides calendar-aware billing period arithmetic.
// It computes the [start, end) window obtained by advancing a start
// instant by a number of day, month, or year intervals.
//
// Month and year addition is calendar-correct: the day of month is
// preserved when it exists in the target month and clamped to the last
// valid day otherwise (Jan 31 + 1 month = Feb 28, or Feb 29 in a leap
// year). This differs from time.AddDate, which overflows into the next
// month.
//
// Basic usage:
//
//	p, err := period.New(period.Month, 1, startsAt)
//	if err != nil {
//	    // Handle invalid interval or negative count
//	}
//	subscription.EndsAt = p.End()
package period
