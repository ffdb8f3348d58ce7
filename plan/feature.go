package plan

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subscriptions/period"
)

// Boolean feature value sentinels. Any other value is treated as a
// numeric quota.
const (
	ValueEnabled  = "true"
	ValueDisabled = "false"
)

// Feature is a named, quota-bearing capability granted by a plan. Its
// slug is unique within the owning plan.
type Feature struct {
	ID          uuid.UUID
	PlanID      uuid.UUID
	Slug        string
	Name        string
	Description string

	// Value holds a numeric quota, or "true"/"false" for boolean
	// features. "0" and "false" both disable the feature.
	Value string

	// ResettablePeriod and ResettableInterval define the cadence at
	// which the usage counter zeroes. A period of zero never resets.
	ResettablePeriod   int
	ResettableInterval period.Interval

	SortOrder int
}

// Resettable reports whether usage of this feature automatically
// resets on a cadence.
func (f Feature) Resettable() bool {
	return f.ResettablePeriod > 0 && f.ResettableInterval.Valid()
}

// IsBoolean reports whether the value is one of the boolean sentinels
// rather than a numeric quota.
func (f Feature) IsBoolean() bool {
	return f.Value == ValueEnabled || f.Value == ValueDisabled
}

// Quota parses the feature value as a numeric quota.
func (f Feature) Quota() (int64, error) {
	n, err := strconv.ParseInt(f.Value, 10, 64)
	if err != nil {
		return 0, errors.Join(ErrInvalidFeature, fmt.Errorf("feature %q value %q is not numeric", f.Slug, f.Value))
	}
	return n, nil
}

// ResetDate returns the end of the reset window that starts at from.
// Callers anchor from to the previous window edge (subscription
// creation on first use, prior window end afterwards) so the cadence
// never drifts.
func (f Feature) ResetDate(from time.Time) time.Time {
	if !f.Resettable() {
		return from
	}
	return period.Add(from, f.ResettableInterval, f.ResettablePeriod)
}

// Validate checks the feature configuration.
func (f Feature) Validate() error {
	if f.Slug == "" {
		return errors.Join(ErrInvalidFeature, errors.New("feature slug is required"))
	}
	if f.Value == "" {
		return errors.Join(ErrInvalidFeature, fmt.Errorf("feature %q has no value", f.Slug))
	}
	if f.ResettablePeriod < 0 {
		return errors.Join(ErrInvalidFeature, fmt.Errorf("feature %q has negative resettable period: %d", f.Slug, f.ResettablePeriod))
	}
	if f.ResettablePeriod > 0 && !f.ResettableInterval.Valid() {
		return errors.Join(ErrInvalidFeature, fmt.Errorf("feature %q has invalid resettable interval: %q", f.Slug, f.ResettableInterval))
	}
	return nil
}
