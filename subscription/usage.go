package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subscriptions/plan"
)

// Usage is the metering counter for one (subscription, feature) pair.
// At most one record exists per pair; metering is additive against it.
type Usage struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID

	// FeatureID references the granting plan's feature and follows the
	// current plan across plan changes. FeatureSlug is the stable
	// metering key: a plan change swaps feature ids, but usage keeps
	// counting against the slug.
	FeatureID   uuid.UUID
	FeatureSlug string

	Used int64

	// ValidUntil is the end of the current reset window. Nil when the
	// feature never resets.
	ValidUntil *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the current reset window has elapsed at now.
// Records without a window never expire.
func (u Usage) Expired(now time.Time) bool {
	return u.ValidUntil != nil && !now.Before(*u.ValidUntil)
}

// refreshWindow keeps the reset cadence aligned to a fixed schedule.
// The first window is anchored to the subscription's creation instant,
// and every later window is advanced from the previous window's edge
// rather than from now, so the cadence never drifts no matter when the
// feature is next touched. Several skipped windows collapse into a
// single reset.
func (u *Usage) refreshWindow(f plan.Feature, subscriptionCreatedAt, now time.Time) {
	if !f.Resettable() {
		return
	}
	switch {
	case u.ValidUntil == nil:
		validUntil := f.ResetDate(subscriptionCreatedAt)
		u.ValidUntil = &validUntil
	case u.Expired(now):
		validUntil := f.ResetDate(*u.ValidUntil)
		u.ValidUntil = &validUntil
		u.Used = 0
	}
}
