package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a subscriber's enrollment in a plan over a time
// window. Its lifecycle state is never stored: it is derived from the
// instant fields against a caller-supplied "now", so a frozen clock in
// tests drives every transition.
type Subscription struct {
	ID         uuid.UUID
	Subscriber SubscriberRef
	PlanID     uuid.UUID

	// Slug is unique within the (subscriber type, subscriber id) scope.
	Slug string
	Name string

	TrialEndsAt *time.Time
	StartsAt    time.Time
	EndsAt      *time.Time // nil means the subscription never ends
	CanceledAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OnTrial reports whether the trial window is still open at now.
func (s Subscription) OnTrial(now time.Time) bool {
	return s.TrialEndsAt != nil && now.Before(*s.TrialEndsAt)
}

// Ended reports whether the invoice window has elapsed at now. A nil
// EndsAt means the subscription never ends.
func (s Subscription) Ended(now time.Time) bool {
	return s.EndsAt != nil && !now.Before(*s.EndsAt)
}

// Canceled reports whether a cancellation has taken effect at now.
func (s Subscription) Canceled(now time.Time) bool {
	return s.CanceledAt != nil && !now.Before(*s.CanceledAt)
}

// Active reports whether the subscription grants access at now. A
// subscription is active while its invoice window is open or while it
// is still on trial, whichever lasts longer.
func (s Subscription) Active(now time.Time) bool {
	return !s.Ended(now) || s.OnTrial(now)
}

// Inactive is the negation of Active.
func (s Subscription) Inactive(now time.Time) bool {
	return !s.Active(now)
}
