package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subscriptions/plan"
)

// PlanStore persists plan descriptors and their features.
type PlanStore interface {
	// CreatePlan stores a new plan with its features. Returns
	// ErrPlanAlreadyExists on an id conflict.
	CreatePlan(ctx context.Context, p plan.Plan) error

	// Plan returns the plan with its full feature list, or
	// ErrPlanNotFound.
	Plan(ctx context.Context, id uuid.UUID) (plan.Plan, error)

	// AddFeature attaches a feature to its plan. Returns
	// plan.ErrDuplicateFeatureSlug when the slug is already taken
	// within the plan.
	AddFeature(ctx context.Context, f plan.Feature) error

	// DeletePlan removes the plan and cascades to its features, its
	// subscriptions, and their usage records.
	DeletePlan(ctx context.Context, id uuid.UUID) error

	// CountActiveSubscriptions counts subscriptions on the plan that
	// are active at now, for enforcing the plan's subscriber limit.
	CountActiveSubscriptions(ctx context.Context, planID uuid.UUID, now time.Time) (int64, error)
}

// SubscriptionStore persists subscription records.
type SubscriptionStore interface {
	// CreateSubscription stores a new subscription. Returns
	// ErrDuplicateSlug when the slug is taken within the subscriber
	// scope.
	CreateSubscription(ctx context.Context, s Subscription) error

	// Subscription returns a subscription by id, or
	// ErrSubscriptionNotFound.
	Subscription(ctx context.Context, id uuid.UUID) (Subscription, error)

	// SubscriptionBySlug returns the subscriber's subscription with
	// the given slug, or ErrSubscriptionNotFound.
	SubscriptionBySlug(ctx context.Context, subscriber Subscriber, slug string) (Subscription, error)

	// SubscriptionsBySubscriber returns all subscriptions owned by the
	// subscriber.
	SubscriptionsBySubscriber(ctx context.Context, subscriber Subscriber) ([]Subscription, error)

	// SaveSubscription persists an updated subscription record.
	SaveSubscription(ctx context.Context, s Subscription) error

	// SaveSubscriptionClearingUsage persists the subscription and
	// deletes all of its usage records as one atomic step. Renewal and
	// cadence-changing plan switches require this transactional
	// boundary: either every effect is visible or none.
	SaveSubscriptionClearingUsage(ctx context.Context, s Subscription) error

	// DeleteSubscription removes the subscription and cascades to its
	// usage records.
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
}

// UsageStore persists usage counters. Implementations must serialize
// concurrent writes per (subscription, feature) pair; two racing
// SaveUsage calls on a non-transactional store lose updates.
type UsageStore interface {
	// Usage finds the counter by feature slug, or ErrUsageNotFound.
	Usage(ctx context.Context, subscriptionID uuid.UUID, featureSlug string) (Usage, error)

	// SaveUsage inserts or updates the counter for its
	// (subscription, feature slug) pair.
	SaveUsage(ctx context.Context, u Usage) error

	// DeleteUsageForSubscription removes every counter of the
	// subscription. Deleting for a subscription without usage is not
	// an error.
	DeleteUsageForSubscription(ctx context.Context, subscriptionID uuid.UUID) error
}

// Store is the full persistence surface the Service drives.
type Store interface {
	PlanStore
	SubscriptionStore
	UsageStore
}
