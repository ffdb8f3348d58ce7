package subscription

import "errors"

// Domain errors for subscription lifecycle and usage metering.
var (
	// Not-found errors
	ErrPlanNotFound         = errors.New("subscription.errors.plan_not_found")
	ErrSubscriptionNotFound = errors.New("subscription.errors.subscription_not_found")
	ErrFeatureNotFound      = errors.New("subscription.errors.feature_not_found")
	ErrUsageNotFound        = errors.New("subscription.errors.usage_not_found")

	// Creation-time conflicts
	ErrPlanAlreadyExists         = errors.New("subscription.errors.plan_already_exists")
	ErrSubscriptionAlreadyExists = errors.New("subscription.errors.subscription_already_exists")
	ErrDuplicateSlug             = errors.New("subscription.errors.duplicate_subscription_slug")

	// State errors
	ErrRenewalNotAllowed       = errors.New("subscription.errors.renewal_not_allowed")
	ErrSubscribersLimitReached = errors.New("subscription.errors.subscribers_limit_reached")

	// Value errors
	ErrFeatureValueNotNumeric = errors.New("subscription.errors.feature_value_not_numeric")
)
