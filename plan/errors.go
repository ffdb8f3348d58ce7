package plan

import "errors"

// Domain errors for plan and feature configuration.
var (
	ErrInvalidPlan          = errors.New("plan.errors.invalid_plan")
	ErrInvalidFeature       = errors.New("plan.errors.invalid_feature")
	ErrInvalidCurrency      = errors.New("plan.errors.invalid_currency")
	ErrDuplicateFeatureSlug = errors.New("plan.errors.duplicate_feature_slug")
	ErrFeatureNotFound      = errors.New("plan.errors.feature_not_found")

	ErrFailedToLoadPlans = errors.New("plan.errors.failed_to_load_plans")
)
