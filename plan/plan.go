package plan

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"github.com/dmitrymomot/subscriptions/period"
)

// Plan describes a priced bundle of features with trial, invoice, and
// grace cadences. Price is expressed in minor currency units (cents);
// a plan with Price <= 0 is free and its subscriptions never expire.
type Plan struct {
	ID          uuid.UUID
	Slug        string
	Name        string
	Description string
	IsActive    bool

	Price     int64 // minor currency units
	SignupFee int64 // minor currency units
	Currency  string

	TrialPeriod     int
	TrialInterval   period.Interval
	InvoicePeriod   int
	InvoiceInterval period.Interval
	GracePeriod     int
	GraceInterval   period.Interval

	// Proration hints carried for billing integrations; this library
	// never computes proration.
	ProrateDay       int
	ProratePeriod    int
	ProrateExtendDue int

	// ActiveSubscribersLimit caps concurrently active subscriptions on
	// this plan. Zero means unlimited.
	ActiveSubscribersLimit int

	SortOrder int

	Features []Feature
}

// IsFree reports whether the plan costs nothing. Free-plan
// subscriptions carry no trial window and no end date.
func (p Plan) IsFree() bool {
	return p.Price <= 0
}

// HasTrial reports whether the plan grants a trial window.
func (p Plan) HasTrial() bool {
	return p.TrialPeriod > 0 && p.TrialInterval.Valid()
}

// HasGrace reports whether the plan carries a post-expiry grace
// allowance.
func (p Plan) HasGrace() bool {
	return p.GracePeriod > 0 && p.GraceInterval.Valid()
}

// Feature returns the feature with the given slug.
func (p Plan) Feature(slug string) (Feature, bool) {
	for _, f := range p.Features {
		if f.Slug == slug {
			return f, true
		}
	}
	return Feature{}, false
}

// AddFeature appends a feature to the plan. The feature slug must be
// unique within the plan; duplicates are rejected at creation time.
func (p *Plan) AddFeature(f Feature) error {
	if f.PlanID == uuid.Nil {
		f.PlanID = p.ID
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if _, exists := p.Feature(f.Slug); exists {
		return errors.Join(ErrDuplicateFeatureSlug, fmt.Errorf("feature %q already exists in plan %q", f.Slug, p.Slug))
	}
	p.Features = append(p.Features, f)
	return nil
}

// Activate marks the plan as available for new subscriptions.
func (p *Plan) Activate() { p.IsActive = true }

// Deactivate hides the plan from new subscriptions. Existing
// subscriptions are unaffected; enforcement is a caller policy.
func (p *Plan) Deactivate() { p.IsActive = false }

// SameBillingCadence reports whether two plans share the same invoice
// interval and period. Switching between plans with different cadences
// restarts the billing window and clears usage.
func (p Plan) SameBillingCadence(other Plan) bool {
	return p.InvoiceInterval == other.InvoiceInterval && p.InvoicePeriod == other.InvoicePeriod
}

// Validate checks the plan configuration, including its features.
func (p Plan) Validate() error {
	if p.Slug == "" {
		return errors.Join(ErrInvalidPlan, errors.New("plan slug is required"))
	}
	if p.InvoicePeriod < 0 {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q has negative invoice period: %d", p.Slug, p.InvoicePeriod))
	}
	if !p.InvoiceInterval.Valid() {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q has invalid invoice interval: %q", p.Slug, p.InvoiceInterval))
	}
	if p.TrialPeriod < 0 {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q has negative trial period: %d", p.Slug, p.TrialPeriod))
	}
	if p.TrialPeriod > 0 && !p.TrialInterval.Valid() {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q has invalid trial interval: %q", p.Slug, p.TrialInterval))
	}
	if p.GracePeriod < 0 {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q has negative grace period: %d", p.Slug, p.GracePeriod))
	}
	if p.GracePeriod > 0 && !p.GraceInterval.Valid() {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q has invalid grace interval: %q", p.Slug, p.GraceInterval))
	}
	if p.ActiveSubscribersLimit < 0 {
		return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %q has negative subscribers limit: %d", p.Slug, p.ActiveSubscribersLimit))
	}
	if p.Currency != "" {
		if _, err := currency.ParseISO(p.Currency); err != nil {
			return errors.Join(ErrInvalidCurrency, fmt.Errorf("plan %q: %w", p.Slug, err))
		}
	}

	seen := make(map[string]struct{}, len(p.Features))
	for _, f := range p.Features {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := seen[f.Slug]; dup {
			return errors.Join(ErrDuplicateFeatureSlug, fmt.Errorf("feature %q duplicated in plan %q", f.Slug, p.Slug))
		}
		seen[f.Slug] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy of the plan. Sources hand out clones so
// callers cannot mutate shared catalog state.
func (p Plan) Clone() Plan {
	clone := p
	clone.Features = slices.Clone(p.Features)
	return clone
}
