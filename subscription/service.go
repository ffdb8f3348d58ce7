package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subscriptions/period"
	"github.com/dmitrymomot/subscriptions/plan"
)

// Service is the subscription lifecycle and usage metering engine. It
// owns no state of its own: every operation loads records through the
// Store, applies the transition, and hands the updated records back for
// persistence. Time is read from an injected clock so tests can freeze
// or advance it.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithClock replaces the wall clock. The function must return the
// current instant; it is called once per operation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service on top of the given store. Panics if store is
// nil to surface wiring mistakes at startup.
func New(store Store, opts ...Option) *Service {
	if store == nil {
		panic("subscription: store is required")
	}
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePlan validates and stores a plan descriptor with its features.
func (s *Service) CreatePlan(ctx context.Context, p plan.Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.store.CreatePlan(ctx, p)
}

// Plan returns a stored plan with its feature list.
func (s *Service) Plan(ctx context.Context, id uuid.UUID) (plan.Plan, error) {
	return s.store.Plan(ctx, id)
}

// AddFeature validates a feature against the stored plan's current
// feature listing and attaches it. The (plan, slug) pair must be
// unique; duplicates are rejected here, at creation time.
func (s *Service) AddFeature(ctx context.Context, f plan.Feature) error {
	if err := f.Validate(); err != nil {
		return err
	}
	p, err := s.store.Plan(ctx, f.PlanID)
	if err != nil {
		return err
	}
	if _, exists := p.Feature(f.Slug); exists {
		return errors.Join(plan.ErrDuplicateFeatureSlug, fmt.Errorf("feature %q already exists in plan %q", f.Slug, p.Slug))
	}
	return s.store.AddFeature(ctx, f)
}

// DeletePlan removes a plan and cascades the delete to its features,
// its subscriptions, and their usage records. The cascade is an
// explicit operation, not a storage side effect.
func (s *Service) DeletePlan(ctx context.Context, id uuid.UUID) error {
	return s.store.DeletePlan(ctx, id)
}

type subscribeConfig struct {
	start time.Time
	slug  string
}

// SubscribeOption tweaks subscription creation.
type SubscribeOption func(*subscribeConfig)

// WithStartDate anchors the trial window to the given instant instead
// of now.
func WithStartDate(start time.Time) SubscribeOption {
	return func(c *subscribeConfig) {
		c.start = start
	}
}

// WithSlug sets the subscription slug explicitly. Defaults to the
// subscription name.
func WithSlug(slug string) SubscribeOption {
	return func(c *subscribeConfig) {
		c.slug = slug
	}
}

// Subscribe enrolls the subscriber in a plan. The trial window runs
// from the start date over the plan's trial cadence (a zero-length
// trial when the plan has none), and the invoice window starts at the
// trial's end. Free plans never expire nor trial-gate: both EndsAt and
// TrialEndsAt are nil.
//
// Whether an inactive plan may be subscribed to is caller policy; the
// engine does not enforce it.
func (s *Service) Subscribe(ctx context.Context, subscriber Subscriber, planID uuid.UUID, name string, opts ...SubscribeOption) (Subscription, error) {
	p, err := s.store.Plan(ctx, planID)
	if err != nil {
		return Subscription{}, err
	}

	now := s.now()
	cfg := subscribeConfig{start: now, slug: name}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := s.store.SubscriptionBySlug(ctx, subscriber, cfg.slug); err == nil {
		return Subscription{}, errors.Join(ErrDuplicateSlug, fmt.Errorf("subscriber %s/%s already has subscription %q",
			subscriber.SubscriberType(), subscriber.SubscriberID(), cfg.slug))
	} else if !errors.Is(err, ErrSubscriptionNotFound) {
		return Subscription{}, err
	}

	if p.ActiveSubscribersLimit > 0 {
		active, err := s.store.CountActiveSubscriptions(ctx, planID, now)
		if err != nil {
			return Subscription{}, err
		}
		if active >= int64(p.ActiveSubscribersLimit) {
			return Subscription{}, ErrSubscribersLimitReached
		}
	}

	trialEnd := cfg.start
	if p.HasTrial() {
		trial, err := period.New(p.TrialInterval, p.TrialPeriod, cfg.start)
		if err != nil {
			return Subscription{}, err
		}
		trialEnd = trial.End()
	}

	invoice, err := period.New(p.InvoiceInterval, p.InvoicePeriod, trialEnd)
	if err != nil {
		return Subscription{}, err
	}
	invoiceEnd := invoice.End()

	sub := Subscription{
		ID:          uuid.New(),
		Subscriber:  RefOf(subscriber),
		PlanID:      planID,
		Slug:        cfg.slug,
		Name:        name,
		TrialEndsAt: &trialEnd,
		StartsAt:    invoice.Start,
		EndsAt:      &invoiceEnd,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.IsFree() {
		sub.EndsAt = nil
		sub.TrialEndsAt = nil
	}

	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// Renew advances the invoice window to a fresh period starting now,
// clears all usage records, and lifts any pending cancellation. A
// subscription that is both ended and canceled has fully lapsed and
// cannot be renewed: ErrRenewalNotAllowed is returned and nothing is
// mutated. The three effects are persisted through one atomic store
// call.
func (s *Service) Renew(ctx context.Context, id uuid.UUID) (Subscription, error) {
	sub, err := s.store.Subscription(ctx, id)
	if err != nil {
		return Subscription{}, err
	}

	now := s.now()
	if sub.Ended(now) && sub.Canceled(now) {
		return Subscription{}, ErrRenewalNotAllowed
	}

	p, err := s.store.Plan(ctx, sub.PlanID)
	if err != nil {
		return Subscription{}, err
	}

	invoice, err := period.New(p.InvoiceInterval, p.InvoicePeriod, now)
	if err != nil {
		return Subscription{}, err
	}
	invoiceEnd := invoice.End()

	sub.StartsAt = invoice.Start
	sub.EndsAt = &invoiceEnd
	sub.CanceledAt = nil
	sub.UpdatedAt = now

	if err := s.store.SaveSubscriptionClearingUsage(ctx, sub); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// ChangePlan moves the subscription to another plan. When the new
// plan's billing cadence differs from the current one, the invoice
// window restarts from now and usage records are cleared, since the
// old metering window no longer lines up with billing. With an
// identical cadence the window and usage are left untouched. A free
// target plan drops both EndsAt and TrialEndsAt.
func (s *Service) ChangePlan(ctx context.Context, id, newPlanID uuid.UUID) (Subscription, error) {
	sub, err := s.store.Subscription(ctx, id)
	if err != nil {
		return Subscription{}, err
	}
	current, err := s.store.Plan(ctx, sub.PlanID)
	if err != nil {
		return Subscription{}, err
	}
	next, err := s.store.Plan(ctx, newPlanID)
	if err != nil {
		return Subscription{}, err
	}

	now := s.now()
	clearUsage := false
	if !current.SameBillingCadence(next) {
		invoice, err := period.New(next.InvoiceInterval, next.InvoicePeriod, now)
		if err != nil {
			return Subscription{}, err
		}
		invoiceEnd := invoice.End()
		sub.StartsAt = invoice.Start
		sub.EndsAt = &invoiceEnd
		clearUsage = true
	}

	sub.PlanID = newPlanID
	if next.IsFree() {
		sub.EndsAt = nil
		sub.TrialEndsAt = nil
	}
	sub.UpdatedAt = now

	if clearUsage {
		err = s.store.SaveSubscriptionClearingUsage(ctx, sub)
	} else {
		err = s.store.SaveSubscription(ctx, sub)
	}
	if err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// Cancel marks the subscription canceled as of now. With immediately
// set, the subscription also ends now; otherwise it stays active until
// its current EndsAt.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, immediately bool) (Subscription, error) {
	sub, err := s.store.Subscription(ctx, id)
	if err != nil {
		return Subscription{}, err
	}

	now := s.now()
	sub.CanceledAt = &now
	if immediately {
		sub.EndsAt = &now
	}
	sub.UpdatedAt = now

	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// DeleteSubscription removes the subscription and cascades the delete
// to its usage records.
func (s *Service) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteSubscription(ctx, id)
}

// Subscription returns a stored subscription by id.
func (s *Service) Subscription(ctx context.Context, id uuid.UUID) (Subscription, error) {
	return s.store.Subscription(ctx, id)
}

// SubscriptionBySlug returns the subscriber's subscription with the
// given slug.
func (s *Service) SubscriptionBySlug(ctx context.Context, subscriber Subscriber, slug string) (Subscription, error) {
	return s.store.SubscriptionBySlug(ctx, subscriber, slug)
}

// Subscriptions returns every subscription owned by the subscriber.
func (s *Service) Subscriptions(ctx context.Context, subscriber Subscriber) ([]Subscription, error) {
	return s.store.SubscriptionsBySubscriber(ctx, subscriber)
}

// ActiveSubscriptions returns the subscriber's subscriptions that are
// active now.
func (s *Service) ActiveSubscriptions(ctx context.Context, subscriber Subscriber) ([]Subscription, error) {
	subs, err := s.store.SubscriptionsBySubscriber(ctx, subscriber)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.Active(now) {
			active = append(active, sub)
		}
	}
	return active, nil
}

// SubscribedTo reports whether the subscriber holds an active
// subscription to the plan.
func (s *Service) SubscribedTo(ctx context.Context, subscriber Subscriber, planID uuid.UUID) (bool, error) {
	subs, err := s.store.SubscriptionsBySubscriber(ctx, subscriber)
	if err != nil {
		return false, err
	}
	now := s.now()
	for _, sub := range subs {
		if sub.PlanID == planID && sub.Active(now) {
			return true, nil
		}
	}
	return false, nil
}

// RecordUsage meters consumption of a feature. The feature is resolved
// by slug within the subscription's plan and the counter is created
// lazily on first use. For resettable features the reset window is
// refreshed first (see Usage.refreshWindow), then uses are added to
// the counter, or replace it when incremental is false.
func (s *Service) RecordUsage(ctx context.Context, id uuid.UUID, featureSlug string, uses int64, incremental bool) (Usage, error) {
	sub, p, err := s.subscriptionPlan(ctx, id)
	if err != nil {
		return Usage{}, err
	}
	f, ok := p.Feature(featureSlug)
	if !ok {
		return Usage{}, errors.Join(ErrFeatureNotFound, fmt.Errorf("feature %q not in plan %q", featureSlug, p.Slug))
	}

	now := s.now()
	u, err := s.store.Usage(ctx, sub.ID, f.Slug)
	switch {
	case errors.Is(err, ErrUsageNotFound):
		u = Usage{
			ID:             uuid.New(),
			SubscriptionID: sub.ID,
			FeatureSlug:    f.Slug,
			CreatedAt:      now,
		}
	case err != nil:
		return Usage{}, err
	}
	// Keep the feature reference current across plan changes.
	u.FeatureID = f.ID

	u.refreshWindow(f, sub.CreatedAt, now)

	if incremental {
		u.Used += uses
	} else {
		u.Used = uses
	}
	u.UpdatedAt = now

	if err := s.store.SaveUsage(ctx, u); err != nil {
		return Usage{}, err
	}
	return u, nil
}

// ReduceUsage subtracts uses from the feature's counter, flooring at
// zero. A missing counter is a no-op, not an error: both return values
// are nil.
func (s *Service) ReduceUsage(ctx context.Context, id uuid.UUID, featureSlug string, uses int64) (*Usage, error) {
	sub, p, err := s.subscriptionPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := p.Feature(featureSlug); !ok {
		return nil, nil
	}

	u, err := s.store.Usage(ctx, sub.ID, featureSlug)
	if errors.Is(err, ErrUsageNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.Used = max(u.Used-uses, 0)
	u.UpdatedAt = s.now()

	if err := s.store.SaveUsage(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CanUse reports whether the feature may be consumed right now. An
// unknown feature and the literal values "false" and "0" gate to
// false; the literal "true" grants unconditionally. Numeric quotas
// grant while remaining capacity is positive, with one deliberate
// wrinkle kept from the metering rules: an expired counter blocks
// usage until the next RecordUsage call performs the reset.
func (s *Service) CanUse(ctx context.Context, id uuid.UUID, featureSlug string) (bool, error) {
	sub, p, err := s.subscriptionPlan(ctx, id)
	if err != nil {
		return false, err
	}
	f, ok := p.Feature(featureSlug)
	if !ok {
		return false, nil
	}

	switch f.Value {
	case plan.ValueEnabled:
		return true, nil
	case plan.ValueDisabled, "0":
		return false, nil
	}

	quota, err := f.Quota()
	if err != nil {
		return false, errors.Join(ErrFeatureValueNotNumeric, err)
	}

	now := s.now()
	u, err := s.store.Usage(ctx, sub.ID, f.Slug)
	switch {
	case errors.Is(err, ErrUsageNotFound):
		return quota > 0, nil
	case err != nil:
		return false, err
	case u.Expired(now):
		// Stale counter: usage must be touched via RecordUsage to
		// refresh the window before access resumes.
		return false, nil
	}

	return quota-u.Used > 0, nil
}

// UsageCount returns the feature's current counter, or zero when no
// counter exists or the counter's window has expired.
func (s *Service) UsageCount(ctx context.Context, id uuid.UUID, featureSlug string) (int64, error) {
	sub, p, err := s.subscriptionPlan(ctx, id)
	if err != nil {
		return 0, err
	}
	if _, ok := p.Feature(featureSlug); !ok {
		return 0, errors.Join(ErrFeatureNotFound, fmt.Errorf("feature %q not in plan %q", featureSlug, p.Slug))
	}

	u, err := s.store.Usage(ctx, sub.ID, featureSlug)
	if errors.Is(err, ErrUsageNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if u.Expired(s.now()) {
		return 0, nil
	}
	return u.Used, nil
}

// Remaining returns the feature's numeric quota minus UsageCount. It
// must only be called for numeric-valued features; boolean values fail
// with ErrFeatureValueNotNumeric.
func (s *Service) Remaining(ctx context.Context, id uuid.UUID, featureSlug string) (int64, error) {
	sub, p, err := s.subscriptionPlan(ctx, id)
	if err != nil {
		return 0, err
	}
	f, ok := p.Feature(featureSlug)
	if !ok {
		return 0, errors.Join(ErrFeatureNotFound, fmt.Errorf("feature %q not in plan %q", featureSlug, p.Slug))
	}

	quota, err := f.Quota()
	if err != nil {
		return 0, errors.Join(ErrFeatureValueNotNumeric, err)
	}

	u, err := s.store.Usage(ctx, sub.ID, f.Slug)
	if errors.Is(err, ErrUsageNotFound) {
		return quota, nil
	}
	if err != nil {
		return 0, err
	}
	if u.Expired(s.now()) {
		return quota, nil
	}
	return quota - u.Used, nil
}

// FeatureValue returns the raw value of a plan feature as granted to
// the subscription.
func (s *Service) FeatureValue(ctx context.Context, id uuid.UUID, featureSlug string) (string, error) {
	_, p, err := s.subscriptionPlan(ctx, id)
	if err != nil {
		return "", err
	}
	f, ok := p.Feature(featureSlug)
	if !ok {
		return "", errors.Join(ErrFeatureNotFound, fmt.Errorf("feature %q not in plan %q", featureSlug, p.Slug))
	}
	return f.Value, nil
}

func (s *Service) subscriptionPlan(ctx context.Context, id uuid.UUID) (Subscription, plan.Plan, error) {
	sub, err := s.store.Subscription(ctx, id)
	if err != nil {
		return Subscription{}, plan.Plan{}, err
	}
	p, err := s.store.Plan(ctx, sub.PlanID)
	if err != nil {
		return Subscription{}, plan.Plan{}, err
	}
	return sub, p, nil
}
