package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/subscriptions/period"
	"github.com/dmitrymomot/subscriptions/plan"
	"github.com/dmitrymomot/subscriptions/subscription"
)

// Store is the PostgreSQL implementation of subscription.Store. Every
// cascade and every usage-clearing save runs inside one transaction.
type Store struct {
	db *pgxpool.Pool
}

var _ subscription.Store = (*Store)(nil)

// NewStore wraps a connection pool. It panics on a nil pool since no
// operation can work without one.
func NewStore(db *pgxpool.Pool) *Store {
	if db == nil {
		panic("postgres: connection pool is required")
	}
	return &Store{db: db}
}

const insertPlanSQL = `
INSERT INTO plans (
	id, slug, name, description, is_active, price, signup_fee, currency,
	trial_period, trial_interval, invoice_period, invoice_interval,
	grace_period, grace_interval, prorate_day, prorate_period,
	prorate_extend_due, active_subscribers_limit, sort_order
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

const insertFeatureSQL = `
INSERT INTO plan_features (
	id, plan_id, slug, name, description, value,
	resettable_period, resettable_interval, sort_order
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (s *Store) CreatePlan(ctx context.Context, p plan.Plan) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, insertPlanSQL,
		p.ID, p.Slug, p.Name, p.Description, p.IsActive, p.Price, p.SignupFee, p.Currency,
		p.TrialPeriod, string(p.TrialInterval), p.InvoicePeriod, string(p.InvoiceInterval),
		p.GracePeriod, string(p.GraceInterval), p.ProrateDay, p.ProratePeriod,
		p.ProrateExtendDue, p.ActiveSubscribersLimit, p.SortOrder,
	); err != nil {
		if IsDuplicateKeyError(err) {
			return errors.Join(subscription.ErrPlanAlreadyExists, err)
		}
		return err
	}

	for _, f := range p.Features {
		if _, err := tx.Exec(ctx, insertFeatureSQL,
			f.ID, f.PlanID, f.Slug, f.Name, f.Description, f.Value,
			f.ResettablePeriod, string(f.ResettableInterval), f.SortOrder,
		); err != nil {
			if IsDuplicateKeyError(err) {
				return errors.Join(plan.ErrDuplicateFeatureSlug, err)
			}
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) Plan(ctx context.Context, id uuid.UUID) (plan.Plan, error) {
	const q = `
SELECT id, slug, name, description, is_active, price, signup_fee, currency,
	trial_period, trial_interval, invoice_period, invoice_interval,
	grace_period, grace_interval, prorate_day, prorate_period,
	prorate_extend_due, active_subscribers_limit, sort_order
FROM plans WHERE id = $1`

	var (
		p                                             plan.Plan
		trialInterval, invoiceInterval, graceInterval string
	)
	err := s.db.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.IsActive, &p.Price, &p.SignupFee, &p.Currency,
		&p.TrialPeriod, &trialInterval, &p.InvoicePeriod, &invoiceInterval,
		&p.GracePeriod, &graceInterval, &p.ProrateDay, &p.ProratePeriod,
		&p.ProrateExtendDue, &p.ActiveSubscribersLimit, &p.SortOrder,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return plan.Plan{}, subscription.ErrPlanNotFound
		}
		return plan.Plan{}, err
	}
	p.TrialInterval = period.Interval(trialInterval)
	p.InvoiceInterval = period.Interval(invoiceInterval)
	p.GraceInterval = period.Interval(graceInterval)

	features, err := s.planFeatures(ctx, id)
	if err != nil {
		return plan.Plan{}, err
	}
	p.Features = features
	return p, nil
}

func (s *Store) planFeatures(ctx context.Context, planID uuid.UUID) ([]plan.Feature, error) {
	const q = `
SELECT id, plan_id, slug, name, description, value,
	resettable_period, resettable_interval, sort_order
FROM plan_features WHERE plan_id = $1
ORDER BY sort_order, slug`

	rows, err := s.db.Query(ctx, q, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var features []plan.Feature
	for rows.Next() {
		var (
			f        plan.Feature
			interval string
		)
		if err := rows.Scan(
			&f.ID, &f.PlanID, &f.Slug, &f.Name, &f.Description, &f.Value,
			&f.ResettablePeriod, &interval, &f.SortOrder,
		); err != nil {
			return nil, err
		}
		f.ResettableInterval = period.Interval(interval)
		features = append(features, f)
	}
	return features, rows.Err()
}

func (s *Store) AddFeature(ctx context.Context, f plan.Feature) error {
	_, err := s.db.Exec(ctx, insertFeatureSQL,
		f.ID, f.PlanID, f.Slug, f.Name, f.Description, f.Value,
		f.ResettablePeriod, string(f.ResettableInterval), f.SortOrder,
	)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return errors.Join(plan.ErrDuplicateFeatureSlug, err)
		}
		return err
	}
	return nil
}

func (s *Store) DeletePlan(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Cascade order respects the foreign keys: usage first, then
	// subscriptions, then features, then the plan itself.
	if _, err := tx.Exec(ctx, `
DELETE FROM subscription_usage
WHERE subscription_id IN (SELECT id FROM subscriptions WHERE plan_id = $1)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE plan_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM plan_features WHERE plan_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrPlanNotFound
	}

	return tx.Commit(ctx)
}

func (s *Store) CountActiveSubscriptions(ctx context.Context, planID uuid.UUID, now time.Time) (int64, error) {
	// Mirrors Subscription.Active: open invoice window, or an open
	// trial that outlives it.
	const q = `
SELECT COUNT(*) FROM subscriptions
WHERE plan_id = $1
  AND (ends_at IS NULL OR ends_at > $2 OR (trial_ends_at IS NOT NULL AND trial_ends_at > $2))`

	var count int64
	if err := s.db.QueryRow(ctx, q, planID, now).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

const insertSubscriptionSQL = `
INSERT INTO subscriptions (
	id, subscriber_type, subscriber_id, plan_id, slug, name,
	trial_ends_at, starts_at, ends_at, canceled_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const subscriptionColumns = `
	id, subscriber_type, subscriber_id, plan_id, slug, name,
	trial_ends_at, starts_at, ends_at, canceled_at, created_at, updated_at`

func (s *Store) CreateSubscription(ctx context.Context, sub subscription.Subscription) error {
	_, err := s.db.Exec(ctx, insertSubscriptionSQL,
		sub.ID, sub.Subscriber.Type, sub.Subscriber.ID, sub.PlanID, sub.Slug, sub.Name,
		sub.TrialEndsAt, sub.StartsAt, sub.EndsAt, sub.CanceledAt, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		if IsDuplicateKeyError(err) {
			if constraintName(err) == "subscriptions_pkey" {
				return errors.Join(subscription.ErrSubscriptionAlreadyExists, err)
			}
			return errors.Join(subscription.ErrDuplicateSlug, err)
		}
		if IsForeignKeyViolationError(err) {
			return errors.Join(subscription.ErrPlanNotFound, err)
		}
		return err
	}
	return nil
}

func scanSubscription(row pgx.Row) (subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID, &sub.Subscriber.Type, &sub.Subscriber.ID, &sub.PlanID, &sub.Slug, &sub.Name,
		&sub.TrialEndsAt, &sub.StartsAt, &sub.EndsAt, &sub.CanceledAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	return sub, err
}

func (s *Store) Subscription(ctx context.Context, id uuid.UUID) (subscription.Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		if IsNotFoundError(err) {
			return subscription.Subscription{}, subscription.ErrSubscriptionNotFound
		}
		return subscription.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) SubscriptionBySlug(ctx context.Context, subscriber subscription.Subscriber, slug string) (subscription.Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
WHERE subscriber_type = $1 AND subscriber_id = $2 AND slug = $3`,
		subscriber.SubscriberType(), subscriber.SubscriberID(), slug))
	if err != nil {
		if IsNotFoundError(err) {
			return subscription.Subscription{}, subscription.ErrSubscriptionNotFound
		}
		return subscription.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) SubscriptionsBySubscriber(ctx context.Context, subscriber subscription.Subscriber) ([]subscription.Subscription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
WHERE subscriber_type = $1 AND subscriber_id = $2
ORDER BY created_at`,
		subscriber.SubscriberType(), subscriber.SubscriberID())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

const updateSubscriptionSQL = `
UPDATE subscriptions SET
	plan_id = $2, slug = $3, name = $4, trial_ends_at = $5, starts_at = $6,
	ends_at = $7, canceled_at = $8, updated_at = $9
WHERE id = $1`

func (s *Store) SaveSubscription(ctx context.Context, sub subscription.Subscription) error {
	tag, err := s.db.Exec(ctx, updateSubscriptionSQL,
		sub.ID, sub.PlanID, sub.Slug, sub.Name, sub.TrialEndsAt, sub.StartsAt,
		sub.EndsAt, sub.CanceledAt, sub.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) SaveSubscriptionClearingUsage(ctx context.Context, sub subscription.Subscription) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, updateSubscriptionSQL,
		sub.ID, sub.PlanID, sub.Slug, sub.Name, sub.TrialEndsAt, sub.StartsAt,
		sub.EndsAt, sub.CanceledAt, sub.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM subscription_usage WHERE subscription_id = $1`, sub.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM subscription_usage WHERE subscription_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}

	return tx.Commit(ctx)
}

func (s *Store) Usage(ctx context.Context, subscriptionID uuid.UUID, featureSlug string) (subscription.Usage, error) {
	const q = `
SELECT id, subscription_id, feature_id, feature_slug, used, valid_until, created_at, updated_at
FROM subscription_usage
WHERE subscription_id = $1 AND feature_slug = $2`

	var u subscription.Usage
	err := s.db.QueryRow(ctx, q, subscriptionID, featureSlug).Scan(
		&u.ID, &u.SubscriptionID, &u.FeatureID, &u.FeatureSlug,
		&u.Used, &u.ValidUntil, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return subscription.Usage{}, subscription.ErrUsageNotFound
		}
		return subscription.Usage{}, err
	}
	return u, nil
}

func (s *Store) SaveUsage(ctx context.Context, u subscription.Usage) error {
	// The unique (subscription_id, feature_slug) constraint makes the
	// upsert the per-pair serialization point the engine relies on.
	const q = `
INSERT INTO subscription_usage (
	id, subscription_id, feature_id, feature_slug, used, valid_until, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (subscription_id, feature_slug) DO UPDATE SET
	feature_id = EXCLUDED.feature_id,
	used = EXCLUDED.used,
	valid_until = EXCLUDED.valid_until,
	updated_at = EXCLUDED.updated_at`

	_, err := s.db.Exec(ctx, q,
		u.ID, u.SubscriptionID, u.FeatureID, u.FeatureSlug,
		u.Used, u.ValidUntil, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil && IsForeignKeyViolationError(err) {
		return errors.Join(subscription.ErrSubscriptionNotFound, err)
	}
	return err
}

func (s *Store) DeleteUsageForSubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM subscription_usage WHERE subscription_id = $1`, subscriptionID)
	return err
}
