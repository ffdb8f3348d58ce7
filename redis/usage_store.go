package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/subscriptions/subscription"
)

// maxSaveRetries bounds optimistic-transaction retries under write
// contention on the same counter.
const maxSaveRetries = 5

// UsageStore keeps metering counters in Redis. Each counter is a hash
// at <prefix>:<subscription id>:<feature slug>, and a per-subscription
// set at <prefix>:<subscription id> indexes the slugs so a whole
// subscription can be cleared in one pass.
type UsageStore struct {
	client *redis.Client
	prefix string
}

var _ subscription.UsageStore = (*UsageStore)(nil)

type UsageStoreOption func(*UsageStore)

// WithKeyPrefix overrides the default "subscriptions:usage" namespace.
func WithKeyPrefix(prefix string) UsageStoreOption {
	return func(s *UsageStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewUsageStore wraps a Redis client. It panics on a nil client since
// no operation can work without one.
func NewUsageStore(client *redis.Client, opts ...UsageStoreOption) *UsageStore {
	if client == nil {
		panic("redis: client is required")
	}
	s := &UsageStore{client: client, prefix: "subscriptions:usage"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UsageStore) counterKey(subscriptionID uuid.UUID, featureSlug string) string {
	return s.prefix + ":" + subscriptionID.String() + ":" + featureSlug
}

func (s *UsageStore) indexKey(subscriptionID uuid.UUID) string {
	return s.prefix + ":" + subscriptionID.String()
}

func (s *UsageStore) Usage(ctx context.Context, subscriptionID uuid.UUID, featureSlug string) (subscription.Usage, error) {
	fields, err := s.client.HGetAll(ctx, s.counterKey(subscriptionID, featureSlug)).Result()
	if err != nil {
		return subscription.Usage{}, err
	}
	if len(fields) == 0 {
		return subscription.Usage{}, subscription.ErrUsageNotFound
	}
	return usageFromFields(fields)
}

func (s *UsageStore) SaveUsage(ctx context.Context, u subscription.Usage) error {
	key := s.counterKey(u.SubscriptionID, u.FeatureSlug)
	index := s.indexKey(u.SubscriptionID)
	fields := usageToFields(u)

	// WATCH the counter so two racing read-modify-write cycles on the
	// same (subscription, feature) pair cannot silently lose one update.
	save := func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			pipe.SAdd(ctx, index, u.FeatureSlug)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < maxSaveRetries; i++ {
		err = s.client.Watch(ctx, save, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *UsageStore) DeleteUsageForSubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	index := s.indexKey(subscriptionID)

	slugs, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(slugs)+1)
	for _, slug := range slugs {
		keys = append(keys, s.counterKey(subscriptionID, slug))
	}
	keys = append(keys, index)

	return s.client.Del(ctx, keys...).Err()
}

func usageToFields(u subscription.Usage) map[string]any {
	validUntil := ""
	if u.ValidUntil != nil {
		validUntil = u.ValidUntil.UTC().Format(time.RFC3339Nano)
	}
	return map[string]any{
		"id":              u.ID.String(),
		"subscription_id": u.SubscriptionID.String(),
		"feature_id":      u.FeatureID.String(),
		"feature_slug":    u.FeatureSlug,
		"used":            u.Used,
		"valid_until":     validUntil,
		"created_at":      u.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":      u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func usageFromFields(fields map[string]string) (subscription.Usage, error) {
	var u subscription.Usage
	var err error

	if u.ID, err = uuid.Parse(fields["id"]); err != nil {
		return subscription.Usage{}, err
	}
	if u.SubscriptionID, err = uuid.Parse(fields["subscription_id"]); err != nil {
		return subscription.Usage{}, err
	}
	if u.FeatureID, err = uuid.Parse(fields["feature_id"]); err != nil {
		return subscription.Usage{}, err
	}
	u.FeatureSlug = fields["feature_slug"]

	if u.Used, err = strconv.ParseInt(fields["used"], 10, 64); err != nil {
		return subscription.Usage{}, err
	}
	if raw := fields["valid_until"]; raw != "" {
		validUntil, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return subscription.Usage{}, err
		}
		u.ValidUntil = &validUntil
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return subscription.Usage{}, err
	}
	if u.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return subscription.Usage{}, err
	}
	return u, nil
}
