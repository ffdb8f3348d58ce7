package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subscriptions/plan"
)

type usageKey struct {
	subscriptionID uuid.UUID
	featureSlug    string
}

// MemoryStore is an in-memory Store for tests and single-process use.
// All records are deep-copied on the way in and out so callers cannot
// mutate shared state, and every method takes the store lock, which
// also serializes per-(subscription, feature) usage writes.
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]plan.Plan
	subs  map[uuid.UUID]Subscription
	usage map[usageKey]Usage
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans: make(map[uuid.UUID]plan.Plan),
		subs:  make(map[uuid.UUID]Subscription),
		usage: make(map[usageKey]Usage),
	}
}

func (m *MemoryStore) CreatePlan(_ context.Context, p plan.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plans[p.ID]; exists {
		return ErrPlanAlreadyExists
	}
	m.plans[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) Plan(_ context.Context, id uuid.UUID) (plan.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return plan.Plan{}, ErrPlanNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryStore) AddFeature(_ context.Context, f plan.Feature) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plans[f.PlanID]
	if !ok {
		return ErrPlanNotFound
	}
	if err := p.AddFeature(f); err != nil {
		return err
	}
	m.plans[f.PlanID] = p
	return nil
}

func (m *MemoryStore) DeletePlan(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plans[id]; !ok {
		return ErrPlanNotFound
	}
	delete(m.plans, id)

	// Cascade: subscriptions on the plan and their usage go with it.
	for subID, sub := range m.subs {
		if sub.PlanID != id {
			continue
		}
		delete(m.subs, subID)
		m.deleteUsageLocked(subID)
	}
	return nil
}

func (m *MemoryStore) CountActiveSubscriptions(_ context.Context, planID uuid.UUID, now time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, sub := range m.subs {
		if sub.PlanID == planID && sub.Active(now) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateSubscription(_ context.Context, s Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.subs[s.ID]; exists {
		return ErrSubscriptionAlreadyExists
	}
	for _, existing := range m.subs {
		if existing.Subscriber == s.Subscriber && existing.Slug == s.Slug {
			return ErrDuplicateSlug
		}
	}
	m.subs[s.ID] = cloneSubscription(s)
	return nil
}

func (m *MemoryStore) Subscription(_ context.Context, id uuid.UUID) (Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subs[id]
	if !ok {
		return Subscription{}, ErrSubscriptionNotFound
	}
	return cloneSubscription(s), nil
}

func (m *MemoryStore) SubscriptionBySlug(_ context.Context, subscriber Subscriber, slug string) (Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ref := RefOf(subscriber)
	for _, s := range m.subs {
		if s.Subscriber == ref && s.Slug == slug {
			return cloneSubscription(s), nil
		}
	}
	return Subscription{}, ErrSubscriptionNotFound
}

func (m *MemoryStore) SubscriptionsBySubscriber(_ context.Context, subscriber Subscriber) ([]Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ref := RefOf(subscriber)
	var subs []Subscription
	for _, s := range m.subs {
		if s.Subscriber == ref {
			subs = append(subs, cloneSubscription(s))
		}
	}
	return subs, nil
}

func (m *MemoryStore) SaveSubscription(_ context.Context, s Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[s.ID]; !ok {
		return ErrSubscriptionNotFound
	}
	m.subs[s.ID] = cloneSubscription(s)
	return nil
}

func (m *MemoryStore) SaveSubscriptionClearingUsage(_ context.Context, s Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[s.ID]; !ok {
		return ErrSubscriptionNotFound
	}
	m.subs[s.ID] = cloneSubscription(s)
	m.deleteUsageLocked(s.ID)
	return nil
}

func (m *MemoryStore) DeleteSubscription(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(m.subs, id)
	m.deleteUsageLocked(id)
	return nil
}

func (m *MemoryStore) Usage(_ context.Context, subscriptionID uuid.UUID, featureSlug string) (Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usage[usageKey{subscriptionID, featureSlug}]
	if !ok {
		return Usage{}, ErrUsageNotFound
	}
	return cloneUsage(u), nil
}

func (m *MemoryStore) SaveUsage(_ context.Context, u Usage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage[usageKey{u.SubscriptionID, u.FeatureSlug}] = cloneUsage(u)
	return nil
}

func (m *MemoryStore) DeleteUsageForSubscription(_ context.Context, subscriptionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteUsageLocked(subscriptionID)
	return nil
}

func (m *MemoryStore) deleteUsageLocked(subscriptionID uuid.UUID) {
	for key := range m.usage {
		if key.subscriptionID == subscriptionID {
			delete(m.usage, key)
		}
	}
}

func cloneSubscription(s Subscription) Subscription {
	clone := s
	clone.TrialEndsAt = cloneTime(s.TrialEndsAt)
	clone.EndsAt = cloneTime(s.EndsAt)
	clone.CanceledAt = cloneTime(s.CanceledAt)
	return clone
}

func cloneUsage(u Usage) Usage {
	clone := u
	clone.ValidUntil = cloneTime(u.ValidUntil)
	return clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
