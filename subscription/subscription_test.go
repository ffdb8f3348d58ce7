package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/subscriptions/subscription"
)

var t0 = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestSubscriptionDerivedState(t *testing.T) {
	t.Parallel()

	t.Run("on trial while trial window open", func(t *testing.T) {
		t.Parallel()
		sub := subscription.Subscription{TrialEndsAt: ptr(t0.AddDate(0, 0, 15))}
		assert.True(t, sub.OnTrial(t0))
		assert.False(t, sub.OnTrial(t0.AddDate(0, 0, 15)))
		assert.False(t, sub.OnTrial(t0.AddDate(0, 0, 16)))
	})

	t.Run("no trial window means never on trial", func(t *testing.T) {
		t.Parallel()
		assert.False(t, subscription.Subscription{}.OnTrial(t0))
	})

	t.Run("ended at and after ends_at", func(t *testing.T) {
		t.Parallel()
		sub := subscription.Subscription{EndsAt: ptr(t0.AddDate(0, 1, 0))}
		assert.False(t, sub.Ended(t0))
		assert.True(t, sub.Ended(t0.AddDate(0, 1, 0)))
		assert.True(t, sub.Ended(t0.AddDate(0, 2, 0)))
	})

	t.Run("nil ends_at never ends", func(t *testing.T) {
		t.Parallel()
		sub := subscription.Subscription{}
		assert.False(t, sub.Ended(t0.AddDate(100, 0, 0)))
		assert.True(t, sub.Active(t0.AddDate(100, 0, 0)))
	})

	t.Run("canceled once canceled_at reached", func(t *testing.T) {
		t.Parallel()
		sub := subscription.Subscription{CanceledAt: ptr(t0)}
		assert.False(t, sub.Canceled(t0.Add(-time.Second)))
		assert.True(t, sub.Canceled(t0))
	})

	t.Run("active while not ended", func(t *testing.T) {
		t.Parallel()
		sub := subscription.Subscription{EndsAt: ptr(t0.AddDate(0, 1, 0))}
		assert.True(t, sub.Active(t0))
		assert.False(t, sub.Inactive(t0))
		assert.False(t, sub.Active(t0.AddDate(0, 1, 0)))
		assert.True(t, sub.Inactive(t0.AddDate(0, 1, 0)))
	})

	t.Run("trial keeps an ended subscription active", func(t *testing.T) {
		t.Parallel()
		// Zero-length invoice window: ended immediately, yet the trial
		// window still grants access.
		sub := subscription.Subscription{
			TrialEndsAt: ptr(t0.AddDate(0, 0, 15)),
			EndsAt:      ptr(t0),
		}
		assert.True(t, sub.Ended(t0))
		assert.True(t, sub.OnTrial(t0))
		assert.True(t, sub.Active(t0))
	})

	t.Run("canceled but not ended stays active", func(t *testing.T) {
		t.Parallel()
		sub := subscription.Subscription{
			EndsAt:     ptr(t0.AddDate(0, 1, 0)),
			CanceledAt: ptr(t0),
		}
		assert.True(t, sub.Canceled(t0))
		assert.True(t, sub.Active(t0))
	})
}

func TestUsageExpired(t *testing.T) {
	t.Parallel()

	t.Run("no window never expires", func(t *testing.T) {
		t.Parallel()
		assert.False(t, subscription.Usage{}.Expired(t0.AddDate(10, 0, 0)))
	})

	t.Run("expires at the window edge", func(t *testing.T) {
		t.Parallel()
		u := subscription.Usage{ValidUntil: ptr(t0.AddDate(0, 1, 0))}
		assert.False(t, u.Expired(t0))
		assert.True(t, u.Expired(t0.AddDate(0, 1, 0)))
		assert.True(t, u.Expired(t0.AddDate(0, 1, 1)))
	})
}

func TestSubscriberRef(t *testing.T) {
	t.Parallel()

	ref := subscription.SubscriberRef{Type: "user", ID: "42"}
	assert.Equal(t, "user", ref.SubscriberType())
	assert.Equal(t, "42", ref.SubscriberID())
	assert.Equal(t, ref, subscription.RefOf(ref))
}
