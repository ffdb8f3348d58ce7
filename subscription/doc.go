// Package subscription implements recurring plan subscriptions with
// per-feature usage metering.
//
// The Service is the lifecycle engine: it creates subscriptions with
// trial and invoice windows computed from the plan's cadences, renews
// and cancels them, moves them between plans, and meters feature
// consumption against plan-defined quotas with periodic resets.
//
// Key concepts:
//
//   - Subscription: a subscriber's enrollment in a plan; its state
//     (trialing, active, canceled, ended) is derived from stored
//     instants against "now", never stored as a status column
//   - Usage: the counter for one (subscription, feature) pair, with an
//     optional reset window anchored to the subscription's creation
//   - Subscriber: any owner type identified by a (type, id) tag pair
//   - Store: the persistence boundary; the engine loads records,
//     applies transitions, and hands updated records back
//
// Operations that touch several records at once (renewal, a plan
// change that restarts the billing window) funnel through a single
// atomic store call, so transactional stores can guarantee that either
// every effect is visible or none. The engine itself holds no locks
// and reads time only from its injected clock.
//
// Basic usage:
//
//	store := subscription.NewMemoryStore()
//	svc := subscription.New(store)
//
//	sub, err := svc.Subscribe(ctx, user, proPlanID, "main")
//	if err != nil {
//	    // Handle plan not found, duplicate slug, subscribers limit
//	}
//
//	if ok, _ := svc.CanUse(ctx, sub.ID, "listings"); ok {
//	    _, err = svc.RecordUsage(ctx, sub.ID, "listings", 1, true)
//	}
package subscription
