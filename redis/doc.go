// Package redis provides a Redis-backed subscription.UsageStore for
// deployments that keep hot metering counters out of the relational
// database, plus connection helpers with retry.
//
// Counters are stored as hashes keyed by subscription and feature slug,
// and writes go through WATCH-based optimistic transactions so racing
// updates on the same counter never lose increments.
//
// Basic usage:
//
//	cfg, err := redis.LoadConfig()
//	client, err := redis.Connect(ctx, cfg)
//	store := redis.NewUsageStore(client)
package redis
