// Package postgres provides a PostgreSQL-backed subscription.Store on
// top of pgx, plus connection pooling with retry and schema migrations
// via goose.
//
// All multi-record operations (plan-deletion cascades, renewals that
// clear usage) run inside a single transaction, satisfying the
// atomicity the subscription engine requires from its store.
//
// Basic usage:
//
//	cfg, err := postgres.LoadConfig()
//	pool, err := postgres.Connect(ctx, cfg)
//	if err := postgres.Migrate(ctx, pool, slog.Default()); err != nil {
//	    // Handle migration failure
//	}
//	svc := subscription.New(postgres.NewStore(pool))
package postgres
