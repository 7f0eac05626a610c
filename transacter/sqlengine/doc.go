// Package sqlengine provides a SQL implementation of the transacter engine.
//
// This package runs units of work inside database transactions with retry on
// transient contention, supporting multiple database adapters (pgx, sql.DB,
// sqlx) with per-attempt sessions, ordered lifecycle hooks, and shard routing
// for horizontally partitioned backends.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Automatic retry with exponential backoff and jitter on transient faults
//   - A fresh work session per attempt with pre-commit, post-commit, and
//     session-close hooks
//   - Nested-transaction rejection via the execution context
//   - Shard discovery and temporary shard targeting with guaranteed
//     restoration of the prior routing target
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	tr, _ := sqlengine.NewTransacterFromPGXPool(db)
//
//	err := tr.Transaction(ctx, func(ctx context.Context, session *sqlengine.Session) error {
//		_, saveErr := session.Save(ctx, movie)
//		return saveErr
//	})
//
//	// Derived handles share the connection, not the options
//	readOnly := tr.ReadOnly()
//	oneShot := tr.NoRetries()
//
//	// With observability collaborators
//	tr, _ := sqlengine.NewTransacterFromPGXPool(
//		db,
//		sqlengine.WithLogger(logger),
//		sqlengine.WithTracing(tracingCollector),
//		sqlengine.WithSharded(),
//	)
package sqlengine
