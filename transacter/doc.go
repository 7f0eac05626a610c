// Package transacter provides core abstractions and types for running units
// of work against a relational datastore with all-or-nothing commit semantics,
// automatic retry on transient contention, and shard routing.
//
// This package defines the fundamental types used across engine
// implementations, including retry options, invariant checks, shard identity,
// the backoff policy, the entity taxonomy, and common error definitions.
//
// Key types:
//   - Options: Immutable per-call configuration for a transaction handle
//   - Check: A named invariant guard that can be disabled within a scope
//   - Shard: A keyspace/shard-id routing target
//   - Backoff: Exponential retry delay computation with jitter
//   - Entity: The taxonomy of persistable entities (root, unsharded, child)
//
// Common usage pattern:
//
//	options := transacter.DefaultOptions().
//		WithMaxAttempts(3).
//		WithDisabledCheck(transacter.CheckTableScan)
//
//	err := tr.Transaction(ctx, func(ctx context.Context, session *sqlengine.Session) error {
//		id, saveErr := session.Save(ctx, movie)
//		if saveErr != nil {
//			return saveErr
//		}
//		session.OnPostCommit(func(ctx context.Context) error {
//			return publisher.Publish(ctx, id)
//		})
//		return nil
//	})
package transacter
