package adapters

import "context"

// DBAdapter defines the interface for beginning transactions against the
// underlying database connection. One transaction is begun per attempt;
// transactions are never pooled or reused across attempts.
type DBAdapter interface {
	Begin(ctx context.Context) (DBTx, error)
}

// DBTx defines the interface for statement execution within one transaction.
type DBTx interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, statement string) (DBResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
