// Package adapters provides database adapter implementations for the SQL transaction engine.
//
// This package implements the adapter pattern to support multiple database
// libraries: pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, allowing the
// engine to begin transactions and execute statements against any supported
// connection type.
//
// The adapters handle the specifics of each database library while presenting
// a unified interface for transaction control, statement execution, and
// result handling.
package adapters
