package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shardedkit/transacter-go/transacter"
	"github.com/shardedkit/transacter-go/transacter/sqlengine/internal/adapters"
)

// fakeDB is a scripted database adapter for driving the engine without a live
// database. Every Begin hands out a fresh fakeTx; onBegin lets a test shape
// the behavior of each attempt's transaction.
type fakeDB struct {
	beginErr error
	begun    []*fakeTx
	onBegin  func(attempt int, tx *fakeTx)
}

func (db *fakeDB) Begin(_ context.Context) (adapters.DBTx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}

	tx := newFakeTx()
	db.begun = append(db.begun, tx)

	if db.onBegin != nil {
		db.onBegin(len(db.begun), tx)
	}

	return tx, nil
}

// fakeTx records every statement and query and plays back scripted errors and
// row sets. Row sets are consumed one per Query call, in order.
type fakeTx struct {
	executed    []string
	queried     []string
	execErr     error
	execErrs    map[string]error
	queryErr    error
	queryErrs   map[string]error
	results     [][][]any
	commitErr   error
	rollbackErr error
	committed   bool
	rolledBack  bool
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		execErrs:  map[string]error{},
		queryErrs: map[string]error{},
	}
}

func (tx *fakeTx) Exec(_ context.Context, statement string) (adapters.DBResult, error) {
	tx.executed = append(tx.executed, statement)

	if tx.execErr != nil {
		return nil, tx.execErr
	}

	if err, ok := tx.execErrs[statement]; ok {
		return nil, err
	}

	return fakeResult{}, nil
}

func (tx *fakeTx) Query(_ context.Context, query string) (adapters.DBRows, error) {
	tx.queried = append(tx.queried, query)

	if tx.queryErr != nil {
		return nil, tx.queryErr
	}

	if err, ok := tx.queryErrs[query]; ok {
		return nil, err
	}

	var rows [][]any
	if len(tx.results) > 0 {
		rows = tx.results[0]
		tx.results = tx.results[1:]
	}

	return &fakeRows{rows: rows}, nil
}

func (tx *fakeTx) Commit(_ context.Context) error {
	if tx.commitErr != nil {
		return tx.commitErr
	}

	tx.committed = true

	return nil
}

func (tx *fakeTx) Rollback(_ context.Context) error {
	tx.rolledBack = true
	return tx.rollbackErr
}

type fakeRows struct {
	rows     [][]any
	idx      int
	closeErr error
}

func (r *fakeRows) Next() bool {
	if r.idx < len(r.rows) {
		r.idx++
		return true
	}

	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]

	for i, target := range dest {
		switch typed := target.(type) {
		case *string:
			*typed = row[i].(string)
		case *[]byte:
			*typed = []byte(row[i].(string))
		case *sql.NullString:
			if row[i] == nil {
				*typed = sql.NullString{}
			} else {
				*typed = sql.NullString{String: row[i].(string), Valid: true}
			}
		default:
			return fmt.Errorf("unsupported scan target %T", target)
		}
	}

	return nil
}

func (r *fakeRows) Close() error {
	return r.closeErr
}

type fakeResult struct{}

func (fakeResult) RowsAffected() (int64, error) {
	return 1, nil
}

// engineHarness wires a Transacter to a fakeDB with deterministic backoff
// (zero jitter) and a sleep seam that records delays instead of sleeping.
type engineHarness struct {
	engine *Transacter
	db     *fakeDB
	sleeps []time.Duration
}

func newHarness(t *testing.T, options ...Option) *engineHarness {
	t.Helper()

	db := &fakeDB{}

	engine, err := newTransacter(db, options...)
	require.NoError(t, err)

	harness := &engineHarness{engine: engine, db: db}

	engine.newBackoff = func(options transacter.Options) *transacter.Backoff {
		return transacter.NewBackoff(options.MinRetryDelay, options.MaxRetryDelay, 0)
	}
	engine.sleep = func(_ context.Context, delay time.Duration) error {
		harness.sleeps = append(harness.sleeps, delay)
		return nil
	}

	return harness
}

func (h *engineHarness) lastTx(t *testing.T) *fakeTx {
	t.Helper()
	require.NotEmpty(t, h.db.begun, "expected at least one transaction to have begun")

	return h.db.begun[len(h.db.begun)-1]
}

// test entities

type account struct {
	Name    string `json:"name"`
	Balance int    `json:"balance"`
}

func (account) TableName() string                 { return "accounts" }
func (account) EntityKind() transacter.EntityKind { return transacter.KindRoot }

type featureFlag struct {
	Enabled bool `json:"enabled"`
}

func (featureFlag) TableName() string                 { return "feature_flags" }
func (featureFlag) EntityKind() transacter.EntityKind { return transacter.KindUnsharded }

type movement struct {
	Account transacter.ID `json:"-"`
	Amount  int           `json:"amount"`
}

func (movement) TableName() string                 { return "movements" }
func (movement) EntityKind() transacter.EntityKind { return transacter.KindChild }
func (m movement) ParentID() transacter.ID         { return m.Account }

// confusedRoot claims to be a root entity but also carries a parent id.
type confusedRoot struct{}

func (confusedRoot) TableName() string                 { return "confused" }
func (confusedRoot) EntityKind() transacter.EntityKind { return transacter.KindRoot }
func (confusedRoot) ParentID() transacter.ID           { return "parent" }

// orphanChild claims to be a child entity but supplies no parent id.
type orphanChild struct{}

func (orphanChild) TableName() string                 { return "orphans" }
func (orphanChild) EntityKind() transacter.EntityKind { return transacter.KindChild }

type unknownKindEntity struct{}

func (unknownKindEntity) TableName() string                 { return "unknowns" }
func (unknownKindEntity) EntityKind() transacter.EntityKind { return transacter.EntityKind(42) }
