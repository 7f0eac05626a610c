package sqlengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	jsoniter "github.com/json-iterator/go"

	"github.com/shardedkit/transacter-go/transacter"
	"github.com/shardedkit/transacter-go/transacter/sqlengine/internal/adapters"
)

const (
	dialectPostgres = "postgres"
	colID           = "id"
	colPayload      = "payload"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// sessionPhase tracks how far the session lifecycle has progressed. Once a
// phase begins, hooks of that phase or an earlier one can no longer be
// registered.
type sessionPhase int

const (
	phaseWork sessionPhase = iota
	phasePreCommit
	phasePostCommit
	phaseClosed
)

// Session is the work session of one transaction attempt. It wraps the
// underlying database transaction with entity persistence, shard discovery
// and targeting, raw-connection access, ordered lifecycle hooks, and the
// session-local disabled-check set.
//
// A Session is created fresh for every attempt, owned exclusively by the
// attempt that created it, and must never be handed to another goroutine or
// used after the attempt completes.
type Session struct {
	engine            *Transacter
	tx                adapters.DBTx
	readOnly          bool
	sharded           bool
	disabledChecks    transacter.CheckSet
	phase             sessionPhase
	preCommitHooks    []transacter.Hook
	postCommitHooks   []transacter.Hook
	sessionCloseHooks []transacter.Hook
}

func newSession(engine *Transacter, tx adapters.DBTx) *Session {
	return &Session{
		engine:         engine,
		tx:             tx,
		readOnly:       engine.options.ReadOnly,
		sharded:        engine.sharded,
		disabledChecks: engine.options.DisabledChecks.Copy(),
	}
}

// ReadOnly reports whether the session rejects mutating operations.
func (s *Session) ReadOnly() bool {
	return s.readOnly
}

// Save persists the entity and returns its generated id. The id shape is
// dispatched over the entity kind: root and unsharded entities get a fresh
// id, child entities get a parent-scoped composite id. Exactly one kind must
// apply or Save fails with an argument fault. Fails with a state fault on a
// read-only session before any datastore call is made.
func (s *Session) Save(ctx context.Context, entity transacter.Entity) (transacter.ID, error) {
	if err := s.checkMutable(); err != nil {
		return "", err
	}

	id, idErr := s.newEntityID(entity)
	if idErr != nil {
		return "", idErr
	}

	payload, marshalErr := jsonAPI.Marshal(entity)
	if marshalErr != nil {
		return "", errors.Join(transacter.ErrSavingEntityFailed, marshalErr)
	}

	sqlQuery, _, buildErr := goqu.Dialect(dialectPostgres).
		Insert(entity.TableName()).
		Rows(goqu.Record{colID: id.String(), colPayload: string(payload)}).
		ToSQL()
	if buildErr != nil {
		return "", errors.Join(transacter.ErrBuildingQueryFailed, buildErr)
	}

	if _, execErr := s.tx.Exec(ctx, sqlQuery); execErr != nil {
		return "", errors.Join(transacter.ErrSavingEntityFailed, execErr)
	}

	return id, nil
}

// Delete removes the entity row with the given id. Fails with a state fault
// on a read-only session before any datastore call is made.
func (s *Session) Delete(ctx context.Context, entity transacter.Entity, id transacter.ID) error {
	if err := s.checkMutable(); err != nil {
		return err
	}

	sqlQuery, _, buildErr := goqu.Dialect(dialectPostgres).
		Delete(entity.TableName()).
		Where(goqu.C(colID).Eq(id.String())).
		ToSQL()
	if buildErr != nil {
		return errors.Join(transacter.ErrBuildingQueryFailed, buildErr)
	}

	if _, execErr := s.tx.Exec(ctx, sqlQuery); execErr != nil {
		return errors.Join(transacter.ErrDeletingEntityFailed, execErr)
	}

	return nil
}

// Load reads the entity with the given id into dest, which supplies the
// table name and receives the unmarshaled payload. Fails with
// transacter.ErrEntityNotFound when the row is absent.
func (s *Session) Load(ctx context.Context, id transacter.ID, dest transacter.Entity) error {
	found, err := s.LoadOrNull(ctx, id, dest)
	if err != nil {
		return err
	}

	if !found {
		return errors.Join(transacter.ErrEntityNotFound, fmt.Errorf("table %s, id %s", dest.TableName(), id))
	}

	return nil
}

// LoadOrNull reads the entity with the given id into dest and reports whether
// a row was found. An absent row is an empty result, not an error.
func (s *Session) LoadOrNull(ctx context.Context, id transacter.ID, dest transacter.Entity) (bool, error) {
	sqlQuery, _, buildErr := goqu.Dialect(dialectPostgres).
		From(dest.TableName()).
		Select(colPayload).
		Where(goqu.C(colID).Eq(id.String())).
		ToSQL()
	if buildErr != nil {
		return false, errors.Join(transacter.ErrBuildingQueryFailed, buildErr)
	}

	rows, queryErr := s.tx.Query(ctx, sqlQuery)
	if queryErr != nil {
		return false, errors.Join(transacter.ErrLoadingEntityFailed, queryErr)
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return false, nil
	}

	var payload []byte
	if scanErr := rows.Scan(&payload); scanErr != nil {
		return false, errors.Join(transacter.ErrLoadingEntityFailed, scanErr)
	}

	if unmarshalErr := jsonAPI.Unmarshal(payload, dest); unmarshalErr != nil {
		return false, errors.Join(transacter.ErrLoadingEntityFailed, unmarshalErr)
	}

	return true, nil
}

// UseConnection exposes the raw connection of this session's transaction for
// operations outside the engine's vocabulary, e.g. routing commands. The
// engine does not interpret the connection's state afterward.
func (s *Session) UseConnection(ctx context.Context, fn func(ctx context.Context, conn transacter.Connection) error) error {
	return fn(ctx, &txConnection{tx: s.tx})
}

// OnPreCommit registers a hook that runs, in registration order, after the
// work function succeeds and before the underlying commit. A hook error
// propagates unmodified and aborts the commit.
func (s *Session) OnPreCommit(hook transacter.Hook) error {
	if s.phase >= phasePreCommit {
		return transacter.ErrHookPhaseStarted
	}

	s.preCommitHooks = append(s.preCommitHooks, hook)

	return nil
}

// OnPostCommit registers a hook that runs, in registration order, after the
// underlying commit succeeds. A hook error is wrapped in a
// transacter.PostCommitError because the data is already persisted.
func (s *Session) OnPostCommit(hook transacter.Hook) error {
	if s.phase >= phasePostCommit {
		return transacter.ErrHookPhaseStarted
	}

	s.postCommitHooks = append(s.postCommitHooks, hook)

	return nil
}

// OnSessionClose registers a hook that runs after the underlying transaction
// and the execution-context registration are released, so close hooks may
// safely start new transactions.
func (s *Session) OnSessionClose(hook transacter.Hook) error {
	if s.phase >= phaseClosed {
		return transacter.ErrSessionClosed
	}

	s.sessionCloseHooks = append(s.sessionCloseHooks, hook)

	return nil
}

// WithoutChecks runs body with the given checks disabled, or every check if
// none are given. The prior disabled-check set is restored exactly once
// control leaves the scope, regardless of how body exits.
func (s *Session) WithoutChecks(ctx context.Context, body func(ctx context.Context) error, checks ...transacter.Check) error {
	previous := s.disabledChecks

	disabled := transacter.AllChecks()
	if len(checks) > 0 {
		disabled = transacter.NewCheckSet(checks...)
	}
	s.disabledChecks = previous.Union(disabled)

	defer func() {
		s.disabledChecks = previous
	}()

	return body(ctx)
}

// CheckDisabled reports whether the given check is currently disabled in this
// session. Calling code consults this before risky operations.
func (s *Session) CheckDisabled(check transacter.Check) bool {
	return s.disabledChecks.Contains(check)
}

func (s *Session) checkMutable() error {
	if s.phase == phaseClosed {
		return transacter.ErrSessionClosed
	}

	if s.readOnly {
		return transacter.ErrReadOnlySession
	}

	return nil
}

func (s *Session) newEntityID(entity transacter.Entity) (transacter.ID, error) {
	kind := entity.EntityKind()
	_, isChild := entity.(transacter.ChildEntity)

	switch kind {
	case transacter.KindRoot, transacter.KindUnsharded:
		if isChild {
			return "", errors.Join(
				transacter.ErrUnknownEntityKind,
				fmt.Errorf("%s entity in table %s also implements ChildEntity", kind, entity.TableName()),
			)
		}

		return transacter.NewID()

	case transacter.KindChild:
		if !isChild {
			return "", errors.Join(
				transacter.ErrUnknownEntityKind,
				fmt.Errorf("child entity in table %s does not implement ChildEntity", entity.TableName()),
			)
		}

		return transacter.NewChildID(entity.(transacter.ChildEntity).ParentID())

	default:
		return "", errors.Join(
			transacter.ErrUnknownEntityKind,
			fmt.Errorf("kind %d in table %s", kind, entity.TableName()),
		)
	}
}

// preCommit runs the pre-commit hooks in order. Any hook error propagates
// unmodified; the caller rolls the transaction back.
func (s *Session) preCommit(ctx context.Context) error {
	s.phase = phasePreCommit

	for _, hook := range s.preCommitHooks {
		if err := hook(ctx); err != nil {
			return err
		}
	}

	return nil
}

// postCommit runs the post-commit hooks in order. The underlying commit has
// already succeeded, so a hook error is wrapped in a PostCommitError
// signaling partial success.
func (s *Session) postCommit(ctx context.Context) error {
	s.phase = phasePostCommit

	for _, hook := range s.postCommitHooks {
		if err := hook(ctx); err != nil {
			s.engine.recordCounterContext(ctx, metricPostCommitHookFailures, nil)
			s.engine.logError(logMsgPostCommitHookFailed, err)

			return transacter.NewPostCommitError(err)
		}
	}

	return nil
}

// close runs the session-close hooks in order. It is invoked after the
// transaction and the execution-context registration are released; hook
// failures are logged, not propagated, since the transaction outcome is
// already decided.
func (s *Session) close(ctx context.Context) {
	if s.phase == phaseClosed {
		return
	}
	s.phase = phaseClosed

	for _, hook := range s.sessionCloseHooks {
		if err := hook(ctx); err != nil {
			s.engine.logWarn(logMsgCloseHookFailed, err)
		}
	}
}

// closeRows safely closes database rows and logs any errors.
func (s *Session) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.engine.logWarn(logMsgCloseRowsFailed, closeErr)
	}
}

// txConnection adapts the session's transaction to the raw-connection surface.
type txConnection struct {
	tx adapters.DBTx
}

func (c *txConnection) Exec(ctx context.Context, statement string) error {
	_, err := c.tx.Exec(ctx, statement)
	return err
}

func (c *txConnection) Query(ctx context.Context, query string) (transacter.Rows, error) {
	rows, err := c.tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}
