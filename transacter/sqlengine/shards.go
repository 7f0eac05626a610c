package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shardedkit/transacter-go/transacter"
)

const (
	sqlShowShards      = "SHOW VITESS_SHARDS"
	sqlCurrentTarget   = "SELECT DATABASE()"
	sqlUseTargetFormat = "USE `%s`"
	sqlClearTarget     = "USE"
)

// Shards discovers the routing targets available on the backend. A
// non-sharded backend exposes a single implicit shard without issuing a
// query; a sharded backend answers the discovery query with one row per
// shard, formatted "<keyspace>/<shard-id>".
func (s *Session) Shards(ctx context.Context) ([]transacter.Shard, error) {
	if !s.sharded {
		return []transacter.Shard{transacter.SingleShard()}, nil
	}

	rows, queryErr := s.tx.Query(ctx, sqlShowShards)
	if queryErr != nil {
		return nil, errors.Join(transacter.ErrDiscoveringShardsFailed, queryErr)
	}
	defer s.closeRows(rows)

	shards := make([]transacter.Shard, 0)

	for rows.Next() {
		var row string
		if scanErr := rows.Scan(&row); scanErr != nil {
			return nil, errors.Join(transacter.ErrDiscoveringShardsFailed, scanErr)
		}

		shard, parseErr := transacter.ParseShard(row)
		if parseErr != nil {
			return nil, parseErr
		}

		shards = append(shards, shard)
	}

	return shards, nil
}

// Target runs body with the connection temporarily routed to the given shard.
// The current routing target is read first, checks are disabled for the
// scope, and the prior target is restored once control leaves the scope, even
// when body fails. An empty prior target is restored with the bare clear
// statement. On a non-sharded backend, Target is a pass-through that issues
// no routing statements.
func (s *Session) Target(ctx context.Context, shard transacter.Shard, body func(ctx context.Context) error) error {
	if !s.sharded {
		return body(ctx)
	}

	previous, targetErr := s.currentTarget(ctx)
	if targetErr != nil {
		return targetErr
	}

	return s.WithoutChecks(ctx, func(ctx context.Context) (err error) {
		if setErr := s.setTarget(ctx, shard.String()); setErr != nil {
			return setErr
		}

		defer func() {
			if restoreErr := s.restoreTarget(ctx, previous); restoreErr != nil {
				s.engine.logError(logMsgRestoreTargetFailed, restoreErr, logAttrShard, previous)
				err = errors.Join(err, restoreErr)
			}
		}()

		return body(ctx)
	})
}

// currentTarget reads the connection's routing target; an empty string means
// no explicit target is set.
func (s *Session) currentTarget(ctx context.Context) (string, error) {
	rows, queryErr := s.tx.Query(ctx, sqlCurrentTarget)
	if queryErr != nil {
		return "", queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return "", nil
	}

	var target sql.NullString
	if scanErr := rows.Scan(&target); scanErr != nil {
		return "", scanErr
	}

	return target.String, nil
}

func (s *Session) setTarget(ctx context.Context, target string) error {
	_, err := s.tx.Exec(ctx, fmt.Sprintf(sqlUseTargetFormat, target))
	return err
}

func (s *Session) restoreTarget(ctx context.Context, previous string) error {
	if previous == "" {
		_, err := s.tx.Exec(ctx, sqlClearTarget)
		return err
	}

	return s.setTarget(ctx, previous)
}
