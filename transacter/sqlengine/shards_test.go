package sqlengine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardedkit/transacter-go/transacter"
)

func Test_Shards_NonShardedBackendExposesTheImplicitShard(t *testing.T) {
	harness := newHarness(t)
	tx := newFakeTx()
	session := newSession(harness.engine, tx)

	shards, err := session.Shards(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []transacter.Shard{transacter.SingleShard()}, shards)
	assert.Empty(t, tx.queried, "no discovery query on a non-sharded backend")
}

func Test_Shards_ShardedBackendDiscoversAllShards(t *testing.T) {
	harness := newHarness(t, WithSharded())
	tx := newFakeTx()
	tx.results = [][][]any{{{"ks1/-80"}, {"ks1/80-"}, {"unsharded_ks/0"}}}
	session := newSession(harness.engine, tx)

	shards, err := session.Shards(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []transacter.Shard{
		{Keyspace: "ks1", Name: "-80"},
		{Keyspace: "ks1", Name: "80-"},
		{Keyspace: "unsharded_ks", Name: "0"},
	}, shards)

	assert.Equal(t, []string{sqlShowShards}, tx.queried)
}

func Test_Shards_MalformedDiscoveryRowFails(t *testing.T) {
	harness := newHarness(t, WithSharded())
	tx := newFakeTx()
	tx.results = [][][]any{{{"ks1/-80"}, {"garbage"}}}
	session := newSession(harness.engine, tx)

	_, err := session.Shards(context.Background())

	assert.ErrorIs(t, err, transacter.ErrMalformedShardRow)
}

func Test_Shards_DiscoveryQueryFailureIsWrapped(t *testing.T) {
	harness := newHarness(t, WithSharded())
	tx := newFakeTx()
	tx.queryErrs[sqlShowShards] = errors.New("topology unavailable")
	session := newSession(harness.engine, tx)

	_, err := session.Shards(context.Background())

	assert.ErrorIs(t, err, transacter.ErrDiscoveringShardsFailed)
}

func Test_Target_NonShardedBackendIsAPassThrough(t *testing.T) {
	harness := newHarness(t)
	tx := newFakeTx()
	session := newSession(harness.engine, tx)

	var ran bool

	err := session.Target(context.Background(), transacter.SingleShard(), func(_ context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Empty(t, tx.executed, "no routing statements on a non-sharded backend")
	assert.Empty(t, tx.queried)
}

func Test_Target_RoutesAndRestoresThePriorTarget(t *testing.T) {
	harness := newHarness(t, WithSharded())
	tx := newFakeTx()
	tx.results = [][][]any{{{"app_db"}}}
	session := newSession(harness.engine, tx)

	shard := transacter.Shard{Keyspace: "ks1", Name: "-80"}

	var routedTarget []string

	err := session.Target(context.Background(), shard, func(_ context.Context) error {
		routedTarget = append([]string{}, tx.executed...)

		assert.True(t, session.CheckDisabled(transacter.CheckFullScatter), "checks are disabled within the routed scope")

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"USE `ks1/-80`"}, routedTarget, "body runs with the shard targeted")
	assert.Equal(t, []string{"USE `ks1/-80`", "USE `app_db`"}, tx.executed, "prior target is restored")
	assert.Equal(t, []string{sqlCurrentTarget}, tx.queried)
	assert.False(t, session.CheckDisabled(transacter.CheckFullScatter), "checks are restored after the scope")
}

func Test_Target_RestoresAnUnsetTargetWithTheBareClearStatement(t *testing.T) {
	harness := newHarness(t, WithSharded())
	tx := newFakeTx()
	tx.results = [][][]any{{}}
	session := newSession(harness.engine, tx)

	shard := transacter.Shard{Keyspace: "ks1", Name: "80-"}

	err := session.Target(context.Background(), shard, func(_ context.Context) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"USE `ks1/80-`", sqlClearTarget}, tx.executed)
}

func Test_Target_TreatsANullTargetAsUnset(t *testing.T) {
	harness := newHarness(t, WithSharded())
	tx := newFakeTx()
	tx.results = [][][]any{{{nil}}}
	session := newSession(harness.engine, tx)

	err := session.Target(context.Background(), transacter.Shard{Keyspace: "ks1", Name: "-80"}, func(_ context.Context) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"USE `ks1/-80`", sqlClearTarget}, tx.executed)
}

func Test_Target_RestoresThePriorTargetWhenTheBodyFails(t *testing.T) {
	harness := newHarness(t, WithSharded())
	tx := newFakeTx()
	tx.results = [][][]any{{{"app_db"}}}
	session := newSession(harness.engine, tx)

	bodyErr := errors.New("shard query failed")

	err := session.Target(context.Background(), transacter.Shard{Keyspace: "ks1", Name: "-80"}, func(_ context.Context) error {
		return bodyErr
	})

	assert.ErrorIs(t, err, bodyErr)
	assert.Equal(t, []string{"USE `ks1/-80`", "USE `app_db`"}, tx.executed, "restore runs even when the body fails")
}

func Test_Target_RestoreFailureIsReported(t *testing.T) {
	harness := newHarness(t, WithSharded())
	tx := newFakeTx()
	tx.results = [][][]any{{{"app_db"}}}
	restoreErr := errors.New("connection gone")
	tx.execErrs["USE `app_db`"] = restoreErr
	session := newSession(harness.engine, tx)

	err := session.Target(context.Background(), transacter.Shard{Keyspace: "ks1", Name: "-80"}, func(_ context.Context) error {
		return nil
	})

	assert.ErrorIs(t, err, restoreErr)
}

func Test_Target_ReadingTheCurrentTargetFailureAborts(t *testing.T) {
	harness := newHarness(t, WithSharded())
	tx := newFakeTx()
	queryErr := errors.New("connection reset")
	tx.queryErrs[sqlCurrentTarget] = queryErr
	session := newSession(harness.engine, tx)

	err := session.Target(context.Background(), transacter.Shard{Keyspace: "ks1", Name: "-80"}, func(_ context.Context) error {
		t.Fatal("body must not run when the prior target cannot be read")
		return nil
	})

	assert.ErrorIs(t, err, queryErr)
	assert.Empty(t, tx.executed, "no routing statement without a known prior target")
}
