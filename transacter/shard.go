package transacter

import (
	"errors"
	"fmt"
	"strings"
)

const shardSeparator = "/"

// Shard identifies a routing target in a horizontally partitioned datastore
// as a (keyspace, shard-id) pair. Shards are discovered by querying the
// datastore, never created by the engine.
type Shard struct {
	Keyspace string
	Name     string
}

// String renders the shard in the wire format used by the routing protocol,
// e.g. "ks1/-80".
func (s Shard) String() string {
	return s.Keyspace + shardSeparator + s.Name
}

// ParseShard parses a shard discovery row formatted as "<keyspace>/<shard-id>".
func ParseShard(row string) (Shard, error) {
	keyspace, name, found := strings.Cut(row, shardSeparator)
	if !found || keyspace == "" || name == "" {
		return Shard{}, errors.Join(ErrMalformedShardRow, fmt.Errorf("row %q", row))
	}

	return Shard{Keyspace: keyspace, Name: name}, nil
}

// SingleShard is the implicit shard of a non-sharded backend.
func SingleShard() Shard {
	return Shard{Keyspace: "keyspace", Name: "0"}
}
