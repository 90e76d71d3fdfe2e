package internal

import (
	"testing"

	"github.com/ValentinKolb/dLock/lib/db/util"
	"github.com/stretchr/testify/assert"
)

func TestEntryIsStale(t *testing.T) {
	e := Entry{Value: []byte("v"), Index: 10}
	assert.True(t, e.IsStale(9))
	assert.False(t, e.IsStale(10))
	assert.False(t, e.IsStale(11))
}

func TestGetShardIsDeterministic(t *testing.T) {
	shards := []*Shard{NewShard(), NewShard(), NewShard(), NewShard()}
	key := util.HashString("orders:42:_lock", 7)
	assert.Same(t, GetShard(key, shards), GetShard(key, shards))
}
