package serve

import (
	"testing"

	"github.com/ValentinKolb/dLock/lib/db/util"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShards(t *testing.T) {
	shards, err := parseShards("1=lstore, 2=dstore,3=rstore,4=estore")
	require.NoError(t, err)
	assert.Equal(t, []common.ServerShard{
		{ShardID: 1, Type: common.ShardTypeLocalStore},
		{ShardID: 2, Type: common.ShardTypeDistributedStore},
		{ShardID: 3, Type: common.ShardTypeRedisStore},
		{ShardID: 4, Type: common.ShardTypeEtcdStore},
	}, shards)
}

func TestParseShardsErrors(t *testing.T) {
	for _, value := range []string{
		"",
		"1",
		"x=lstore",
		"1=lockmgr(lstore)",
		"1=lstore,1=rstore",
	} {
		_, err := parseShards(value)
		assert.Error(t, err, "%q must be rejected", value)
	}
}

func TestParseClusterMembers(t *testing.T) {
	members, err := parseClusterMembers("node-1=localhost:63001, node-2=localhost:63002")
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, "localhost:63001", members[uint64(util.HashString("node-1", 0))])
	assert.Equal(t, "localhost:63002", members[uint64(util.HashString("node-2", 0))])

	_, err = parseClusterMembers("node-1")
	assert.Error(t, err)
}
