package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashStringIsStable(t *testing.T) {
	assert.Equal(t, HashString("node-1", 0), HashString("node-1", 0))
	assert.Equal(t, HashString("node-1", 42), HashString("node-1", 42))
	assert.NotEqual(t, HashString("node-1", 0), HashString("node-2", 0))
	assert.NotEqual(t, HashString("node-1", 1), HashString("node-1", 2))
}

func TestShardIndexInRange(t *testing.T) {
	for _, n := range []int{0, 1, 3, 16} {
		for i := 0; i < 1000; i++ {
			idx := ShardIndex(UintKey(GenerateSeed()), n)
			if n <= 1 {
				assert.Equal(t, 0, idx)
				continue
			}
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, n)
		}
	}
}
