package sync

import (
	"hash/fnv"
	"slices"
	"sync"
)

const defaultShards = 32

// ShardedMutex serializes work per key without a global lock. Keys hash onto
// a fixed set of shards, so unrelated keys occasionally share one.
type ShardedMutex struct {
	shards []sync.Mutex
}

// NewShardedMutex returns a lock with n shards, or 32 when n is not positive.
func NewShardedMutex(n int) *ShardedMutex {
	if n <= 0 {
		n = defaultShards
	}
	return &ShardedMutex{shards: make([]sync.Mutex, n)}
}

// Lock acquires the shards for every non-empty key and returns the matching
// unlock. Shards are taken in ascending order so two callers locking
// overlapping key sets cannot deadlock. With no usable key, shard 0 is held.
func (m *ShardedMutex) Lock(keys ...string) (unlock func()) {
	idx := m.shardsFor(keys)
	for _, i := range idx {
		m.shards[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			m.shards[idx[j]].Unlock()
		}
	}
}

func (m *ShardedMutex) shardsFor(keys []string) []int {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		idx = append(idx, m.shardFor(k))
	}
	if len(idx) == 0 {
		return []int{0}
	}
	slices.Sort(idx)
	return slices.Compact(idx)
}

func (m *ShardedMutex) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(m.shards)))
}
