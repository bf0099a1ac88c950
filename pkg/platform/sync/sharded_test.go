package sync

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockWithoutKeysUsesFirstShard(t *testing.T) {
	m := NewShardedMutex(0)
	require.Len(t, m.shards, defaultShards)

	assert.Equal(t, []int{0}, m.shardsFor(nil))
	assert.Equal(t, []int{0}, m.shardsFor([]string{"", ""}))

	unlock := m.Lock("", "")
	unlock()
}

func TestLockCollapsesDuplicateShards(t *testing.T) {
	m := NewShardedMutex(1)

	assert.Equal(t, []int{0}, m.shardsFor([]string{"asha@example.com", "9876543210", "123456789012"}))

	unlock := m.Lock("asha@example.com", "9876543210")
	unlock()
}

func TestSameKeySerializes(t *testing.T) {
	m := NewShardedMutex(8)
	counter := 0
	var wg sync.WaitGroup

	for range 100 {
		wg.Go(func() {
			unlock := m.Lock("asha@example.com")
			defer unlock()
			counter++
		})
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestOverlappingKeySetsDoNotDeadlock(t *testing.T) {
	m := NewShardedMutex(4)
	done := make(chan struct{})

	go func() {
		var wg sync.WaitGroup
		for i := range 200 {
			wg.Go(func() {
				var unlock func()
				if i%2 == 0 {
					unlock = m.Lock("email", "mobile", "aadhaar")
				} else {
					unlock = m.Lock("aadhaar", "mobile", "email")
				}
				unlock()
			})
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("locking overlapping key sets deadlocked")
	}
}

func TestKeysSpreadAcrossShards(t *testing.T) {
	m := NewShardedMutex(32)
	seen := map[int]bool{}
	for _, k := range []string{"asha@example.com", "ravi@example.com", "9876543210", "9123456780", "123456789012", "210987654321"} {
		seen[m.shardFor(k)] = true
	}
	assert.GreaterOrEqual(t, len(seen), 3)
}
