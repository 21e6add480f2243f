package syncutil

import (
	"context"
	"hash/fnv"
	"strings"
)

const addressShards = 128

// AddressMutex serializes work per wallet address using a fixed pool of
// channel-based locks. Addresses are canonicalized (lower-cased) before
// hashing so mixed-case forms of the same address contend on one lock.
// Distinct addresses may share a shard; that only costs contention, never
// correctness.
type AddressMutex struct {
	shards [addressShards]chan struct{}
}

// NewAddressMutex creates the lock pool with every shard unlocked.
func NewAddressMutex() *AddressMutex {
	m := &AddressMutex{}
	for i := range m.shards {
		m.shards[i] = make(chan struct{}, 1)
		m.shards[i] <- struct{}{}
	}
	return m
}

// Lock acquires the lock for an address, honoring context cancellation
// while waiting. On success the returned unlock function must be called.
func (m *AddressMutex) Lock(ctx context.Context, address string) (func(), error) {
	shard := m.shards[m.shardIdx(address)]
	select {
	case <-shard:
		return func() { shard <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *AddressMutex) shardIdx(address string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(address)))
	return h.Sum32() % addressShards
}
