package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorAssignsOncePerVoter(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator(NewMemoryStore(), FreshKeyAddress)

	first, err := alloc.AddressFor(ctx, "voter-1")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	again, err := alloc.AddressFor(ctx, "voter-1")
	require.NoError(t, err)
	assert.Equal(t, first, again, "mapping must be stable for the process lifetime")
}

func TestAllocatorIsInjectiveAcrossVoters(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator(NewMemoryStore(), FreshKeyAddress)

	seen := make(map[string]string)
	for i := 0; i < 50; i++ {
		voterID := fmt.Sprintf("voter-%d", i)
		addr, err := alloc.AddressFor(ctx, voterID)
		require.NoError(t, err)
		if prev, ok := seen[addr]; ok {
			t.Fatalf("address %s assigned to both %s and %s", addr, prev, voterID)
		}
		seen[addr] = voterID
	}
}

func TestAllocatorConcurrentSameVoter(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator(NewMemoryStore(), FreshKeyAddress)

	const n = 16
	addrs := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr, err := alloc.AddressFor(ctx, "voter-1")
			assert.NoError(t, err)
			addrs[i] = addr
		}(i)
	}
	wg.Wait()

	for _, addr := range addrs[1:] {
		assert.Equal(t, addrs[0], addr, "concurrent assignment must converge on one address")
	}
}

func TestMemoryStoreFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "voter-1", "0xaaa"))
	assert.NoError(t, store.Set(ctx, "voter-1", "0xaaa"), "idempotent same-value set")
	assert.Error(t, store.Set(ctx, "voter-1", "0xbbb"))
}
