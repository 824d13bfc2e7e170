package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "scope::ident", Key("scope", "ident"))
}

func TestMemoryEvictsOldestInserted(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](MemoryOptions{Capacity: 3})

	for i := 0; i < 3; i++ {
		c.Put(ctx, "s", fmt.Sprint(i), i)
	}
	// Reads do not protect an entry from eviction.
	_, ok := c.Get(ctx, "s", "0")
	require.True(t, ok)

	c.Put(ctx, "s", "3", 3)
	assert.Equal(t, 3, c.Len())

	_, ok = c.Get(ctx, "s", "0")
	assert.False(t, ok, "first inserted entry is evicted")
	for _, k := range []string{"1", "2", "3"} {
		_, ok := c.Get(ctx, "s", k)
		assert.True(t, ok, k)
	}
}

func TestMemoryReinsertMovesToBack(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](MemoryOptions{Capacity: 2})

	c.Put(ctx, "s", "a", "1")
	c.Put(ctx, "s", "b", "1")
	c.Put(ctx, "s", "a", "2")
	c.Put(ctx, "s", "c", "1")

	_, ok := c.Get(ctx, "s", "b")
	assert.False(t, ok)
	v, ok := c.Get(ctx, "s", "a")
	require.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](MemoryOptions{TTL: 200 * time.Millisecond})

	c.Put(ctx, "s", "k", "v")
	v, ok := c.Get(ctx, "s", "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	time.Sleep(300 * time.Millisecond)
	_, ok = c.Get(ctx, "s", "k")
	assert.False(t, ok)
	assert.Zero(t, c.Len(), "expired entry is removed on read")
}

func TestMemoryReputRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](MemoryOptions{TTL: time.Second})

	c.Put(ctx, "s", "k", "v1")
	time.Sleep(600 * time.Millisecond)
	c.Put(ctx, "s", "k", "v2")
	time.Sleep(600 * time.Millisecond)

	v, ok := c.Get(ctx, "s", "k")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestMemoryScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](MemoryOptions{})

	c.Put(ctx, "a", "id", "in a")
	_, ok := c.Get(ctx, "b", "id")
	assert.False(t, ok)

	c.Delete(ctx, "a", "id")
	_, ok = c.Get(ctx, "a", "id")
	assert.False(t, ok)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](MemoryOptions{Capacity: 50})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprint(w*1000 + i)
				c.Put(ctx, "s", key, i)
				c.Get(ctx, "s", key)
			}
		}(w)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}

var (
	_ Store[int] = (*Memory[int])(nil)
	_ Store[int] = (*Redis[int])(nil)
)
