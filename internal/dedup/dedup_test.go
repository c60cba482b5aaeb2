package dedup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a hand-advanced clock shared by an index and its test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestFingerprint(t *testing.T) {
	base := Key{Topic: "cats", Type: "text", Content: "Cats are..."}

	assert.Equal(t, base.Fingerprint(), base.Fingerprint(), "fingerprint must be stable")
	assert.Len(t, base.Fingerprint(), 64)

	variants := []Key{
		{Topic: "dogs", Type: "text", Content: "Cats are..."},
		{Topic: "cats", Type: "file", Content: "Cats are..."},
		{Topic: "cats", Type: "text", Content: "Cats are!"},
		{Topic: "cats", Type: "text", Content: "Cats are...", ImageURL: "https://x"},
		// shifting bytes between adjacent fields must not collide
		{Topic: "catst", Type: "ext", Content: "Cats are..."},
	}
	for _, v := range variants {
		assert.NotEqualf(t, base.Fingerprint(), v.Fingerprint(), "%+v collided with base", v)
	}
}

// indexContract runs the behaviour every Index must have. advance moves the
// index's notion of time forward.
func indexContract(t *testing.T, idx Index, advance func(time.Duration)) {
	ctx := context.Background()
	fp := Key{Topic: "cats", Type: "text"}.Fingerprint()

	_, ok, err := idx.Lookup(ctx, fp)
	require.NoError(t, err)
	assert.False(t, ok, "empty index should miss")

	require.NoError(t, idx.Remember(ctx, fp, "id-1", 5*time.Second))

	id, ok, err := idx.Lookup(ctx, fp)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "id-1", id)

	advance(4 * time.Second)
	id, ok, err = idx.Lookup(ctx, fp)
	require.NoError(t, err)
	assert.True(t, ok, "entry should survive inside the window")
	assert.Equal(t, "id-1", id)

	advance(2 * time.Second)
	_, ok, err = idx.Lookup(ctx, fp)
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after the window")

	// Remember overwrites with a fresh TTL
	require.NoError(t, idx.Remember(ctx, fp, "id-2", 5*time.Second))
	id, ok, err = idx.Lookup(ctx, fp)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "id-2", id)
}

func TestMemoryIndex(t *testing.T) {
	clock := newFakeClock()
	idx := NewMemoryIndex(clock.Now)
	indexContract(t, idx, clock.Advance)
}

func TestMemoryIndex_SweepsExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	idx := NewMemoryIndex(clock.Now)
	ctx := context.Background()

	for _, topic := range []string{"a", "b", "c"} {
		require.NoError(t, idx.Remember(ctx, Key{Topic: topic}.Fingerprint(), topic, time.Second))
	}
	assert.Equal(t, 3, idx.Len())

	clock.Advance(2 * time.Second)
	require.NoError(t, idx.Remember(ctx, Key{Topic: "d"}.Fingerprint(), "d", time.Second))
	assert.Equal(t, 1, idx.Len())
}

func TestRedisIndex(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	indexContract(t, NewRedisIndex(client), mr.FastForward)
}

func TestRedisIndex_StoresTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	idx := NewRedisIndex(client)
	fp := Key{Topic: "cats"}.Fingerprint()
	require.NoError(t, idx.Remember(context.Background(), fp, "abc", 5*time.Second))

	assert.Equal(t, 5*time.Second, mr.TTL(keyPrefix+fp))
	got, err := mr.Get(keyPrefix + fp)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestRedisIndex_LookupError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	mr.SetError("server unavailable")
	_, _, err := NewRedisIndex(client).Lookup(context.Background(), "fp")
	assert.Error(t, err)
}

func TestNewRedisClient_EmptyAddress(t *testing.T) {
	_, err := NewRedisClient(Config{})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(Config{Address: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
