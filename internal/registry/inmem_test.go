package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryGetSetDel(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v"))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	exists, err := m.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, m.Del(ctx, "k"))
	exists, err = m.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInMemoryExpire(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.nowFunc = func() time.Time { return clock }

	require.NoError(t, m.Set(ctx, "k", "v"))
	require.NoError(t, m.Expire(ctx, "k", 10))

	ttl, err := m.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(10), ttl)

	clock = clock.Add(11 * time.Second)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemorySetsAndHashes(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()

	require.NoError(t, m.SAdd(ctx, "clients", "a"))
	require.NoError(t, m.SAdd(ctx, "clients", "b"))
	members, err := m.SMembers(ctx, "clients")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)

	require.NoError(t, m.SRem(ctx, "clients", "a"))
	members, err = m.SMembers(ctx, "clients")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)

	m.HSet("events:a", "check1", `{"status":0}`)
	hash, err := m.HGetAll(ctx, "events:a")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"check1": `{"status":0}`}, hash)

	exists, err := m.Exists(ctx, "clients")
	require.NoError(t, err)
	assert.True(t, exists, "a non-empty set should be reported as existing")

	exists, err = m.Exists(ctx, "events:a")
	require.NoError(t, err)
	assert.True(t, exists, "a non-empty hash should be reported as existing")

	require.NoError(t, m.Del(ctx, "events:a"))
	exists, err = m.Exists(ctx, "events:a")
	require.NoError(t, err)
	assert.False(t, exists, "Del should clear a hash, not just the string map")
}

func TestInMemoryLRange(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	m.LPush("history:a:c", "0", "0", "1")

	got, err := m.LRange(ctx, "history:a:c", -21, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "0", "1"}, got)
}

func TestInMemoryConnected(t *testing.T) {
	m := NewInMemory()
	assert.True(t, m.Connected())
	m.SetDown(true)
	assert.False(t, m.Connected())
}
